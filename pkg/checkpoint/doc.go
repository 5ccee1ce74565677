// Package checkpoint rebuilds the collector's position from the corpus.
//
// There is no checkpoint file. On every start the corpus directory is
// scanned and folded into a State: the smallest ID seen becomes the cursor
// and the record count becomes the accepted count. The next search then asks
// only for posts strictly older than the cursor.
package checkpoint
