// Package scraper implements the paginated collector.
//
// Collection walks search results from newest to oldest. Every request asks
// for posts strictly older than the cursor, the cursor then moves to the
// smallest ID of the page just received, and the page is handed to the
// caller as one batch. A run stops once enough posts containing "spoiler:"
// have been gathered or when the endpoint has nothing older left.
//
// Rate limits never surface to the caller: the request is retried after
// sleeping until the endpoint's next quota reset. Quoted or retweeted posts,
// which the query excludes, are treated as a broken contract and end the run.
package scraper
