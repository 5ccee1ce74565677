// Package preprocess extracts spoiler spans from the collected corpus.
//
// Normalize canonicalizes a post's text and masks handles, hashtags and
// short links. SpoilerSpans then finds the first "spoiler:"-style marker
// (English or Spanish, optionally wrapped in 🚨) and yields what follows it.
// Preprocessor streams a corpus through both and writes one span per line.
package preprocess
