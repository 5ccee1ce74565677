// Package twitter is a small client for the two v1.1 endpoints the
// collector needs: search/tweets and application/rate_limit_status.
//
// Failures come back as *errors.Error so callers can tell a rate limit,
// which is worth waiting out, from anything else.
package twitter
