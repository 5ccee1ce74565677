// Package ratelimit handles the search endpoint's request quota.
//
// WindowLimiter paces requests client side so a run rarely hits the quota.
// When it does, ResetBackoff asks the endpoint for its quota table, ignores
// operations that have not been used this window, and waits until the
// soonest reset that is still in the future.
package ratelimit
