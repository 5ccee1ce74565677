package scraper

import (
	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/twitter"
)

// RejectReason names the contract a returned status broke
type RejectReason string

const (
	RejectQuoted     RejectReason = "quoted_status"
	RejectRetweeted  RejectReason = "retweeted_status"
	RejectAboveBound RejectReason = "id_above_max_id"
)

// Verdict is the outcome of validating one status
type Verdict struct {
	Accepted bool
	Reason   RejectReason
}

var accepted = Verdict{Accepted: true}

func reject(reason RejectReason) Verdict {
	return Verdict{Reason: reason}
}

// Validate checks a status against what the query asked the endpoint for:
// no quotes, no retweets, and nothing above maxID when a bound was sent.
func Validate(status twitter.Status, maxID *int64) Verdict {
	switch {
	case status.HasQuotedStatus():
		return reject(RejectQuoted)
	case status.HasRetweetedStatus():
		return reject(RejectRetweeted)
	case maxID != nil && status.ID > *maxID:
		return reject(RejectAboveBound)
	default:
		return accepted
	}
}

// ContractError reports a status the endpoint should never have returned
func ContractError(status twitter.Status, v Verdict) error {
	return errs.New(errs.ErrorTypeContract, 0,
		"endpoint returned status %d violating the query filters: %s", status.ID, v.Reason)
}
