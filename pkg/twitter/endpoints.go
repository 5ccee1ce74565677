package twitter

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the v1.1 REST root
	DefaultBaseURL = "https://api.twitter.com/1.1"

	SearchPath          = "/search/tweets.json"
	RateLimitStatusPath = "/application/rate_limit_status.json"

	// Resource names as reported by the rate limit status endpoint
	SearchResource          = "/search/tweets"
	RateLimitStatusResource = "/application/rate_limit_status"

	// ResultTypeRecent orders results newest first
	ResultTypeRecent = "recent"
	// MaxPageSize is the largest count the search endpoint honours
	MaxPageSize = 100
)

// SearchURL builds the search request URL for params
func SearchURL(baseURL string, params SearchParams, tweetMode string) string {
	q := url.Values{}
	q.Set("q", params.Query)
	if params.Lang != "" {
		q.Set("lang", params.Lang)
	}
	count := params.Count
	if count <= 0 || count > MaxPageSize {
		count = MaxPageSize
	}
	q.Set("count", strconv.Itoa(count))
	resultType := params.ResultType
	if resultType == "" {
		resultType = ResultTypeRecent
	}
	q.Set("result_type", resultType)
	q.Set("include_entities", strconv.FormatBool(params.IncludeEntities))
	if params.MaxID != nil {
		q.Set("max_id", strconv.FormatInt(*params.MaxID, 10))
	}
	if tweetMode != "" {
		q.Set("tweet_mode", tweetMode)
	}
	return strings.TrimRight(baseURL, "/") + SearchPath + "?" + q.Encode()
}

// RateLimitStatusURL builds the quota table URL
func RateLimitStatusURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + RateLimitStatusPath
}
