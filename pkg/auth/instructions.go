package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide explains where the API credentials come from and how the
// tool looks for them.
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"SEARCH API CREDENTIALS",
		rule,
		"",
		"The scraper calls the v1.1 standard search endpoint and needs either an",
		"app-only bearer token or a full set of OAuth 1.0a user keys.",
		"",
		"STEP 1: Open the developer portal and select (or create) a project app.",
		"STEP 2: Under 'Keys and tokens' generate the Bearer Token.",
		"        For user context, also copy the API Key and Secret and generate",
		"        an Access Token and Secret.",
		"STEP 3: Store them with 'spoilerscraper auth login', or export:",
		"",
		"        BEARER_TOKEN=...",
		"        TWITTER_CONSUMER_KEY=...        TWITTER_CONSUMER_SECRET=...",
		"        TWITTER_ACCESS_TOKEN=...        TWITTER_ACCESS_TOKEN_SECRET=...",
		"",
		"Lookup order: flags, environment and .env, then the system keychain,",
		"then the encrypted credentials file in the config directory.",
		rule,
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
