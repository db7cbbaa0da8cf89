package fetch

import (
	browser "github.com/EDDYCJY/fake-useragent"
)

// DefaultUserAgent is sent when neither configuration nor the caller picks one.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// UserAgentSource yields the user agent for the next fetch.
type UserAgentSource func() string

// StaticUserAgent always returns ua, or DefaultUserAgent when ua is empty.
func StaticUserAgent(ua string) UserAgentSource {
	if ua == "" {
		ua = DefaultUserAgent
	}
	return func() string { return ua }
}

// RandomUserAgent rotates through real browser user agents.
func RandomUserAgent() UserAgentSource {
	return func() string {
		if ua := browser.Random(); ua != "" {
			return ua
		}
		return DefaultUserAgent
	}
}

// ResolveUserAgent maps the configured value to a source: "random" rotates browser agents,
// anything else is sent as is.
func ResolveUserAgent(configured string) UserAgentSource {
	if configured == "random" {
		return RandomUserAgent()
	}
	return StaticUserAgent(configured)
}
