package request

import (
	"strings"

	"github.com/mssola/useragent"
)

// ClientSummary reduces a User-Agent header to a short "browser/os" label
// for request logs. Bots and scripted callers are reported as such.
func ClientSummary(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot:" + name
	}
	browser, _ := ua.Browser()
	os := ua.OS()
	if os == "" {
		os = "unknown"
	}
	label := browser + "/" + os
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}
