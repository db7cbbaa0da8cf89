package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Whole phrases only: result pages routinely carry words like "error" in their titles.
var blockedTitleMarkers = []string{
	"just a moment",
	"attention required",
	"access denied",
	"403 forbidden",
	"access forbidden",
	"are you a robot",
	"robot check",
	"captcha",
	"internal server error",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
	"page not found",
}

// Interstitials that replace the page outright.
var challengeSelectors = []string{
	"#challenge-form",
	"#challenge-stage",
	"#cf-wrapper",
	".cf-browser-verification",
}

// Widgets that may also sit in a newsletter or contact form on a working page.
var captchaWidgetSelectors = []string{
	".g-recaptcha",
	".h-captcha",
	"iframe[src*='captcha']",
}

var blockedBodyMarkers = []string{
	"verify you are human",
	"unusual traffic",
	"enable javascript and cookies to continue",
}

// DetectBlock reports whether doc is a bot wall, challenge interstitial or error page, and
// why. An embedded CAPTCHA widget alone does not count; see CaptchaWidget.
func DetectBlock(doc *goquery.Document) (string, bool) {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	for _, marker := range blockedTitleMarkers {
		if strings.Contains(title, marker) {
			return fmt.Sprintf("title contains %q", marker), true
		}
	}

	for _, sel := range challengeSelectors {
		if doc.Find(sel).Length() > 0 {
			return "page contains " + sel, true
		}
	}

	body := strings.ToLower(doc.Find("body").Text())
	for _, marker := range blockedBodyMarkers {
		if strings.Contains(body, marker) {
			return fmt.Sprintf("body contains %q", marker), true
		}
	}
	return "", false
}

// CaptchaWidget reports the first CAPTCHA widget on the page. Callers decide whether it
// blocks: it does only when nothing else on the page is recognisable.
func CaptchaWidget(doc *goquery.Document) (string, bool) {
	for _, sel := range captchaWidgetSelectors {
		if doc.Find(sel).Length() > 0 {
			return sel, true
		}
	}
	return "", false
}
