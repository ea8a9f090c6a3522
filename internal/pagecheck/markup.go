package pagecheck

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var statusBarPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)onmouseover\s*=\s*["'][^"']*window\.status`),
	regexp.MustCompile(`(?i)onmouseover\s*=\s*["'][^"']*status\s*=`),
	regexp.MustCompile(`(?i)window\.status\s*=`),
}

// SpoofsStatusBar reports markup that rewrites the browser status bar.
func SpoofsStatusBar(doc string) bool {
	for _, re := range statusBarPatterns {
		if re.MatchString(doc) {
			return true
		}
	}
	return false
}

var (
	sensitiveTypes = map[string]bool{"password": true, "email": true, "text": true, "tel": true}
	sensitiveNames = []string{"password", "username", "email", "phone", "card", "ssn"}
)

// FakeForm reports a form that posts to a different origin than pageURL
// while the page collects sensitive input and has a submit control.
// Actions that cannot be resolved are ignored.
func FakeForm(pageURL, doc string) (bool, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return false, err
	}
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return false, err
	}

	crossOrigin := false
	d.Find("form[action]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		action, _ := s.Attr("action")
		target, err := base.Parse(strings.TrimSpace(action))
		if err != nil {
			return true
		}
		if origin(target) != origin(base) {
			crossOrigin = true
			return false
		}
		return true
	})
	if !crossOrigin {
		return false, nil
	}

	sensitive := d.Find("input").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if sensitiveTypes[strings.ToLower(s.AttrOr("type", ""))] {
			return true
		}
		name := strings.ToLower(s.AttrOr("name", ""))
		for _, n := range sensitiveNames {
			if strings.HasPrefix(name, n) {
				return true
			}
		}
		return false
	}).Length() > 0

	submit := d.Find("input, button").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(s.AttrOr("type", ""), "submit")
	}).Length() > 0

	return sensitive && submit, nil
}

func origin(u *url.URL) string {
	if u.Host == "" {
		return "null"
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// InlineScripts returns the concatenated text of every <script> element
// without a src attribute.
func InlineScripts(doc string) string {
	var (
		b        strings.Builder
		inScript bool
	)
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "script" {
				continue
			}
			inScript = true
			for hasAttr {
				var key []byte
				key, _, hasAttr = z.TagAttr()
				if string(key) == "src" {
					inScript = false
				}
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				inScript = false
			}
		case html.TextToken:
			if inScript {
				b.Write(z.Text())
				b.WriteByte('\n')
			}
		}
	}
}

var locationReplace = regexp.MustCompile(`location\.replace\(\s*["']([^"']+)["']\s*\)`)

// ExtractRedirectURL returns the target of a meta refresh or a
// location.replace call in doc, or "" when there is none.
func ExtractRedirectURL(doc string) string {
	if d, err := goquery.NewDocumentFromReader(strings.NewReader(doc)); err == nil {
		target := ""
		d.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.EqualFold(s.AttrOr("http-equiv", ""), "refresh") {
				return true
			}
			target = refreshTarget(s.AttrOr("content", ""))
			return target == ""
		})
		if target != "" {
			return target
		}
	}
	if m := locationReplace.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	return ""
}

// refreshTarget parses a refresh value such as `0; URL='https://x'`.
func refreshTarget(content string) string {
	_, rest, ok := strings.Cut(content, ";")
	if !ok {
		return ""
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 4 || !strings.EqualFold(rest[:3], "url") {
		return ""
	}
	rest = strings.TrimSpace(rest[3:])
	rest, ok = strings.CutPrefix(rest, "=")
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(rest), `"'`)
}
