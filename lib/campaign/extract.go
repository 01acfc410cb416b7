package campaign

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"goalietron/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoCampaignData is returned when none of the known fields could be found,
// the page most likely does not carry the expected structure.
var ErrNoCampaignData = errors.New("campaign: no campaign data found in page")

type fieldExtractor struct {
	Field string
	// Extract sets the field on the record and reports whether it was found.
	Extract func(html string, r *Record) bool
}

func regexField(field, pattern string, apply func(r *Record, match string) bool) fieldExtractor {
	re := regexp.MustCompile(pattern)
	return fieldExtractor{
		Field: field,
		Extract: func(html string, r *Record) bool {
			groups := re.FindStringSubmatch(html)
			if len(groups) < 2 {
				return false
			}
			return apply(r, groups[1])
		},
	}
}

func intField(field, key string, set func(r *Record, v int)) fieldExtractor {
	return regexField(field, `"`+key+`":\s*(\d+)`, func(r *Record, match string) bool {
		v, err := strconv.Atoi(match)
		if err != nil {
			return false
		}
		set(r, v)
		return true
	})
}

func stringField(field, key string, set func(r *Record, v string)) fieldExtractor {
	return regexField(field, `"`+key+`":\s*"([^"]+)"`, func(r *Record, match string) bool {
		set(r, unescapeJSONString(match))
		return true
	})
}

// unescapeJSONString resolves escapes like `\/` and `\u0026` inside a captured
// json string body, the raw capture is kept if it does not decode.
func unescapeJSONString(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var out string
	err := json.Unmarshal([]byte(`"`+raw+`"`), &out)
	if err != nil {
		return raw
	}
	return out
}

var fieldExtractors = []fieldExtractor{
	intField("patron_count", "patron_count", func(r *Record, v int) { r.PatronCount = &v }),
	intField("paid_member_count", "paid_member_count", func(r *Record, v int) { r.PaidMemberCount = &v }),
	intField("creation_count", "creation_count", func(r *Record, v int) { r.CreationCount = &v }),
	stringField("campaign_name", "name", func(r *Record, v string) { r.CampaignName = &v }),
	stringField("currency", "currency", func(r *Record, v string) { r.Currency = &v }),
	stringField("earnings_visibility", "earnings_visibility", func(r *Record, v string) { r.EarningsVisibility = &v }),
	intField("pledge_sum", "pledge_sum", func(r *Record, v int) { r.SetPledgeSumCents(v) }),
	{Field: "goals", Extract: extractGoals},
	stringField("avatar_url", "avatar_photo_url", func(r *Record, v string) { r.AvatarUrl = &v }),
	stringField("cover_photo_url", "cover_photo_url", func(r *Record, v string) { r.CoverPhotoUrl = &v }),
	regexField("is_monthly", `"is_monthly":\s*(true|false)`, func(r *Record, match string) bool {
		v := match == "true"
		r.IsMonthly = &v
		return true
	}),
}

var goalsStart = regexp.MustCompile(`"goals":\s*\[`)

func extractGoals(html string, r *Record) bool {
	loc := goalsStart.FindStringIndex(html)
	if loc == nil {
		return false
	}
	span, ok := matchBrackets(html[loc[1]-1:])
	if !ok {
		return false
	}

	var goals []json.RawMessage
	err := json.Unmarshal([]byte(span), &goals)
	if err != nil || len(goals) == 0 {
		return false
	}
	r.Goals = goals
	return true
}

// matchBrackets returns the prefix of `s` (which must start with '[') up to and
// including its matching ']', brackets inside json strings are ignored.
func matchBrackets(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// ExtractFields runs every field extractor against `html` and returns the
// names of the fields that were found, in extractor order.
func ExtractFields(html string, r *Record) []string {
	var found []string
	for _, f := range fieldExtractors {
		if f.Extract(html, r) {
			found = append(found, f.Field)
		}
	}
	return found
}

// Extract turns the raw html of a creator's about page into a Record.
func Extract(html string, now time.Time) (Record, error) {
	var record Record
	found := ExtractFields(html, &record)
	if len(found) == 0 {
		return Record{}, ErrNoCampaignData
	}

	if record.CampaignName == nil || record.CoverPhotoUrl == nil {
		fillFromOpenGraph(html, &record)
	}

	record.ExtractedAt = now
	record.DataSource = SourcePublicPage
	return record, nil
}

// fillFromOpenGraph fills the campaign name and cover photo from the page's
// OpenGraph tags when the embedded json did not carry them.
func fillFromOpenGraph(html string, r *Record) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}

	if r.CampaignName == nil {
		if title := htmlutil.MetaProperty(doc, "og:title"); title != "" {
			r.CampaignName = &title
		}
	}
	if r.CoverPhotoUrl == nil {
		if image := htmlutil.MetaProperty(doc, "og:image"); image != "" {
			r.CoverPhotoUrl = &image
		}
	}
}
