package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EntityMap carries the structured values detected in an utterance. An empty
// field means the value was not detected, never an error.
type EntityMap struct {
	Customer    string `json:"customer,omitempty"`
	Service     string `json:"service,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Duration    string `json:"duration,omitempty"`
	View        string `json:"view,omitempty"`
	DateContext string `json:"dateContext,omitempty"`
	DateValue   string `json:"dateValue,omitempty"`
	TimeValue   string `json:"timeValue,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

var (
	explicitDateRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`)
	monthDateRe    = regexp.MustCompile(`\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?\b`)
	timeTokenRe    = regexp.MustCompile(`\b\d{1,2}:\d{2}\s?(?:am|pm)?\b|\b\d{1,2}\s?(?:am|pm)\b`)
	timePartsRe    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s?(am|pm)?$`)
	customerRe     = regexp.MustCompile(`(?:\b|^)(?i:for|with|book|schedule)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	leadMarkerRe   = regexp.MustCompile(`\b(?:for|book|schedule)\b`)
	trailMarkerRe  = regexp.MustCompile(`\b(?:at|on|service|for)\b`)
)

const dateLayout = "2006-01-02"

// ExtractEntities pulls structured values out of free text. The original
// casing is kept for name detection since capitalization is the signal there;
// every other rule works on the lowercased form. The reference time is an
// explicit argument so the function stays deterministic.
func ExtractEntities(utterance string, now time.Time) EntityMap {
	var out EntityMap
	lower := strings.ToLower(utterance)

	extractDateContext(lower, now, &out)
	extractTime(lower, &out)
	extractCustomer(utterance, &out)
	extractService(lower, &out)

	return out
}

// extractDateContext tries each date rule in fixed order and stops at the
// first match.
func extractDateContext(lower string, now time.Time, out *EntityMap) {
	switch {
	case strings.Contains(lower, "today"):
		out.DateContext = "today"
		out.DateValue = now.Format(dateLayout)
	case strings.Contains(lower, "tomorrow"):
		out.DateContext = "tomorrow"
		out.DateValue = now.AddDate(0, 0, 1).Format(dateLayout)
	case strings.Contains(lower, "this week"):
		out.DateContext = "thisWeek"
		out.DateValue = now.Format(dateLayout)
	case strings.Contains(lower, "next week"):
		out.DateContext = "nextWeek"
		out.DateValue = now.AddDate(0, 0, 7).Format(dateLayout)
	default:
		if m := explicitDateRe.FindString(lower); m != "" {
			out.DateContext = "date"
			out.DateValue = m
		} else if m := monthDateRe.FindString(lower); m != "" {
			out.DateContext = "date"
			out.DateValue = m
		}
	}
}

func extractTime(lower string, out *EntityMap) {
	token := timeTokenRe.FindString(lower)
	if token == "" {
		return
	}
	out.Time = strings.TrimSpace(token)
	out.TimeValue = normalizeTime(out.Time)
}

// normalizeTime converts an hour[:minute][am/pm] token to 24-hour HH:MM. The
// raw token is returned unchanged when it does not parse, so the value is
// never lost.
func normalizeTime(token string) string {
	m := timePartsRe.FindStringSubmatch(strings.ReplaceAll(token, " ", ""))
	if m == nil {
		return token
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return token
	}
	minute := m[2]
	if minute == "" {
		minute = "00"
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return fmt.Sprintf("%02d:%s", hour, minute)
}

// extractCustomer finds the first capitalized word sequence right after a
// booking marker word.
func extractCustomer(utterance string, out *EntityMap) {
	m := customerRe.FindStringSubmatch(utterance)
	if m != nil {
		out.Customer = m[1]
	}
}

// extractService takes the phrase between a leading marker (for/book/schedule)
// and the next trailing marker (at/on/service/for). Candidates that are just
// the customer's name or a bare date word are skipped so "book Jane for
// haircut at 3pm" yields "haircut", not "Jane".
func extractService(lower string, out *EntityMap) {
	customer := strings.ToLower(out.Customer)
	for _, loc := range leadMarkerRe.FindAllStringIndex(lower, -1) {
		rest := lower[loc[1]:]
		trail := trailMarkerRe.FindStringIndex(rest)
		if trail == nil {
			continue
		}
		candidate := trimServicePhrase(rest[:trail[0]])
		if candidate == "" || candidate == customer {
			continue
		}
		out.Service = candidate
		return
	}
}

var dateWords = []string{"today", "tomorrow", "this week", "next week"}

func trimServicePhrase(s string) string {
	s = strings.TrimSpace(s)
	for _, w := range dateWords {
		s = strings.TrimSpace(strings.TrimSuffix(s, w))
	}
	return s
}
