package assistant

import "strings"

// Category is the high-level purpose of an utterance.
type Category string

const (
	CategoryScheduleView      Category = "SCHEDULE_VIEW"
	CategoryBookingManagement Category = "BOOKING_MANAGEMENT"
	CategoryTimeBlocking      Category = "TIME_BLOCKING"
	CategoryGeneralQuery      Category = "GENERAL_QUERY"
)

// Intent is the result of classifying a single utterance.
type Intent struct {
	Category   Category  `json:"category"`
	Action     string    `json:"action"`
	Confidence float32   `json:"confidence"`
	Entities   EntityMap `json:"entities"`
}

// ruleGroup holds the patterns that qualify an utterance for one category.
// Any single pattern match qualifies; groups are evaluated in slice order and
// the first matching group wins.
type ruleGroup struct {
	category   Category
	action     string
	confidence float32
	patterns   []string
}

// Classifier scans an ordered rule table top to bottom. It is stateless after
// construction, so classification is pure and deterministic.
type Classifier struct {
	groups []ruleGroup
}

func defaultGroups() []ruleGroup {
	return []ruleGroup{
		{
			category:   CategoryScheduleView,
			action:     "get_schedule",
			confidence: 0.90,
			patterns: []string{
				"what's my schedule", "whats my schedule", "show my schedule",
				"my schedule", "view schedule", "view my schedule",
				"my calendar", "show calendar", "what's on", "whats on",
				"my appointments", "show appointments", "any appointments",
				"appointments today", "appointments tomorrow",
				"my day", "my week", "what do i have", "how busy",
			},
		},
		{
			category:   CategoryBookingManagement,
			action:     "manage_booking",
			confidence: 0.85,
			patterns: []string{
				"book ", "book an appointment", "new appointment",
				"make an appointment", "set up an appointment",
				"schedule ", "reschedule", "cancel", "move my",
				"appointment for",
			},
		},
		{
			category:   CategoryTimeBlocking,
			action:     "block_time",
			confidence: 0.80,
			patterns: []string{
				"block out", "block off", "block ", "time off", "day off",
				"take off", "vacation", "unavailable", "out of office",
				"lunch break", "personal time",
			},
		},
	}
}

// NewClassifier builds a classifier with the built-in rule table.
func NewClassifier() *Classifier {
	return &Classifier{groups: defaultGroups()}
}

// Classify maps an utterance to an intent. Matching runs over the trimmed,
// lowercased input; when no group matches, the result is a general query with
// its fixed fallback confidence rather than an error.
func (c *Classifier) Classify(utterance string) Intent {
	m := strings.ToLower(strings.TrimSpace(utterance))
	if m != "" {
		for _, g := range c.groups {
			if containsAny(m, g.patterns) {
				return Intent{Category: g.category, Action: g.action, Confidence: g.confidence}
			}
		}
	}
	return Intent{Category: CategoryGeneralQuery, Action: "general_query", Confidence: 0.50}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
