package assistant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesSpec is the on-disk shape of a pattern override file. Only the pattern
// lists are configurable; category order, actions, and confidences are fixed.
type rulesSpec struct {
	ScheduleView      []string `yaml:"schedule_view"`
	BookingManagement []string `yaml:"booking_management"`
	TimeBlocking      []string `yaml:"time_blocking"`
}

// LoadClassifier reads a YAML pattern file and returns a classifier using
// those patterns. A category omitted from the file keeps its built-in
// patterns.
func LoadClassifier(path string) (*Classifier, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent rules: %w", err)
	}
	var spec rulesSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse intent rules: %w", err)
	}

	groups := defaultGroups()
	for i := range groups {
		var override []string
		switch groups[i].category {
		case CategoryScheduleView:
			override = spec.ScheduleView
		case CategoryBookingManagement:
			override = spec.BookingManagement
		case CategoryTimeBlocking:
			override = spec.TimeBlocking
		}
		if len(override) > 0 {
			groups[i].patterns = override
		}
	}
	return &Classifier{groups: groups}, nil
}
