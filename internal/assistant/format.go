package assistant

import (
	"fmt"
	"strings"
)

const noAppointmentsText = "You have no appointments scheduled."

// FormatDispatch turns a successful dispatch result into user-facing text.
// The rules run in order and a missing or malformed field simply falls
// through to the next one, ending at the result's own message.
func FormatDispatch(res DispatchResult) string {
	if res.Data != nil {
		if raw, ok := res.Data["appointments"]; ok {
			if list, ok := asList(raw); ok {
				if len(list) == 0 {
					return noAppointmentsText
				}
				return formatAppointments(list)
			}
		}
		if confirmation, ok := res.Data["confirmation"].(string); ok && confirmation != "" {
			return confirmation
		}
	}
	return res.Message
}

func formatAppointments(list []any) string {
	var b strings.Builder
	for i, entry := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d.", i+1)
		fields, _ := entry.(map[string]any)
		if when := firstString(fields, "time", "date"); when != "" {
			fmt.Fprintf(&b, " %s", when)
		}
		if who := firstString(fields, "customer", "name"); who != "" {
			fmt.Fprintf(&b, " %s", who)
		}
		if what := firstString(fields, "service", "type"); what != "" {
			fmt.Fprintf(&b, " (%s)", what)
		}
	}
	return b.String()
}

// asList accepts both decoded-JSON and hand-built payload shapes.
func asList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, entry := range v {
			out[i] = entry
		}
		return out, true
	}
	return nil, false
}

// firstString returns the first present, non-empty string among the keys.
func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
