package assistant

import (
	"strings"
	"testing"
)

func TestFormatDispatchAppointmentList(t *testing.T) {
	res := DispatchResult{
		Success: true,
		Message: "fallback",
		Data: map[string]any{
			"appointments": []any{
				map[string]any{"time": "9:00", "customer": "A", "service": "X"},
				map[string]any{"time": "10:00", "customer": "B", "service": "Y"},
			},
		},
	}
	got := FormatDispatch(res)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "1.") || !strings.Contains(lines[0], "9:00") || !strings.Contains(lines[0], "A") || !strings.Contains(lines[0], "X") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2.") || !strings.Contains(lines[1], "B") {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
}

func TestFormatDispatchAlternateFieldNames(t *testing.T) {
	res := DispatchResult{
		Success: true,
		Data: map[string]any{
			"appointments": []any{
				map[string]any{"date": "2024-03-15", "name": "Rex", "type": "grooming"},
			},
		},
	}
	got := FormatDispatch(res)
	for _, want := range []string{"1.", "2024-03-15", "Rex", "grooming"} {
		if !strings.Contains(got, want) {
			t.Fatalf("line missing %q: %q", want, got)
		}
	}
}

func TestFormatDispatchEmptyAppointments(t *testing.T) {
	res := DispatchResult{
		Success: true,
		Message: "fallback",
		Data:    map[string]any{"appointments": []any{}},
	}
	if got := FormatDispatch(res); got != noAppointmentsText {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFormatDispatchConfirmation(t *testing.T) {
	res := DispatchResult{
		Success: true,
		Message: "fallback",
		Data:    map[string]any{"confirmation": "Booked Jane for 3pm."},
	}
	if got := FormatDispatch(res); got != "Booked Jane for 3pm." {
		t.Fatalf("confirmation should be returned verbatim, got %q", got)
	}
}

func TestFormatDispatchFallsBackToMessage(t *testing.T) {
	res := DispatchResult{Success: true, Message: "All set."}
	if got := FormatDispatch(res); got != "All set." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFormatDispatchPartialEntries(t *testing.T) {
	// Entries with missing fields must not panic; each present field still
	// shows up.
	res := DispatchResult{
		Success: true,
		Data: map[string]any{
			"appointments": []any{
				map[string]any{"time": "9:00"},
				map[string]any{},
				"not even a map",
			},
		},
	}
	got := FormatDispatch(res)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected three lines, got %q", got)
	}
	if !strings.Contains(lines[0], "9:00") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "3.") {
		t.Fatalf("unexpected third line: %q", lines[2])
	}
}

func TestFormatDispatchMalformedAppointmentsField(t *testing.T) {
	// A non-list appointments value falls through the rule chain.
	res := DispatchResult{
		Success: true,
		Message: "fallback",
		Data:    map[string]any{"appointments": "oops"},
	}
	if got := FormatDispatch(res); got != "fallback" {
		t.Fatalf("unexpected text: %q", got)
	}
}
