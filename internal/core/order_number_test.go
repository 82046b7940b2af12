package core

import (
	"errors"
	"testing"
	"time"
)

func TestNextOrderNumber(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"first of the day", nil, "20240305-001"},
		{"follows last", []string{"20240305-001", "20240305-002"}, "20240305-003"},
		{"ignores other days", []string{"20240304-007", "20240306-001"}, "20240305-001"},
		{"uses max not count", []string{"20240305-001", "20240305-009"}, "20240305-010"},
		{"unordered input", []string{"20240305-004", "20240305-002"}, "20240305-005"},
		{"widens past 999", []string{"20240305-999"}, "20240305-1000"},
		{"continues after 1000", []string{"20240305-999", "20240305-1000"}, "20240305-1001"},
		{"skips malformed", []string{"20240305-abc", "20240305-1", "20240305-003"}, "20240305-004"},
		{"skips signed suffixes", []string{"20240305-+99", "20240305--05", "20240305-002"}, "20240305-003"},
		{"skips embedded spaces", []string{"20240305- 42", "20240305-042 "}, "20240305-001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOrderNumber(date, tt.existing)
			if err != nil {
				t.Fatalf("NextOrderNumber failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNextOrderNumber_RequiresDate(t *testing.T) {
	_, err := NextOrderNumber(time.Time{}, nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestOrderSequence(t *testing.T) {
	tests := []struct {
		number string
		want   int
		ok     bool
	}{
		{"20240305-001", 1, true},
		{"20240305-1000", 1000, true},
		{"20240305-+99", 0, false},
		{"20240305--01", 0, false},
		{"20240305-01", 0, false},
		{"20240304-005", 0, false},
	}
	for _, tt := range tests {
		got, ok := orderSequence(tt.number, "20240305-")
		if ok != tt.ok || got != tt.want {
			t.Errorf("orderSequence(%q) = (%d, %v), expected (%d, %v)", tt.number, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseOrderDate(t *testing.T) {
	d, err := ParseOrderDate(" 2024-03-05 ")
	if err != nil {
		t.Fatalf("ParseOrderDate failed: %v", err)
	}
	if got := OrderNumberPrefix(d); got != "20240305-" {
		t.Errorf("Expected prefix 20240305-, got %s", got)
	}

	for _, bad := range []string{"", "   ", "2024/03/05", "2024-02-30", "05-03-2024"} {
		if _, err := ParseOrderDate(bad); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseOrderDate(%q): expected ErrInvalidArgument, got %v", bad, err)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, ok := ParseOrderStatus("SOLD")
	if !ok || s != OrderStatusSold {
		t.Errorf("Expected SOLD, got %q (ok=%v)", s, ok)
	}

	if _, ok := ParseOrderStatus("quotation"); ok {
		t.Error("Expected lowercase status to be rejected")
	}
}
