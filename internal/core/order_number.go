package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	orderDateLayout   = "2006-01-02"
	orderNumberLayout = "20060102"
	orderSeqWidth     = 3
)

// ParseOrderDate parses a YYYY-MM-DD order date.
func ParseOrderDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("%w: order date is required", ErrInvalidArgument)
	}
	d, err := time.Parse(orderDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: order date %q must be YYYY-MM-DD", ErrInvalidArgument, s)
	}
	return d, nil
}

// OrderNumberPrefix returns the "YYYYMMDD-" prefix shared by every order number of that day.
func OrderNumberPrefix(date time.Time) string {
	return date.Format(orderNumberLayout) + "-"
}

// NextOrderNumber derives the next order number for date from the numbers already issued.
// Numbers from other days are ignored. The sequence is zero-padded to three digits and
// widens once it passes 999, so 20240305-999 is followed by 20240305-1000.
//
// The result is unique only if existing is a complete snapshot of that day's numbers;
// callers serialise assignment per day.
func NextOrderNumber(date time.Time, existing []string) (string, error) {
	if date.IsZero() || date.Year() < 1 || date.Year() > 9999 {
		return "", fmt.Errorf("%w: order date is required", ErrInvalidArgument)
	}

	prefix := OrderNumberPrefix(date)
	last := 0
	for _, number := range existing {
		if seq, ok := orderSequence(number, prefix); ok && seq > last {
			last = seq
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, orderSeqWidth, last+1), nil
}

// orderSequence extracts the numeric sequence of number if it belongs to prefix's day.
func orderSequence(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	suffix := number[len(prefix):]
	if len(suffix) < orderSeqWidth {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return seq, true
}
