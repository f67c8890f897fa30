package prayer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical prayer names as the timings API reports them
const (
	Fajr    = "Fajr"
	Sunrise = "Sunrise"
	Dhuhr   = "Dhuhr"
	Asr     = "Asr"
	Maghrib = "Maghrib"
	Isha    = "Isha"
)

// AlertedPrayers lists the prayers that trigger notifications, in their
// daily order. Sunrise is displayed but never alerted.
var AlertedPrayers = []string{Fajr, Dhuhr, Asr, Maghrib, Isha}

// ReadableDateLayout is the layout of the API's readable date field,
// e.g. "06 Jan 2025".
const ReadableDateLayout = "02 Jan 2006"

// Timings maps a prayer name to its time string as reported by the API,
// e.g. "05:52" or "05:52 (BST)".
type Timings map[string]string

// Date carries the API's date block for one day. The hijri and
// gregorian sub-documents are kept verbatim for display use.
type Date struct {
	Readable  string          `json:"readable"`
	Timestamp string          `json:"timestamp"`
	Hijri     json.RawMessage `json:"hijri,omitempty"`
	Gregorian json.RawMessage `json:"gregorian,omitempty"`
}

// Data is one day's worth of prayer timings
type Data struct {
	Timings Timings         `json:"timings"`
	Date    Date            `json:"date"`
	Meta    json.RawMessage `json:"meta,omitempty"`
}

// YearlyData maps the month number as a decimal string ("1".."12") to
// that month's days, index 0 being day 1.
type YearlyData map[string][]Data

// ParseTime parses a timings value into a concrete local time on the
// given day. A parenthetical timezone annotation is stripped first.
func ParseTime(raw string, day time.Time) (time.Time, error) {
	clock, _, _ := strings.Cut(strings.TrimSpace(raw), " ")
	hoursStr, minutesStr, ok := strings.Cut(clock, ":")
	if !ok {
		return time.Time{}, fmt.Errorf("invalid prayer time %q", raw)
	}

	hours, err := strconv.Atoi(hoursStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid prayer time %q: %w", raw, err)
	}
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid prayer time %q: %w", raw, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return time.Time{}, fmt.Errorf("prayer time %q out of range", raw)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, day.Location()), nil
}

// To12Hour converts an HH:MM string to its 12-hour display form
func To12Hour(time24 string) (string, error) {
	parsed, err := ParseTime(time24, time.Time{})
	if err != nil {
		return "", err
	}
	return parsed.Format("3:04 PM"), nil
}
