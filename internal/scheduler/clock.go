package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidClock is returned for a time of day that is not h:mm with AM or PM.
	ErrInvalidClock = errors.New("invalid time of day")
	// ErrUnknownTimezone is returned for a zone abbreviation that cannot be resolved.
	ErrUnknownTimezone = errors.New("unknown timezone")
)

// zoneAbbreviations maps the abbreviations users type to IANA zones.
var zoneAbbreviations = map[string]string{
	"IST":  "Asia/Kolkata",
	"UTC":  "UTC",
	"GMT":  "UTC",
	"BST":  "Europe/London",
	"CET":  "Europe/Paris",
	"CEST": "Europe/Paris",
	"EST":  "America/New_York",
	"EDT":  "America/New_York",
	"CST":  "America/Chicago",
	"CDT":  "America/Chicago",
	"MST":  "America/Denver",
	"MDT":  "America/Denver",
	"PST":  "America/Los_Angeles",
	"PDT":  "America/Los_Angeles",
	"JST":  "Asia/Tokyo",
	"AEST": "Australia/Sydney",
}

// ClockTime is a wall-clock time of day in a zone.
type ClockTime struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// ParseClock parses "3:30", "PM", "IST" into a ClockTime. The zone may also be
// an IANA name such as "Europe/Berlin".
func ParseClock(clock, meridiem, zone string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(mm) != 2 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 1 || hour > 12 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}

	switch strings.ToUpper(meridiem) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return ClockTime{}, fmt.Errorf("%w: expected AM or PM, got %q", ErrInvalidClock, meridiem)
	}

	loc, err := LoadZone(zone)
	if err != nil {
		return ClockTime{}, err
	}
	return ClockTime{Hour: hour, Minute: minute, Location: loc}, nil
}

// LoadZone resolves a zone abbreviation or IANA name.
func LoadZone(zone string) (*time.Location, error) {
	name := zone
	if iana, ok := zoneAbbreviations[strings.ToUpper(zone)]; ok {
		name = iana
	} else if !strings.Contains(zone, "/") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, zone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, zone)
	}
	return loc, nil
}

// NextOccurrence returns the first instant strictly after now at which the
// wall clock in ct.Location reads ct.Hour:ct.Minute. A time already past
// today rolls to tomorrow.
func NextOccurrence(now time.Time, ct ClockTime) time.Time {
	local := now.In(ct.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), ct.Hour, ct.Minute, 0, 0, ct.Location)
	if !next.After(now) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, ct.Hour, ct.Minute, 0, 0, ct.Location)
	}
	return next
}
