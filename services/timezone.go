package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// offsetPattern matches "UTC+3", "gmt-05:30", "+0530", "-4".
var offsetPattern = regexp.MustCompile(`(?i)^(?:utc|gmt)?\s*([+-])\s*(\d{1,2})(?::?(\d{2}))?$`)

// abbreviations maps common zone abbreviations to their UTC offset in minutes.
var abbreviations = map[string]int{
	"UTC": 0, "GMT": 0, "WET": 0, "Z": 0,
	"BST": 60, "CET": 60, "WAT": 60,
	"CEST": 120, "EET": 120, "CAT": 120, "SAST": 120,
	"EEST": 180, "MSK": 180, "EAT": 180,
	"PKT": 300,
	"IST": 330,
	"ICT": 420, "WIB": 420,
	"SGT": 480, "HKT": 480,
	"JST": 540, "KST": 540,
	"AEST": 600,
	"AEDT": 660,
	"NZST": 720,
	"NZDT": 780,
	"BRT": -180, "ART": -180,
	"EDT": -240,
	"EST": -300, "CDT": -300,
	"CST": -360, "MDT": -360,
	"MST": -420, "PDT": -420,
	"PST": -480,
	"AKST": -540,
	"HST": -600,
}

const maxOffsetMinutes = 14 * 60

// ParseTimezone resolves a free-form timezone to its UTC offset in minutes at
// instant at. ok is false when the zone is not recognised.
func ParseTimezone(tz string, at time.Time) (offset int, ok bool) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return 0, false
	}
	if m, found := abbreviations[strings.ToUpper(tz)]; found {
		return m, true
	}
	if m := offsetPattern.FindStringSubmatch(tz); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes := 0
		if m[3] != "" {
			minutes, _ = strconv.Atoi(m[3])
		}
		if minutes >= 60 {
			return 0, false
		}
		total := hours*60 + minutes
		if total > maxOffsetMinutes {
			return 0, false
		}
		if m[1] == "-" {
			total = -total
		}
		return total, true
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		_, secs := at.In(loc).Zone()
		return secs / 60, true
	}
	return 0, false
}

// NormalizeTimezone returns the stored spelling of tz: offsets become
// "UTC±HH:MM", abbreviations are upper-cased, IANA names keep their canonical
// form and anything else is kept as typed.
func NormalizeTimezone(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "", fmt.Errorf("%w: timezone is required", ErrInvalidInput)
	}
	upper := strings.ToUpper(tz)
	if _, ok := abbreviations[upper]; ok {
		if upper == "Z" {
			return "UTC", nil
		}
		return upper, nil
	}
	if offsetPattern.MatchString(tz) {
		if offset, ok := ParseTimezone(tz, time.Time{}); ok {
			return formatOffset(offset), nil
		}
		return tz, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc.String(), nil
	}
	return tz, nil
}

func formatOffset(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, minutes/60, minutes%60)
}

// timezoneBucket groups zones by whole-hour UTC offset (floored).
func timezoneBucket(tz string, at time.Time) (int, bool) {
	offset, ok := ParseTimezone(tz, at)
	if !ok {
		return 0, false
	}
	if offset < 0 && offset%60 != 0 {
		return offset/60 - 1, true
	}
	return offset / 60, true
}
