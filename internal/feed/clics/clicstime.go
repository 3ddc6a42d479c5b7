package clics

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var (
	timePattern = regexp.MustCompile(
		`^([0-9]{1,4})-([0-9]{1,2})-([0-9]{1,2})T([0-9]{1,2}):([0-9]{1,2}):([0-9]{1,2}(?:[.][0-9]+)?)(?:([-+])([0-9]{1,2}):?([0-9]{2})?)?[zZ]?$`)
	durationPattern = regexp.MustCompile(`^([-+])?(?:([0-9]+):)?(?:([0-9]+):)?([0-9]+(?:[.][0-9]+)?)$`)
)

const (
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ParseTime parses an absolute CLICS timestamp such as
// "2024-05-01T10:00:00.000+02:00". Two-digit years are expanded to 19xx/20xx.
// The result is in UTC.
func ParseTime(s string) (time.Time, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid clics time %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	if len(m[1]) <= 2 {
		if year >= 40 {
			year += 1900
		} else {
			year += 2000
		}
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	seconds, err := strconv.ParseFloat(m[6], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clics time %q: %w", s, err)
	}
	whole := math.Floor(seconds)
	nanos := int(math.Round((seconds - whole) * 1e9))

	offset := 0
	if m[7] != "" {
		offHour, _ := strconv.Atoi(m[8])
		offMinute := 0
		if m[9] != "" {
			offMinute, _ = strconv.Atoi(m[9])
		}
		offset = offHour*3600 + offMinute*60
		if m[7] == "-" {
			offset = -offset
		}
	}
	zone := time.FixedZone("", offset)
	t := time.Date(year, time.Month(month), day, hour, minute, int(whole), nanos, zone)
	return t.UTC(), nil
}

// FormatTime formats an absolute time with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseDuration parses a relative CLICS time "[-+][[h:]m:]s[.fff]".
// With a single colon the first number is minutes.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid clics duration %q", s)
	}
	hourStr, minuteStr := m[2], m[3]
	if minuteStr == "" && hourStr != "" {
		minuteStr, hourStr = hourStr, ""
	}
	var hours, minutes int64
	if hourStr != "" {
		hours, _ = strconv.ParseInt(hourStr, 10, 64)
	}
	if minuteStr != "" {
		minutes, _ = strconv.ParseInt(minuteStr, 10, 64)
	}
	seconds, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid clics duration %q: %w", s, err)
	}
	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(math.Round(seconds*1e9))
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// FormatDuration formats a relative time as "h:mm:ss.fff".
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
