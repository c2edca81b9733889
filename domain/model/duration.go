package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// isoDurationRE matches the PnDTnHnMnS subset YouTube uses for contentDetails.duration.
var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts an ISO 8601 duration such as "PT1H2M3S" into seconds.
// Unparseable input yields 0.
func ParseDuration(s string) int64 {
	m := isoDurationRE.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	units := []int64{86400, 3600, 60, 1}
	var total int64
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}

// FormatDuration renders seconds as HH:MM:SS, or MM:SS when under an hour.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ParseClock is the inverse of FormatDuration; it accepts MM:SS and HH:MM:SS.
func ParseClock(s string) (int64, error) {
	var h, m, sec int64
	if n, _ := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); n == 3 {
		return h*3600 + m*60 + sec, nil
	}
	if n, _ := fmt.Sscanf(s, "%d:%d", &m, &sec); n == 2 {
		return m*60 + sec, nil
	}
	return 0, fmt.Errorf("invalid clock duration %q", s)
}
