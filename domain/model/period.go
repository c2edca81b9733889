package model

import (
	"fmt"
	"strings"
	"time"
)

// Period is the pre-resolved harvest time range selection
type Period string

const (
	PeriodLast3Months Period = "last3Months"
	PeriodLast6Months Period = "last6Months"
	PeriodLastYear    Period = "lastYear"
	PeriodAllTime     Period = "allTime"
)

// Periods lists every selectable period in prompt order.
var Periods = []Period{PeriodLast3Months, PeriodLast6Months, PeriodLastYear, PeriodAllTime}

var periodDays = map[Period]int{
	PeriodLast3Months: 90,
	PeriodLast6Months: 180,
	PeriodLastYear:    365,
}

var periodRecommended = map[Period]int{
	PeriodLast3Months: 100,
	PeriodLast6Months: 200,
	PeriodLastYear:    500,
	PeriodAllTime:     1000,
}

var periodLabels = map[Period]string{
	PeriodLast3Months: "Last 3 months",
	PeriodLast6Months: "Last 6 months",
	PeriodLastYear:    "Last year",
	PeriodAllTime:     "All time",
}

// ParsePeriod accepts the enum names case-insensitively along with the short
// aliases 3m, 6m, 1y and all.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last3months", "3m", "1":
		return PeriodLast3Months, nil
	case "last6months", "6m", "2":
		return PeriodLast6Months, nil
	case "lastyear", "1y", "12m", "3":
		return PeriodLastYear, nil
	case "alltime", "all", "4", "":
		return PeriodAllTime, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Label is the human readable name of the period.
func (p Period) Label() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

// RecommendedCap is the advisory number of videos to process for the period.
func (p Period) RecommendedCap() int {
	return periodRecommended[p]
}

// Window maps the period to a published-date window ending now.
// PeriodAllTime yields an unbounded window.
func (p Period) Window(now time.Time) Window {
	days, ok := periodDays[p]
	if !ok {
		return Window{}
	}
	start := now.AddDate(0, 0, -days)
	return Window{Start: &start}
}

// Window bounds enumeration by publish date. A nil bound is unbounded.
type Window struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// IsZero reports whether neither bound is set.
func (w Window) IsZero() bool {
	return w.Start == nil && w.End == nil
}
