package model

import "math"

// ComputeMetrics derives the engagement ratios of a video. A zero
// denominator yields 0 for the affected ratio.
func ComputeMetrics(views, likes, comments, subscribers int64) Metrics {
	return Metrics{
		SpreadRate:     percent(views, subscribers),
		CommentRate:    percent(comments, views),
		LikeRate:       percent(likes, views),
		EngagementRate: percent(likes+comments, views),
	}
}

func percent(num, denom int64) float64 {
	if denom <= 0 {
		return 0
	}
	return round4(float64(num) / float64(denom) * 100)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
