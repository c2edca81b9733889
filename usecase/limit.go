package usecase

import "github.com/naoterumaker/youtube-transcriber/domain/model"

// LimitDecision is the outcome of the ApplyingLimit step
type LimitDecision struct {
	Found       int
	Recommended int // 0 when no recommendation was made
	Limit       int
	Applied     bool // the recommended cap was applied
}

// RecommendFor returns the recommended cap for found videos, or 0 when the
// caller gave an explicit cap or the period's cap is not smaller than found.
func RecommendFor(found, explicitCap int, period model.Period) int {
	if explicitCap > 0 {
		return 0
	}
	if rec := period.RecommendedCap(); rec > 0 && rec < found {
		return rec
	}
	return 0
}

// DecideLimit picks how many of the found videos to process. An explicit cap
// always wins; otherwise the recommended cap is applied only when accepted.
func DecideLimit(found, explicitCap int, period model.Period, acceptRecommended bool) LimitDecision {
	d := LimitDecision{Found: found, Limit: found}
	if explicitCap > 0 {
		if explicitCap < found {
			d.Limit = explicitCap
		}
		return d
	}
	d.Recommended = RecommendFor(found, explicitCap, period)
	if d.Recommended > 0 && acceptRecommended {
		d.Limit = d.Recommended
		d.Applied = true
	}
	return d
}
