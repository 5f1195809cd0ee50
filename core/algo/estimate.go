// Package algo holds the pure time-cost estimator and comparator.
package algo

import (
	"math"

	"github.com/huangsam/shiptalkers/schema"
)

// Estimate converts one member's activity counters into an estimated number of
// seconds spent messaging. Weights missing from the table count as zero.
//
//	seconds = messages*W_MESSAGE + reactions*W_REACTION
//	        + desktop_days*60*MIN_PER_DESKTOP_DAY
//	        + (android_days+ios_days)*60*MIN_PER_MOBILE_DAY
func Estimate(activity schema.MemberActivity, weights map[schema.WeightKey]float64) schema.TimeEstimate {
	breakdown := EstimateBreakdown(activity, weights)
	var total float64
	for _, key := range schema.AllWeightKeys {
		total += breakdown[key]
	}
	return schema.TimeEstimate{EstimatedSeconds: int64(math.Floor(total))}
}

// EstimateBreakdown returns the seconds contributed by each weighted term.
func EstimateBreakdown(activity schema.MemberActivity, weights map[schema.WeightKey]float64) map[schema.WeightKey]float64 {
	mobileDays := activity.DaysActiveAndroid + activity.DaysActiveIOS
	return map[schema.WeightKey]float64{
		schema.WeightMessage:           float64(activity.MessagesPosted) * weights[schema.WeightMessage],
		schema.WeightReaction:          float64(activity.ReactionsAdded) * weights[schema.WeightReaction],
		schema.WeightDesktopDayMinutes: float64(activity.DaysActiveDesktop) * schema.SecondsPerMinute * weights[schema.WeightDesktopDayMinutes],
		schema.WeightMobileDayMinutes:  float64(mobileDays) * schema.SecondsPerMinute * weights[schema.WeightMobileDayMinutes],
	}
}
