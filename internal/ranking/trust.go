package ranking

import (
	"math"
	"time"
)

// Trust model weights. Creator standing and engagement count equally and
// twice as much as freshness.
const (
	ReputationWeight = 0.4
	EngagementWeight = 0.4
	FreshnessWeight  = 0.2

	// FreshnessWindowDays is the number of days over which freshness decays.
	FreshnessWindowDays = 30.0

	// FreshnessFloor is the lowest freshness any content can have.
	FreshnessFloor = 0.5

	// EngagementSaturation is the upvote/view ratio at which engagement maxes out.
	EngagementSaturation = 0.1
)

// Freshness decays linearly from 1 to FreshnessFloor over the freshness
// window and stays at the floor afterwards.
func Freshness(ageInDays float64) float64 {
	return math.Max(FreshnessFloor, 1-ageInDays/FreshnessWindowDays)
}

// Engagement is the upvote/view ratio normalized so that reaching
// EngagementSaturation scores 1.
func Engagement(upvotes int, totalViews float64) float64 {
	if upvotes <= 0 || totalViews <= 0 {
		return 0
	}
	return math.Min(1, float64(upvotes)/(totalViews*EngagementSaturation))
}

// TrustScore combines creator reputation (0-1), engagement and freshness into
// a score that is nominally 0-100. It is not clamped: a reputation above 1
// yields a score above 100.
func TrustScore(creatorReputation float64, upvotes int, totalViews float64, ageInDays float64) float64 {
	return (creatorReputation*ReputationWeight +
		Engagement(upvotes, totalViews)*EngagementWeight +
		Freshness(ageInDays)*FreshnessWeight) * 100
}

// AgeInDays returns the fractional number of days between created and now.
// A zero created time counts as "now" and future timestamps clamp to 0, so a
// missing or skewed timestamp never pushes freshness outside its range.
func AgeInDays(created, now time.Time) float64 {
	if created.IsZero() {
		return 0
	}
	age := now.Sub(created).Hours() / 24
	if age < 0 {
		return 0
	}
	return age
}
