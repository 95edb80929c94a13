package planner

import (
	"github.com/shopspring/decimal"

	"github.com/fernhill-care/rostermatch/pkg/core/model"
)

// PriorityTier is the explicit ordering class for a care requirement.
// Higher tiers sort first.
type PriorityTier int

const (
	// TierNormal covers requirements below the high-volume threshold
	TierNormal PriorityTier = iota

	// TierHighVolume covers requirements with at least ten remaining hours
	TierHighVolume

	// TierDangerous covers patients carrying a dangerous-behaviour risk
	// flag; these outrank everything else.
	TierDangerous
)

// highVolumeThreshold is the remaining-hours floor for TierHighVolume
var highVolumeThreshold = decimal.NewFromInt(10)

// priorityOrder ranks care requirements. Tie-break rules are named here so
// ordering is testable: tier descending, remaining hours descending, patient
// ID ascending.
type priorityOrder struct {
	dangerousFlags map[string]bool
}

func newPriorityOrder(dangerousFlags []string) priorityOrder {
	flags := make(map[string]bool, len(dangerousFlags))
	for _, f := range dangerousFlags {
		flags[f] = true
	}
	return priorityOrder{dangerousFlags: flags}
}

// Tier returns the requirement's priority tier
func (o priorityOrder) Tier(r *model.CareRequirement) PriorityTier {
	for _, flag := range r.RiskFlags {
		if o.dangerousFlags[flag] {
			return TierDangerous
		}
	}
	if r.RemainingHours().GreaterThanOrEqual(highVolumeThreshold) {
		return TierHighVolume
	}
	return TierNormal
}

// Less reports whether a sorts before b
func (o priorityOrder) Less(a, b *model.CareRequirement) bool {
	tierA, tierB := o.Tier(a), o.Tier(b)
	if tierA != tierB {
		return tierA > tierB
	}
	if cmp := a.RemainingHours().Cmp(b.RemainingHours()); cmp != 0 {
		return cmp > 0
	}
	return a.PatientID < b.PatientID
}
