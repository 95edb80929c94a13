package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

func TestRequiredService_RemainingNeverNegative(t *testing.T) {
	svc := RequiredService{
		Required:  decimal.NewFromInt(3),
		Scheduled: decimal.NewFromInt(5),
	}
	assert.True(t, svc.Remaining().IsZero())
	assert.False(t, svc.HasUnscheduled())
}

func TestRequiredService_Remaining(t *testing.T) {
	svc := RequiredService{
		Required:  decimal.NewFromFloat(3.5),
		Scheduled: decimal.NewFromInt(2),
	}
	assert.True(t, svc.Remaining().Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, svc.HasUnscheduled())
}

func TestCareRequirement_RemainingHoursOnlyHourUnits(t *testing.T) {
	req := CareRequirement{Services: []RequiredService{
		{Unit: db.UnitHours, Required: decimal.NewFromInt(4), Scheduled: decimal.NewFromInt(1)},
		{Unit: db.UnitVisits, Required: decimal.NewFromInt(3), Scheduled: decimal.Zero},
	}}
	assert.True(t, req.RemainingHours().Equal(decimal.NewFromInt(3)))
	assert.True(t, req.HasUnscheduledNeeds())
}

func TestStatusForScore_Boundaries(t *testing.T) {
	tests := []struct {
		total float64
		want  MatchStatus
	}{
		{100, MatchStrong},
		{80, MatchStrong},
		{79.9, MatchModerate},
		{60, MatchModerate},
		{59.9, MatchWeak},
		{40, MatchWeak},
		{39.9, MatchNone},
		{0, MatchNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForScore(tt.total), "total %.1f", tt.total)
	}
}

func TestMatchStatus_TierOrdering(t *testing.T) {
	assert.Greater(t, MatchStrong.Tier(), MatchModerate.Tier())
	assert.Greater(t, MatchModerate.Tier(), MatchWeak.Tier())
	assert.Greater(t, MatchWeak.Tier(), MatchNone.Tier())
}

func TestScoreBreakdown_TotalAndComponent(t *testing.T) {
	b := ScoreBreakdown{Components: []ScoreComponent{
		{Name: "capacity", Score: 25, Max: 25},
		{Name: "continuity", Score: 13, Max: 20},
		{Name: "travel", Score: 14, Max: 20},
	}}

	assert.Equal(t, 52.0, b.Total())
	assert.Equal(t, MatchWeak, b.Status())

	c := b.Component("continuity")
	assert.NotNil(t, c)
	assert.Equal(t, 13.0, c.Score)
	assert.Nil(t, b.Component("missing"))
}

func TestRoleName_Fallback(t *testing.T) {
	assert.Equal(t, "Registered Nurse", RoleName("RN"))
	assert.Equal(t, "XYZ", RoleName("XYZ"))
}

func TestEmploymentTypeName_Fallback(t *testing.T) {
	assert.Equal(t, "Full-time", EmploymentTypeName("FT"))
	assert.Equal(t, "ZZ", EmploymentTypeName("ZZ"))
}
