package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

func TestCapacityComponent(t *testing.T) {
	staff := db.Staff{MaxWeeklyHours: 40}

	tests := []struct {
		name      string
		scheduled float64
		want      float64
	}{
		{"idle staff gets full weight", 0, 25},
		{"20-30% buffer", 29, 22.5},
		{"10-20% buffer", 33, 17.5},
		{"thin buffer", 37, 12.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := capacityComponent(staff, tt.scheduled, 1)
			assert.InDelta(t, tt.want, c.Score, 0.001)
		})
	}
}

func TestCapacityComponent_Insufficient(t *testing.T) {
	staff := db.Staff{MaxWeeklyHours: 10}
	c := capacityComponent(staff, 9.5, 1)
	assert.Equal(t, 0.0, c.Score)
	assert.Contains(t, c.Note, "insufficient weekly hours")
}

func TestContinuityComponent(t *testing.T) {
	c := continuityComponent(5)
	assert.InDelta(t, 12, c.Score, 0.001)
	assert.Contains(t, c.Note, "5 completed visits")
	assert.Contains(t, c.Note, "regular caregiver")

	c = continuityComponent(1)
	assert.InDelta(t, 2, c.Score, 0.001)
	assert.NotContains(t, c.Note, "regular caregiver")

	c = continuityComponent(0)
	assert.Equal(t, 0.0, c.Score)
}

func TestRegionComponent(t *testing.T) {
	same := regionComponent(db.Staff{Region: "north"}, db.Patient{Region: "north"})
	assert.Equal(t, 10.0, same.Score)

	unknown := regionComponent(db.Staff{}, db.Patient{Region: "north"})
	assert.Equal(t, 5.0, unknown.Score)

	different := regionComponent(db.Staff{Region: "south"}, db.Patient{Region: "north"})
	assert.Equal(t, 0.0, different.Score)
}

func TestRoleComponent(t *testing.T) {
	mappings := []db.RoleMapping{
		{RoleCode: "RN", Primary: true},
		{RoleCode: "LPN"},
	}

	primary := roleComponent(db.Staff{RoleCode: "RN"}, mappings)
	assert.Equal(t, 10.0, primary.Score)

	secondary := roleComponent(db.Staff{RoleCode: "LPN"}, mappings)
	assert.InDelta(t, 6, secondary.Score, 0.001)

	unmapped := roleComponent(db.Staff{RoleCode: "PSW"}, mappings)
	assert.Equal(t, 0.0, unmapped.Score)

	roleless := roleComponent(db.Staff{}, mappings)
	assert.Equal(t, 0.0, roleless.Score)
}

func TestWorkloadComponent(t *testing.T) {
	staff := db.Staff{MaxWeeklyHours: 40}

	tests := []struct {
		name      string
		scheduled float64
		want      float64
	}{
		{"sweet spot", 24, 10},
		{"underutilized", 12, 8},
		{"busy", 30, 7},
		{"overloaded", 36, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := workloadComponent(staff, tt.scheduled)
			assert.InDelta(t, tt.want, c.Score, 0.001)
		})
	}
}

func TestWorkloadComponent_NoMaxHours(t *testing.T) {
	c := workloadComponent(db.Staff{}, 0)
	assert.InDelta(t, 4, c.Score, 0.001, "unknown capacity reads as fully utilized")
}
