package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	plan := Find("team")
	require.NotNil(t, plan)
	assert.Equal(t, "Team", plan.Name)
	assert.Equal(t, float64(79), plan.Monthly)
	assert.Equal(t, float64(790), plan.Annual)

	assert.Nil(t, Find("gold"))
	assert.Nil(t, Find(""))
}

func TestNormalizeInterval(t *testing.T) {
	assert.Equal(t, "annual", NormalizeInterval("annual"))
	assert.Equal(t, "monthly", NormalizeInterval("monthly"))
	assert.Equal(t, "monthly", NormalizeInterval("yearly"))
	assert.Equal(t, "monthly", NormalizeInterval(""))
}

func TestPrice(t *testing.T) {
	plan := Find("starter")
	require.NotNil(t, plan)
	assert.Equal(t, float64(19), plan.Price("monthly"))
	assert.Equal(t, float64(190), plan.Price("annual"))
}

func TestGetEntitlements(t *testing.T) {
	team := GetEntitlements("team")
	require.NotNil(t, team.MaxAPIKeys)
	assert.Equal(t, 10, *team.MaxAPIKeys)
	assert.Equal(t, 25, *team.MaxProjects)
	assert.Equal(t, 200_000, *team.MaxWriteBytes)

	enterprise := GetEntitlements("enterprise")
	assert.Nil(t, enterprise.MaxAPIKeys, "enterprise is unlimited")
	assert.Nil(t, enterprise.MaxProjects)
	assert.Nil(t, enterprise.MaxWriteBytes)

	fallback := GetEntitlements("unknown")
	assert.Equal(t, DefaultPlanID, fallback.PlanID)
	require.NotNil(t, fallback.MaxAPIKeys)
	assert.Equal(t, 3, *fallback.MaxAPIKeys)
}
