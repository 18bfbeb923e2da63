package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPool_TierPriority(t *testing.T) {
	candidates := []Candidate{
		{ID: "carl", Name: "Carl Weth", Value: Float(95), Index: 10.2, Tier: 2},
		{ID: "amy", Name: "Amy Tran", Value: Float(88), Index: 4.1, Tier: 1},
		{ID: "dana", Name: "Dana Fox", Value: Float(60), Index: 18.7, Tier: 2},
		{ID: "ben", Name: "Ben Ochoa", Value: Float(72), Index: 7.9, Tier: 1},
		{ID: "eli", Name: "Eli Marsh", Value: Float(81), Index: 12.4, Tier: 2},
		{ID: "fred", Name: "Fred Quill", Index: 9.3, Tier: 1}, // no score yet
	}

	sel := buildPool(candidates, 4, 6)

	ids := make([]string, len(sel.selected))
	for i, c := range sel.selected {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"amy", "ben", "carl", "eli"}, ids)

	// Ben stays in the pool even though Carl outscores him: a committed
	// member is never truncated in favor of a drop-in.
	assert.Contains(t, ids, "ben")
	assert.NotContains(t, ids, "dana")

	require.Len(t, sel.reserves, 2)
	assert.Equal(t, "dana", sel.reserves[0].CandidateID)
	assert.Equal(t, ReasonBeyondPool, sel.reserves[0].Reason)
	assert.Equal(t, 60.0, sel.reserves[0].Value)
	assert.Equal(t, "fred", sel.reserves[1].CandidateID)
	assert.Equal(t, ReasonUnscored, sel.reserves[1].Reason)

	require.NotNil(t, sel.shortfall)
	assert.Equal(t, 6, sel.shortfall.Required)
	assert.Equal(t, 4, sel.shortfall.Available)
}

func TestBuildPool_ExactFitHasNoReserves(t *testing.T) {
	candidates := []Candidate{
		{ID: "amy", Value: Float(88), Index: 4.1},
		{ID: "ben", Value: Float(72), Index: 7.9},
		{ID: "carl", Value: Float(95), Index: 10.2},
		{ID: "dana", Value: Float(60), Index: 18.7},
	}

	sel := buildPool(candidates, 4, 4)

	assert.Len(t, sel.selected, 4)
	assert.Empty(t, sel.reserves)
	assert.Nil(t, sel.shortfall)
}

func TestBuildPool_ShortRosterIsRecoverable(t *testing.T) {
	candidates := []Candidate{
		{ID: "amy", Value: Float(88), Index: 4.1},
		{ID: "ben", Value: Float(72), Index: 7.9},
		{ID: "carl", Value: Float(95), Index: 10.2},
	}

	sel := buildPool(candidates, 10, 8)

	// Everyone available is selected; the shortfall is reported, not fatal.
	assert.Len(t, sel.selected, 3)
	assert.Empty(t, sel.reserves)
	require.NotNil(t, sel.shortfall)
	assert.Equal(t, 8, sel.shortfall.Required)
	assert.Equal(t, 3, sel.shortfall.Available)
	assert.Contains(t, sel.shortfall.Error(), "need 8")
}

func TestBuildPool_ValueOrderWithinTier(t *testing.T) {
	candidates := []Candidate{
		{ID: "dana", Value: Float(60), Index: 18.7},
		{ID: "carl", Value: Float(95), Index: 10.2},
		{ID: "amy", Value: Float(88), Index: 4.1},
	}

	sel := buildPool(candidates, 2, 2)

	require.Len(t, sel.selected, 2)
	assert.Equal(t, "carl", sel.selected[0].ID)
	assert.Equal(t, "amy", sel.selected[1].ID)
	require.Len(t, sel.reserves, 1)
	assert.Equal(t, "dana", sel.reserves[0].CandidateID)
}

func TestSplitByIndex_MedianWithTies(t *testing.T) {
	pool := []Candidate{
		{ID: "g1", Index: 4.5},
		{ID: "g2", Index: 12.0},
		{ID: "g3", Index: 4.5},
		{ID: "g4", Index: 2.0},
		{ID: "g5", Index: 9.0},
	}

	anchors, partners := splitByIndex(pool)

	require.Len(t, anchors, 3)
	require.Len(t, partners, 2)
	assert.Equal(t, "g4", anchors[0].ID)
	assert.Equal(t, "g1", anchors[1].ID, "index tie breaks by identifier")
	assert.Equal(t, "g3", anchors[2].ID)
	assert.Equal(t, "g5", partners[0].ID)
	assert.Equal(t, "g2", partners[1].ID)

	// The input slice is left untouched.
	assert.Equal(t, "g1", pool[0].ID)
	assert.Equal(t, "g4", pool[3].ID)
}

func TestSplitByIndex_SmallPools(t *testing.T) {
	anchors, partners := splitByIndex(nil)
	assert.Empty(t, anchors)
	assert.Empty(t, partners)

	anchors, partners = splitByIndex([]Candidate{{ID: "solo", Index: 11.0}})
	assert.Len(t, anchors, 1)
	assert.Empty(t, partners)
}
