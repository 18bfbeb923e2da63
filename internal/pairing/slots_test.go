package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateSlots_SpecialistsClaimRestrictedSlotsFirst(t *testing.T) {
	slots := []Slot{
		{SectionID: "championship", Capacity: 1, RequiredCategory: "championship"},
		{SectionID: "open", Capacity: 1, RequiredCategory: "open"},
	}
	pairs := []Pair{
		eligiblePair("quinn", 110, "championship"),
		eligiblePair("gray", 100, "championship", "open"),
		eligiblePair("zima", 80, "open"),
	}
	rc := testRunContext(DefaultConfig(), Constraints{})

	placed, reserves := allocateSlots(rc, pairs, slots)

	// zima cannot enter the championship section, so it takes the open
	// slot before the stronger gray does; gray is the one squeezed out.
	require.Len(t, placed, 2)
	assert.Equal(t, "quinn", placed[0].Anchor.ID)
	assert.Equal(t, "championship", placed[0].SectionID)
	assert.Equal(t, "zima", placed[1].Anchor.ID)
	assert.Equal(t, "open", placed[1].SectionID)

	require.Len(t, reserves, 1)
	require.NotNil(t, reserves[0].Pair)
	assert.Equal(t, "gray", reserves[0].Pair.Anchor.ID)
	assert.Equal(t, ReasonSlotsFull, reserves[0].Reason)
	assert.Equal(t, 100.0, reserves[0].Value)
}

func TestAllocateSlots_NoEligibleSlot(t *testing.T) {
	slots := []Slot{
		{SectionID: "championship", Capacity: 2, RequiredCategory: "championship"},
	}
	pairs := []Pair{eligiblePair("june", 90, "junior")}
	rc := testRunContext(DefaultConfig(), Constraints{})

	placed, reserves := allocateSlots(rc, pairs, slots)

	assert.Empty(t, placed)
	require.Len(t, reserves, 1)
	assert.Equal(t, ReasonNoEligibleSlot, reserves[0].Reason)
}

func TestAllocateSlots_FillsInDeclarationOrder(t *testing.T) {
	slots := []Slot{
		{SectionID: "flight-a", Capacity: 2},
		{SectionID: "flight-b", Capacity: 2},
	}
	pairs := []Pair{
		eligiblePair("reed", 80),
		eligiblePair("owen", 100),
		eligiblePair("cole", 90),
	}
	rc := testRunContext(DefaultConfig(), Constraints{})

	placed, reserves := allocateSlots(rc, pairs, slots)

	require.Len(t, placed, 3)
	assert.Empty(t, reserves)
	assert.Equal(t, "owen", placed[0].Anchor.ID)
	assert.Equal(t, "flight-a", placed[0].SectionID)
	assert.Equal(t, "cole", placed[1].Anchor.ID)
	assert.Equal(t, "flight-a", placed[1].SectionID)
	assert.Equal(t, "reed", placed[2].Anchor.ID)
	assert.Equal(t, "flight-b", placed[2].SectionID)
}

func TestAllocateSlots_OpenSlotAdmitsRestrictedPairs(t *testing.T) {
	slots := []Slot{
		{SectionID: "flight-a", Capacity: 1},
	}
	pairs := []Pair{eligiblePair("vega", 70, "senior")}
	rc := testRunContext(DefaultConfig(), Constraints{})

	placed, reserves := allocateSlots(rc, pairs, slots)

	require.Len(t, placed, 1)
	assert.Empty(t, reserves)
	assert.Equal(t, "flight-a", placed[0].SectionID)
}

func TestAllocateSlots_OutputGroupedBySection(t *testing.T) {
	slots := []Slot{
		{SectionID: "flight-a", Capacity: 1, RequiredCategory: "championship"},
		{SectionID: "flight-b", Capacity: 2},
	}
	pairs := []Pair{
		eligiblePair("nash", 60),
		eligiblePair("king", 95, "championship"),
		eligiblePair("hart", 85),
	}
	rc := testRunContext(DefaultConfig(), Constraints{})

	placed, _ := allocateSlots(rc, pairs, slots)

	require.Len(t, placed, 3)
	sections := []string{placed[0].SectionID, placed[1].SectionID, placed[2].SectionID}
	assert.Equal(t, []string{"flight-a", "flight-b", "flight-b"}, sections)
	assert.Equal(t, "king", placed[0].Anchor.ID)
	assert.Equal(t, "hart", placed[1].Anchor.ID, "strongest first within a section")
	assert.Equal(t, "nash", placed[2].Anchor.ID)
}

func eligiblePair(anchorID string, value float64, categories ...string) Pair {
	return Pair{
		Anchor:        Candidate{ID: anchorID},
		Partner:       Candidate{ID: anchorID + "-partner"},
		CombinedValue: value,
		Eligibility:   categories,
		Provenance:    ProvenanceAuto,
	}
}
