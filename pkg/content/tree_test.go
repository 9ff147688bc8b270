package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

func buildHospital(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree("hospital", "버려진 병원")
	_, err := tree.Add("hospital", Node{ID: "lobby", Name: "로비"})
	require.NoError(t, err)
	_, err = tree.Add("lobby", Node{
		ID:        "ward_b",
		Name:      "B 병동",
		Condition: "trigger:power_on",
		Items: []Item{{
			Name: "침대",
			Type: TypeInvestigation,
			Variants: []Variant{
				{Order: 2, Success: "late"},
				{Order: 1, Success: "early"},
				{Success: "unnumbered"},
			},
		}},
	})
	require.NoError(t, err)
	_, err = tree.Add("hospital", Node{ID: "yard", Name: "마당"})
	require.NoError(t, err)
	return tree
}

func TestTree_Structure(t *testing.T) {
	tree := buildHospital(t)

	assert.Equal(t, 4, tree.Len())
	assert.Equal(t, KindCategory, tree.Root().Kind)

	children := tree.Children("hospital")
	require.Len(t, children, 2)
	assert.Equal(t, "lobby", children[0].ID)
	assert.Equal(t, "yard", children[1].ID)

	parent, ok := tree.Parent("ward_b")
	require.True(t, ok)
	assert.Equal(t, "lobby", parent.ID)

	_, ok = tree.Parent("hospital")
	assert.False(t, ok)

	var ids []string
	for _, n := range tree.Path("ward_b") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"hospital", "lobby", "ward_b"}, ids)
}

func TestTree_ItemDefaultsAndVariantOrder(t *testing.T) {
	tree := buildHospital(t)

	_, item, err := tree.Item("ward_b", "ward_b/침대")
	require.NoError(t, err)

	var got []string
	for _, v := range item.Variants {
		got = append(got, v.Success)
	}
	// the unnumbered third variant takes Order 3
	assert.Equal(t, []string{"early", "late", "unnumbered"}, got)

	v, ok := item.Variant(2)
	require.True(t, ok)
	assert.Equal(t, "late", v.Success)
}

func TestTree_Errors(t *testing.T) {
	tree := buildHospital(t)

	_, err := tree.Node("morgue")
	assert.True(t, errors.Is(err, engineerr.ErrContentNotFound))

	_, _, err = tree.Item("lobby", "lobby/nothing")
	assert.True(t, errors.Is(err, engineerr.ErrContentNotFound))

	_, err = tree.Add("morgue", Node{ID: "x"})
	assert.True(t, errors.Is(err, engineerr.ErrContentNotFound))

	_, err = tree.Add("hospital", Node{ID: "lobby"})
	assert.Error(t, err)
}

func TestVariant_Result(t *testing.T) {
	v := Variant{Success: "s", Failure: "f", CritSuccess: "cs"}
	assert.Equal(t, "cs", v.Result(rules.CriticalSuccess))
	assert.Equal(t, "s", v.Result(rules.Success))
	assert.Equal(t, "f", v.Result(rules.Failure))
	assert.Equal(t, "f", v.Result(rules.CriticalFailure))
}

func TestInteractionType(t *testing.T) {
	assert.True(t, TypeAcquire.NeedsRoll())
	assert.False(t, TypeRitual.NeedsRoll())
	assert.False(t, TypeOther.NeedsRoll())
	assert.Equal(t, rules.StatIntelligence, TypeRead.DefaultStat())
	assert.Equal(t, rules.StatPerception, TypeUse.DefaultStat())
}
