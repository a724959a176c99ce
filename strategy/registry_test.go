package strategy

import (
	"testing"

	"github.com/hupe1980/negomesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const poolYAML = `
strategies:
  - strategy_id: anchoring_high
    name: Ambitious anchor
    category: opening
    summary: Open with an ambitious but defensible number.
    goal: Set the reference point first.
    preferred_actions: [PROPOSE_OFFER]
  - strategy_id: rent_comparables
    name: Rent comparables
    category: framing
    summary: Cite comparable listings in the same neighborhood.
    domains: [RENT_HOUSING]
`

func TestLoadYAML(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadYAML([]byte(poolYAML)))

	assert.Len(t, r.List(), 2)

	s, ok := r.Get("anchoring_high")
	require.True(t, ok)
	assert.Equal(t, "Ambitious anchor", s.Name)
	assert.Equal(t, []core.ActionType{core.ActionProposeOffer}, s.PreferredActions)
}

func TestLoadYAMLInvalid(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.LoadYAML([]byte("strategies: {not: a list}")))
}

func TestRegisterReplacesByID(t *testing.T) {
	r := NewRegistry(Strategy{StrategyID: "a", Name: "old", Summary: "s"})
	require.NoError(t, r.Register(Strategy{StrategyID: "a", Name: "new", Summary: "s"}))

	assert.Len(t, r.List(), 1)
	s, _ := r.Get("a")
	assert.Equal(t, "new", s.Name)

	assert.Error(t, r.Register(Strategy{Name: "no id"}))
}

func TestDomainFiltering(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadYAML([]byte(poolYAML)))

	general := r.Sample(1, core.DomainJobOfferComp, 10)
	require.Len(t, general, 1)
	assert.Equal(t, "anchoring_high", general[0].StrategyID)

	housing := r.Sample(1, core.DomainRentHousing, 10)
	assert.Len(t, housing, 2)
}

func TestSampleIsDeterministic(t *testing.T) {
	r := DefaultPool()

	a := r.Sample(42, core.DomainGeneral, DefaultSampleSize)
	b := r.Sample(42, core.DomainGeneral, DefaultSampleSize)
	require.Len(t, a, DefaultSampleSize)
	assert.Equal(t, a, b)

	c := r.Sample(43, core.DomainGeneral, DefaultSampleSize)
	assert.Len(t, c, DefaultSampleSize)
}

func TestSampleClampsToPoolSize(t *testing.T) {
	r := NewRegistry(Strategy{StrategyID: "only", Name: "Only", Summary: "s"})
	got := r.Sample(7, core.DomainGeneral, DefaultSampleSize)
	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].StrategyID)
}
