package economy

import (
	"testing"

	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

func testGameState() (*state.GameState, *theme.ThemePackage, *theme.Index) {
	th := &theme.ThemePackage{
		ID: "t1",
		Civilizations: []theme.CivilizationDef{
			{ID: "rashidun"},
		},
		Resources: []theme.ResourceDef{
			{ID: "dinars", TerrainYields: map[string]float64{"plains": 4, "coast": 2}},
			{ID: "faith", TerrainYields: map[string]float64{"plains": 1}},
		},
		Buildings: []theme.BuildingDef{
			{ID: "market", Upkeep: 1, Effects: []theme.ResourceDelta{{ResourceID: "dinars", Delta: 3}}},
			{ID: "shrine", Upkeep: 0, Effects: []theme.ResourceDelta{{ResourceID: "stability", Delta: 2}}},
		},
		Units: []theme.UnitDef{
			{ID: "warrior", Strength: 5, Morale: 5, Moves: 2, Upkeep: 1},
		},
	}
	idx := theme.BuildIndex(th)

	m := state.NewMap(3, 3)
	capital := hexgrid.Coord{Col: 1, Row: 1}
	m.Get(capital).Terrain = state.TerrainPlains
	m.Get(capital).ControlledBy = "rashidun"
	m.Get(capital).Settlement = &state.Settlement{
		ID:        "cap",
		IsCapital: true,
		Buildings: []string{"market", "shrine"},
	}
	m.Get(capital).Units = append(m.Get(capital).Units, state.Unit{
		ID: "u1", DefinitionID: "warrior", CivilizationID: "rashidun", Strength: 5, Morale: 5,
	})

	gs := &state.GameState{Map: m}
	civ := state.NewCivilizationState("rashidun")
	gs.AddCivilization(civ)

	return gs, th, idx
}

func TestResolveYieldsUpkeepAndBuildingEffects(t *testing.T) {
	gs, th, idx := testGameState()

	_, err := Resolve(gs, th, idx, nil, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	civ := gs.Civilizations["rashidun"]
	// plains yields 4 dinars + market +3 - upkeep(market 1 + warrior 1) = 5
	if got := civ.Resources["dinars"]; got != 5 {
		t.Fatalf("expected 5 dinars, got %d", got)
	}
	if got := civ.Resources["faith"]; got != 1 {
		t.Fatalf("expected 1 faith, got %d", got)
	}
	if civ.Stability != 52 {
		t.Fatalf("expected stability 52 (50 + shrine 2), got %d", civ.Stability)
	}
}

func TestResolveDeterministic(t *testing.T) {
	gs1, th1, idx1 := testGameState()
	gs2, th2, idx2 := testGameState()

	if _, err := Resolve(gs1, th1, idx1, nil, 3); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := Resolve(gs2, th2, idx2, nil, 3); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	c1 := gs1.Civilizations["rashidun"]
	c2 := gs2.Civilizations["rashidun"]
	if c1.Resources["dinars"] != c2.Resources["dinars"] {
		t.Fatalf("identical inputs produced different dinars: %d vs %d", c1.Resources["dinars"], c2.Resources["dinars"])
	}
}

func TestResolveSkipsEliminatedCivs(t *testing.T) {
	gs, th, idx := testGameState()
	gs.Civilizations["rashidun"].IsEliminated = true

	if _, err := Resolve(gs, th, idx, nil, 1); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	civ := gs.Civilizations["rashidun"]
	if civ.Resources["dinars"] != 0 {
		t.Fatalf("expected eliminated civ to be skipped, got %d dinars", civ.Resources["dinars"])
	}
}

func TestResourceInteractionAppliesWithoutConsumingSource(t *testing.T) {
	gs, th, idx := testGameState()
	th.Mechanics.ResourceInteractions = []theme.ResourceInteraction{
		{Source: "faith", Target: "dinars", Multiplier: 2},
	}
	gs.Civilizations["rashidun"].Resources["faith"] = 10

	if _, err := Resolve(gs, th, idx, nil, 1); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	civ := gs.Civilizations["rashidun"]
	if civ.Resources["faith"] < 10 {
		t.Fatalf("expected source faith to not be consumed, got %d", civ.Resources["faith"])
	}
}

func TestAllocationWeightsRescaleYield(t *testing.T) {
	gs, th, idx := testGameState()
	allocations := map[string]map[string]float64{
		"rashidun": {"dinars": 1.0, "faith": 0.0},
	}

	if _, err := Resolve(gs, th, idx, allocations, 1); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	civ := gs.Civilizations["rashidun"]
	if civ.Resources["faith"] != 0 {
		t.Fatalf("expected faith yield suppressed by zero weight, got %d", civ.Resources["faith"])
	}
}

func TestSeasonalMultiplierScalesYield(t *testing.T) {
	gs, th, idx := testGameState()
	th.Mechanics.TurnCycleLength = 1
	th.Mechanics.TurnCycleEffects = []theme.TurnCycleEffect{
		{Phase: 0, ResourceMultipliers: map[string]float64{"dinars": 2}},
	}

	if _, err := Resolve(gs, th, idx, nil, 1); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	civ := gs.Civilizations["rashidun"]
	// plains 4 * 2 mult + market 3 - upkeep 2 = 9
	if civ.Resources["dinars"] != 9 {
		t.Fatalf("expected seasonal multiplier applied, got %d", civ.Resources["dinars"])
	}
}
