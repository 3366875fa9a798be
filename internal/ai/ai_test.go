package ai

import (
	"testing"

	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

func militaryTheme() *theme.ThemePackage {
	return &theme.ThemePackage{
		ID: "t1",
		Civilizations: []theme.CivilizationDef{
			{ID: "spartans", SpecialAbilities: []string{"Military conquest tradition"}},
		},
		Units: []theme.UnitDef{
			{ID: "warrior", Strength: 5, Morale: 5, Moves: 2, Cost: 10},
		},
	}
}

func gsWithCapital(civID string) *state.GameState {
	m := state.NewMap(3, 3)
	coord := hexgrid.Coord{Col: 1, Row: 1}
	m.Get(coord).Settlement = &state.Settlement{ID: "cap", IsCapital: true}
	m.Get(coord).ControlledBy = civID
	gs := &state.GameState{Map: m}
	civ := state.NewCivilizationState(civID)
	civ.Resources["dinars"] = 100
	gs.AddCivilization(civ)
	return gs
}

func TestInfersMilitaryPersonalityAndGarrisons(t *testing.T) {
	gs := gsWithCapital("spartans")
	unitCoord := hexgrid.Coord{Col: 0, Row: 0}
	gs.Map.Get(unitCoord).Units = append(gs.Map.Get(unitCoord).Units, state.Unit{
		ID: "u1", DefinitionID: "warrior", CivilizationID: "spartans", Strength: 5, Morale: 5, MovesRemaining: 2,
	})
	th := militaryTheme()
	idx := theme.BuildIndex(th)

	orders := GenerateOrders(gs, "spartans", th, idx, prng.New(1), "2026-01-01T00:00:00Z")

	foundGarrisonMove := false
	for _, o := range orders.Orders {
		if o.Kind == state.OrderMove && o.UnitID == "u1" {
			foundGarrisonMove = true
		}
	}
	if !foundGarrisonMove {
		t.Fatalf("expected a garrison move order for the idle unit, got %+v", orders.Orders)
	}
}

func TestRecruitsWhenBelowThreshold(t *testing.T) {
	gs := gsWithCapital("spartans")
	th := militaryTheme()
	idx := theme.BuildIndex(th)

	orders := GenerateOrders(gs, "spartans", th, idx, prng.New(1), "2026-01-01T00:00:00Z")

	foundRecruit := false
	for _, o := range orders.Orders {
		if o.Kind == state.OrderRecruit {
			foundRecruit = true
		}
	}
	if !foundRecruit {
		t.Fatalf("expected a recruit order when unit count is below threshold, got %+v", orders.Orders)
	}
}

func TestMuwardiOnlyEmitsMoveOrders(t *testing.T) {
	gs := gsWithCapital("rashidun")
	unitCoord := hexgrid.Coord{Col: 0, Row: 0}
	gs.Map.Get(unitCoord).Units = append(gs.Map.Get(unitCoord).Units, state.Unit{
		ID: "mw-1", DefinitionID: "raider", CivilizationID: "muwardi", Strength: 5, Morale: 5, MovesRemaining: 3,
	})
	th := &theme.ThemePackage{ID: "t1"}
	idx := theme.BuildIndex(th)

	orders := GenerateOrders(gs, "muwardi", th, idx, prng.New(1), "2026-01-01T00:00:00Z")

	for _, o := range orders.Orders {
		if o.Kind != state.OrderMove {
			t.Fatalf("expected only move orders from muwardi AI, got %v", o.Kind)
		}
	}
}

func TestPacifistNeverAttacks(t *testing.T) {
	gs := gsWithCapital("quakers")
	th := &theme.ThemePackage{
		ID:            "t1",
		Civilizations: []theme.CivilizationDef{{ID: "quakers", SpecialAbilities: []string{"Pacifist tradition"}}},
	}
	idx := theme.BuildIndex(th)

	// Place an enemy-at-war unit on the map.
	enemyCoord := hexgrid.Coord{Col: 2, Row: 2}
	gs.Map.Get(enemyCoord).Units = append(gs.Map.Get(enemyCoord).Units, state.Unit{
		ID: "e1", DefinitionID: "raider", CivilizationID: "enemy", Strength: 5, Morale: 5,
	})
	civ := state.NewCivilizationState("enemy")
	gs.AddCivilization(civ)
	state.SetRelationSymmetric(gs.Civilizations, "quakers", "enemy", state.RelationWar)

	orders := GenerateOrders(gs, "quakers", th, idx, prng.New(1), "2026-01-01T00:00:00Z")
	for _, o := range orders.Orders {
		if o.Kind == state.OrderDiplomatic && o.ActionType == state.ActionDeclareWar {
			t.Fatalf("expected pacifist to never declare war")
		}
	}
}
