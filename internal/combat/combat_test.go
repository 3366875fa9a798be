package combat

import (
	"testing"

	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

func warGameState(attackerStrength, defenderStrength int) *state.GameState {
	m := state.NewMap(3, 3)
	battleHex := hexgrid.Coord{Col: 1, Row: 1}
	capA := hexgrid.Coord{Col: 0, Row: 0}
	capB := hexgrid.Coord{Col: 2, Row: 2}

	m.Get(battleHex).ControlledBy = "defender"
	m.Get(battleHex).Units = []state.Unit{
		{ID: "att-1", DefinitionID: "warrior", CivilizationID: "attacker", Strength: attackerStrength, Morale: 5},
		{ID: "def-1", DefinitionID: "warrior", CivilizationID: "defender", Strength: defenderStrength, Morale: 5},
	}
	m.Get(capA).Settlement = &state.Settlement{ID: "cap-a", IsCapital: true}
	m.Get(capA).ControlledBy = "attacker"
	m.Get(capB).Settlement = &state.Settlement{ID: "cap-b", IsCapital: true}
	m.Get(capB).ControlledBy = "defender"

	gs := &state.GameState{Map: m, Turn: 1}
	attacker := state.NewCivilizationState("attacker")
	defender := state.NewCivilizationState("defender")
	state.SetRelationSymmetric(map[string]*state.CivilizationState{"attacker": attacker, "defender": defender}, "attacker", "defender", state.RelationWar)
	gs.AddCivilization(attacker)
	gs.AddCivilization(defender)
	return gs
}

func TestOverwhelmingAttackerWins(t *testing.T) {
	gs := warGameState(100, 1)
	th := &theme.ThemePackage{}
	idx := theme.BuildIndex(th)
	p := prng.New(42)

	reports, _ := Resolve(gs, th, idx, p)
	if len(reports) != 1 {
		t.Fatalf("expected exactly one combat report, got %d", len(reports))
	}
	r := reports[0]
	if r.Outcome != "attacker" {
		t.Fatalf("expected attacker to win overwhelmingly, got %q", r.Outcome)
	}
	if r.AttackerLosses != 15 {
		t.Fatalf("expected attacker to lose floor(100*0.15)=15, got %d", r.AttackerLosses)
	}
}

func TestDefenderDestroyedWhenOverwhelmed(t *testing.T) {
	gs := warGameState(100, 1)
	th := &theme.ThemePackage{}
	idx := theme.BuildIndex(th)
	p := prng.New(42)

	Resolve(gs, th, idx, p)

	battleHex := gs.Map.Get(hexgrid.Coord{Col: 1, Row: 1})
	if len(battleHex.UnitsOf("defender")) != 0 {
		t.Fatalf("expected defender's single weak unit destroyed")
	}
}

func TestControlTransferToSoleCivAfterCombat(t *testing.T) {
	gs := warGameState(100, 1)
	th := &theme.ThemePackage{}
	idx := theme.BuildIndex(th)
	p := prng.New(1)

	Resolve(gs, th, idx, p)

	battleHex := gs.Map.Get(hexgrid.Coord{Col: 1, Row: 1})
	if battleHex.ControlledBy != "attacker" {
		t.Fatalf("expected sole surviving civ to control the hex, got %q", battleHex.ControlledBy)
	}
}

func TestNoCombatWithoutWar(t *testing.T) {
	gs := warGameState(10, 10)
	gs.Civilizations["attacker"].SetRelation("defender", state.RelationPeace)
	gs.Civilizations["defender"].SetRelation("attacker", state.RelationPeace)
	th := &theme.ThemePackage{}
	idx := theme.BuildIndex(th)
	p := prng.New(7)

	reports, _ := Resolve(gs, th, idx, p)
	if len(reports) != 0 {
		t.Fatalf("expected no combat when no pair is at war, got %d reports", len(reports))
	}
}

func TestDeterministicGivenSameSeed(t *testing.T) {
	gs1 := warGameState(20, 15)
	gs2 := warGameState(20, 15)
	th := &theme.ThemePackage{}
	idx := theme.BuildIndex(th)

	r1, _ := Resolve(gs1, th, idx, prng.New(99))
	r2, _ := Resolve(gs2, th, idx, prng.New(99))

	if r1[0].Outcome != r2[0].Outcome || r1[0].AttackerRoll != r2[0].AttackerRoll {
		t.Fatalf("expected identical outcomes from identical seeds")
	}
}
