package resolver

import (
	"strings"
	"testing"

	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// sequentialIDs is a deterministic IDGenerator for tests: no randomness, no
// wall-clock, just an incrementing counter.
type sequentialIDs struct{ n int }

func (s *sequentialIDs) NextUnitID() string {
	s.n++
	return "unit-" + itoa(s.n)
}

func (s *sequentialIDs) NextInstanceID() string {
	s.n++
	return "inst-" + itoa(s.n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func singleCivTheme() *theme.ThemePackage {
	return &theme.ThemePackage{
		ID: "t1",
		Civilizations: []theme.CivilizationDef{
			{ID: "civ-a", StartingResources: map[string]int{"dinars": 100}},
		},
	}
}

func gsFromTheme(th *theme.ThemePackage) *state.GameState {
	gs := &state.GameState{Map: state.NewMap(2, 2), Turn: 1, Config: state.GameConfig{AllowAIGovernor: false}}
	for _, cd := range th.Civilizations {
		civ := state.NewCivilizationState(cd.ID)
		for res, amt := range cd.StartingResources {
			civ.Resources[res] = amt
		}
		gs.AddCivilization(civ)
	}
	return gs
}

// --- Seed scenario 1: empty-state identity ---

func TestEmptyStateIdentity(t *testing.T) {
	th := singleCivTheme()
	gs := gsFromTheme(th)
	p := prng.New(42)
	ids := &sequentialIDs{}

	result := ResolveTurn(gs, nil, th, p, "2026-01-01T00:00:00Z", ids)

	if result.State.Turn != gs.Turn+1 {
		t.Fatalf("expected turn to advance by 1, got %d from %d", result.State.Turn, gs.Turn)
	}
	if result.State.Civilizations["civ-a"].Resources["dinars"] != 100 {
		t.Fatalf("expected resources unchanged, got %d", result.State.Civilizations["civ-a"].Resources["dinars"])
	}
	for _, l := range result.Logs {
		if len(l) >= 7 && l[:7] == "combat:" {
			t.Fatalf("expected no combat logs, got %q", l)
		}
	}
}

// --- Seed scenario 2: build + deduct ---

func TestConstructionDeductsCost(t *testing.T) {
	th := singleCivTheme()
	th.Buildings = []theme.BuildingDef{
		{ID: "granary", Cost: 30, MaxPerSettlement: 2},
	}
	gs := gsFromTheme(th)
	coord := hexgrid.Coord{Col: 0, Row: 0}
	gs.Map.Get(coord).ControlledBy = "civ-a"
	gs.Map.Get(coord).Settlement = &state.Settlement{ID: "sett-1"}

	orders := []state.PlayerOrders{{
		CivilizationID: "civ-a",
		Orders: []state.Order{
			{Kind: state.OrderConstruction, SettlementID: "sett-1", BuildingDefinitionID: "granary"},
		},
	}}

	result := ResolveTurn(gs, orders, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	sett := result.State.Map.Get(coord).Settlement
	if sett.BuildingCount("granary") != 1 {
		t.Fatalf("expected granary built, got buildings %v", sett.Buildings)
	}
	if got := result.State.Civilizations["civ-a"].Resources["dinars"]; got != 70 {
		t.Fatalf("expected dinars reduced to 70, got %d", got)
	}

	summary := civSummary(t, result, "civ-a")
	if len(summary.NarrativeLines) == 0 {
		t.Fatalf("expected narrative lines naming civ-a, got none")
	}
	foundBuildLine := false
	foundDeltaLine := false
	for _, l := range summary.NarrativeLines {
		if strings.Contains(l, "built granary") {
			foundBuildLine = true
		}
		if strings.Contains(l, "dinars -30") {
			foundDeltaLine = true
		}
	}
	if !foundBuildLine {
		t.Fatalf("expected a narrative line reporting the construction, got %v", summary.NarrativeLines)
	}
	if !foundDeltaLine {
		t.Fatalf("expected a humanized resource-delta narrative line, got %v", summary.NarrativeLines)
	}
}

// civSummary finds a civ's summary slice in the turn just resolved.
func civSummary(t *testing.T, result Result, civID string) state.CivTurnSummary {
	t.Helper()
	last := result.State.TurnHistory[len(result.State.TurnHistory)-1]
	for _, cs := range last.Civs {
		if cs.CivilizationID == civID {
			return cs
		}
	}
	t.Fatalf("no turn summary found for civ %q", civID)
	return state.CivTurnSummary{}
}

// --- Seed scenario 3: mutual peace ---

func TestMutualPeaceFromWar(t *testing.T) {
	th := &theme.ThemePackage{
		ID: "t1",
		Civilizations: []theme.CivilizationDef{{ID: "civ-a"}, {ID: "civ-b"}},
	}
	gs := gsFromTheme(th)
	state.SetRelationSymmetric(gs.Civilizations, "civ-a", "civ-b", state.RelationWar)

	orders := []state.PlayerOrders{
		{CivilizationID: "civ-a", Orders: []state.Order{{Kind: state.OrderDiplomatic, ActionType: state.ActionProposePeace, TargetCivID: "civ-b"}}},
		{CivilizationID: "civ-b", Orders: []state.Order{{Kind: state.OrderDiplomatic, ActionType: state.ActionProposePeace, TargetCivID: "civ-a"}}},
	}

	result := ResolveTurn(gs, orders, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	a := result.State.Civilizations["civ-a"]
	b := result.State.Civilizations["civ-b"]
	if a.RelationWith("civ-b") != state.RelationPeace || b.RelationWith("civ-a") != state.RelationPeace {
		t.Fatalf("expected mutual peace, got a->b=%s b->a=%s", a.RelationWith("civ-b"), b.RelationWith("civ-a"))
	}
}

// --- Seed scenario 4: war cascade ---

func TestWarCascadeThroughAlliance(t *testing.T) {
	th := &theme.ThemePackage{
		ID: "t1",
		Civilizations: []theme.CivilizationDef{{ID: "civ-a"}, {ID: "civ-b"}, {ID: "civ-c"}},
	}
	gs := gsFromTheme(th)
	state.SetRelationSymmetric(gs.Civilizations, "civ-b", "civ-c", state.RelationAlliance)

	orders := []state.PlayerOrders{
		{CivilizationID: "civ-a", Orders: []state.Order{{Kind: state.OrderDiplomatic, ActionType: state.ActionDeclareWar, TargetCivID: "civ-b"}}},
	}

	result := ResolveTurn(gs, orders, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	a := result.State.Civilizations["civ-a"]
	if !a.AtWarWith("civ-b") {
		t.Fatalf("expected civ-a at war with civ-b")
	}
	if !a.AtWarWith("civ-c") {
		t.Fatalf("expected war cascade to pull civ-c into war with civ-a")
	}
}

// --- Seed scenario 5: overwhelming combat ---

func TestOverwhelmingCombatDestroysDefender(t *testing.T) {
	th := &theme.ThemePackage{
		ID:            "t1",
		Civilizations: []theme.CivilizationDef{{ID: "attacker"}, {ID: "defender"}},
		Units:         []theme.UnitDef{{ID: "warrior", Strength: 100, Morale: 5, Moves: 1}},
	}
	gs := gsFromTheme(th)

	battleHex := hexgrid.Coord{Col: 0, Row: 0}
	gs.Map.Get(battleHex).ControlledBy = "defender"
	gs.Map.Get(battleHex).Units = []state.Unit{
		{ID: "att-1", DefinitionID: "warrior", CivilizationID: "attacker", Strength: 100, Morale: 5},
		{ID: "def-1", DefinitionID: "warrior", CivilizationID: "defender", Strength: 1, Morale: 5},
	}
	state.SetRelationSymmetric(gs.Civilizations, "attacker", "defender", state.RelationWar)

	result := ResolveTurn(gs, nil, th, prng.New(42), "2026-01-01T00:00:00Z", &sequentialIDs{})

	h := result.State.Map.Get(battleHex)
	for _, u := range h.Units {
		if u.CivilizationID == "defender" {
			t.Fatalf("expected defender units destroyed, found %+v", u)
		}
	}
	for _, u := range h.Units {
		if u.ID == "att-1" && u.Strength != 85 {
			t.Fatalf("expected attacker to lose floor(100*0.15)=15 strength, got %d remaining", u.Strength)
		}
	}
}

// --- Seed scenario 6: tech completion triggers event ---

func TestTechCompletionTriggersEvent(t *testing.T) {
	th := &theme.ThemePackage{
		ID:            "t1",
		Civilizations: []theme.CivilizationDef{{ID: "civ-a"}},
		Techs: []theme.TechDef{
			{
				ID:   "poet-kings",
				Cost: 10,
				Effects: []theme.TechEffect{
					{Kind: theme.TechCustom, Custom: &theme.CustomPayload{Key: "trigger_event", Value: "golden-age"}},
				},
			},
		},
		Events: []theme.EventDef{
			{ID: "golden-age", Trigger: theme.EventTrigger{Kind: theme.TriggerAlways}, Targeting: theme.TargetAll, DefaultChoiceID: "accept",
				Choices: []theme.EventChoice{{ID: "accept"}}},
		},
	}
	gs := gsFromTheme(th)

	orders := []state.PlayerOrders{{
		CivilizationID: "civ-a",
		Orders: []state.Order{
			{Kind: state.OrderResearch, TechID: "poet-kings", PointsAllocated: 10},
		},
	}}

	result := ResolveTurn(gs, orders, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	found := false
	for _, ae := range result.State.ActiveEvents {
		if ae.DefinitionID == "golden-age" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected golden-age event instance after poet-kings completes, got %+v", result.State.ActiveEvents)
	}
	if !result.State.Civilizations["civ-a"].HasCompletedTech("poet-kings") {
		t.Fatalf("expected poet-kings marked completed")
	}

	summary := civSummary(t, result, "civ-a")
	activatedFound := false
	for _, id := range summary.ActivatedEvents {
		if id == "golden-age" {
			activatedFound = true
		}
	}
	if !activatedFound {
		t.Fatalf("expected civ-a's summary to list golden-age among activatedEvents, got %v", summary.ActivatedEvents)
	}
}

// --- General pipeline invariants ---

func TestTurnAdvancesByExactlyOne(t *testing.T) {
	th := singleCivTheme()
	gs := gsFromTheme(th)
	gs.Turn = 7

	result := ResolveTurn(gs, nil, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	if result.State.Turn != 8 {
		t.Fatalf("expected turn 8, got %d", result.State.Turn)
	}
}

func TestResolveTurnDoesNotMutateInput(t *testing.T) {
	th := singleCivTheme()
	gs := gsFromTheme(th)

	ResolveTurn(gs, nil, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	if gs.Turn != 1 {
		t.Fatalf("expected input state untouched, got turn %d", gs.Turn)
	}
}

func TestPRNGStatePersistedAndDeterministic(t *testing.T) {
	th := singleCivTheme()

	gs1 := gsFromTheme(th)
	result1 := ResolveTurn(gs1, nil, th, prng.New(42), "2026-01-01T00:00:00Z", &sequentialIDs{})

	gs2 := gsFromTheme(th)
	result2 := ResolveTurn(gs2, nil, th, prng.New(42), "2026-01-01T00:00:00Z", &sequentialIDs{})

	if result1.State.RNGState != result2.State.RNGState {
		t.Fatalf("expected deterministic RNG state across identical invocations")
	}
}

func TestMovesResetEachTurn(t *testing.T) {
	th := &theme.ThemePackage{
		ID:            "t1",
		Civilizations: []theme.CivilizationDef{{ID: "civ-a"}},
		Units:         []theme.UnitDef{{ID: "scout", Strength: 5, Morale: 5, Moves: 3}},
	}
	gs := gsFromTheme(th)
	coord := hexgrid.Coord{Col: 0, Row: 0}
	gs.Map.Get(coord).Units = []state.Unit{
		{ID: "u1", DefinitionID: "scout", CivilizationID: "civ-a", Strength: 5, Morale: 5, MovesRemaining: 0},
	}

	result := ResolveTurn(gs, nil, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	u := result.State.Map.Get(coord).Units[0]
	if u.MovesRemaining != 3 {
		t.Fatalf("expected moves reset to definition max 3, got %d", u.MovesRemaining)
	}
}

func TestResourcesNeverNegative(t *testing.T) {
	th := singleCivTheme()
	th.Buildings = []theme.BuildingDef{{ID: "granary", Cost: 10000, MaxPerSettlement: 1}}
	gs := gsFromTheme(th)
	coord := hexgrid.Coord{Col: 0, Row: 0}
	gs.Map.Get(coord).ControlledBy = "civ-a"
	gs.Map.Get(coord).Settlement = &state.Settlement{ID: "sett-1"}

	orders := []state.PlayerOrders{{
		CivilizationID: "civ-a",
		Orders: []state.Order{
			{Kind: state.OrderConstruction, SettlementID: "sett-1", BuildingDefinitionID: "granary"},
		},
	}}

	result := ResolveTurn(gs, orders, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	if got := result.State.Civilizations["civ-a"].Resources["dinars"]; got < 0 {
		t.Fatalf("resources must never go negative, got %d", got)
	}
	if result.State.Map.Get(coord).Settlement.BuildingCount("granary") != 0 {
		t.Fatalf("expected unaffordable construction to be rejected")
	}
}

func TestMaxPerSettlementRespected(t *testing.T) {
	th := singleCivTheme()
	th.Civilizations[0].StartingResources["dinars"] = 1000
	th.Buildings = []theme.BuildingDef{{ID: "granary", Cost: 10, MaxPerSettlement: 1}}
	gs := gsFromTheme(th)
	coord := hexgrid.Coord{Col: 0, Row: 0}
	gs.Map.Get(coord).ControlledBy = "civ-a"
	gs.Map.Get(coord).Settlement = &state.Settlement{ID: "sett-1", Buildings: []string{"granary"}}

	orders := []state.PlayerOrders{{
		CivilizationID: "civ-a",
		Orders: []state.Order{
			{Kind: state.OrderConstruction, SettlementID: "sett-1", BuildingDefinitionID: "granary"},
		},
	}}

	result := ResolveTurn(gs, orders, th, prng.New(1), "2026-01-01T00:00:00Z", &sequentialIDs{})

	if result.State.Map.Get(coord).Settlement.BuildingCount("granary") != 1 {
		t.Fatalf("expected maxPerSettlement to block a second granary, got count %d",
			result.State.Map.Get(coord).Settlement.BuildingCount("granary"))
	}
}
