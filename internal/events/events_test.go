package events

import (
	"testing"

	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

func baseTheme() *theme.ThemePackage {
	return &theme.ThemePackage{
		ID:            "t1",
		Civilizations: []theme.CivilizationDef{{ID: "civ-a"}},
		Events: []theme.EventDef{
			{
				ID:              "drought",
				Trigger:         theme.EventTrigger{Kind: theme.TriggerAlways},
				Targeting:       theme.TargetAll,
				DefaultChoiceID: "accept",
				Choices: []theme.EventChoice{
					{ID: "accept", Effects: []theme.EventEffect{
						{Kind: theme.EventResourceDelta, ResourceID: "grain", Amount: -5},
					}},
				},
			},
		},
	}
}

func newGS() *state.GameState {
	gs := &state.GameState{Map: state.NewMap(2, 2)}
	civ := state.NewCivilizationState("civ-a")
	civ.Resources["grain"] = 10
	gs.AddCivilization(civ)
	return gs
}

func idCounter() func() string {
	n := 0
	return func() string {
		n++
		return "inst-" + string(rune('0'+n))
	}
}

func TestActivationAppliesDefaultChoiceImmediately(t *testing.T) {
	gs := newGS()
	th := baseTheme()
	idx := theme.BuildIndex(th)

	logs := Resolve(gs, th, idx, nil, nil, 1, prng.New(1), idCounter(), idCounter())

	if len(gs.ActiveEvents) != 1 {
		t.Fatalf("expected one activated event, got %d", len(gs.ActiveEvents))
	}
	if !gs.ActiveEvents[0].Resolved {
		t.Fatalf("expected new instance to be resolved")
	}
	if gs.Civilizations["civ-a"].Resources["grain"] != 5 {
		t.Fatalf("expected grain reduced to 5, got %d", gs.Civilizations["civ-a"].Resources["grain"])
	}
	if len(logs) == 0 {
		t.Fatalf("expected an activation log line")
	}
}

func TestNonRepeatableEventDoesNotReactivate(t *testing.T) {
	gs := newGS()
	th := baseTheme()
	idx := theme.BuildIndex(th)
	counter := idCounter()

	Resolve(gs, th, idx, nil, nil, 1, prng.New(1), counter, counter)
	Resolve(gs, th, idx, nil, nil, 2, prng.New(1), counter, counter)

	if len(gs.ActiveEvents) != 1 {
		t.Fatalf("expected non-repeatable event to activate only once, got %d instances", len(gs.ActiveEvents))
	}
}

func TestStaleUnresolvedEventAutoResolves(t *testing.T) {
	gs := newGS()
	th := baseTheme()
	idx := theme.BuildIndex(th)

	gs.ActiveEvents = append(gs.ActiveEvents, state.ActiveEvent{
		InstanceID:            "stale-1",
		DefinitionID:          "drought",
		TargetCivilizationIDs: []string{"civ-a"},
		ActivatedOnTurn:       1,
		Responses:             map[string]string{},
		Resolved:              false,
	})

	Resolve(gs, th, idx, nil, nil, 3, prng.New(1), idCounter(), idCounter())

	for _, ae := range gs.ActiveEvents {
		if ae.InstanceID == "stale-1" && !ae.Resolved {
			t.Fatalf("expected stale event to auto-resolve")
		}
	}
}

func TestResourceDeltaFlooredAtZero(t *testing.T) {
	gs := newGS()
	gs.Civilizations["civ-a"].Resources["grain"] = 2
	th := baseTheme()
	idx := theme.BuildIndex(th)

	Resolve(gs, th, idx, nil, nil, 1, prng.New(1), idCounter(), idCounter())

	if gs.Civilizations["civ-a"].Resources["grain"] != 0 {
		t.Fatalf("expected grain floored at 0, got %d", gs.Civilizations["civ-a"].Resources["grain"])
	}
}
