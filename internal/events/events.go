// Package events resolves the three-step event algorithm each turn:
// applying player responses to events still open from prior turns,
// auto-resolving stale ones with their default choice, and activating new
// instances whose triggers now hold. Grounded on the teacher's
// internal/world/seasons.go trigger-evaluation shape, generalized from
// calendar-driven world events to theme-declared per-civ events
// (spec.md §4.8).
package events

import (
	"fmt"

	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// Resolve runs the three-step event algorithm against gs in place and
// returns narrative log lines. nextInstanceID mints a fresh id for each
// newly activated instance; nextUnitID mints a fresh id for any unit an
// event's choice effects spawn, the same generator every other
// unit-creation path in the resolver uses.
func Resolve(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, orders []state.Order, issuerOf map[int]string, currentTurn int, p *prng.PRNG, nextInstanceID, nextUnitID func() string) []string {
	var logs []string

	logs = append(logs, applyResponses(gs, th, idx, orders, issuerOf, nextUnitID)...)
	logs = append(logs, autoResolveStale(gs, th, idx, currentTurn, nextUnitID)...)
	logs = append(logs, activateEvents(gs, th, idx, currentTurn, p, nextInstanceID, nextUnitID)...)

	return logs
}

// applyResponses applies each event_response order to its matching
// unresolved active event and marks it resolved.
func applyResponses(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, orders []state.Order, issuerOf map[int]string, nextUnitID func() string) []string {
	var logs []string
	for i, o := range orders {
		if o.Kind != state.OrderEventResponse {
			continue
		}
		civID := issuerOf[i]
		for j := range gs.ActiveEvents {
			ae := &gs.ActiveEvents[j]
			if ae.InstanceID != o.EventInstanceID || ae.Resolved {
				continue
			}
			def, ok := idx.Event(ae.DefinitionID)
			if !ok {
				continue
			}
			choice, ok := def.Choice(o.ChoiceID)
			if !ok {
				continue
			}
			if civ, ok := gs.Civilizations[civID]; ok {
				applyEffects(gs, th, idx, civ, choice.Effects, &logs, nextUnitID)
			}
			if ae.Responses == nil {
				ae.Responses = map[string]string{}
			}
			ae.Responses[civID] = o.ChoiceID
			ae.Resolved = true
		}
	}
	return logs
}

// autoResolveStale applies the default choice to every still-unresolved
// event activated on a prior turn.
func autoResolveStale(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, currentTurn int, nextUnitID func() string) []string {
	var logs []string
	for j := range gs.ActiveEvents {
		ae := &gs.ActiveEvents[j]
		if ae.Resolved || ae.ActivatedOnTurn >= currentTurn {
			continue
		}
		def, ok := idx.Event(ae.DefinitionID)
		if !ok {
			ae.Resolved = true
			continue
		}
		choice, ok := def.Choice(def.DefaultChoiceID)
		if !ok {
			ae.Resolved = true
			continue
		}
		for _, civID := range ae.TargetCivilizationIDs {
			civ, ok := gs.Civilizations[civID]
			if !ok {
				continue
			}
			applyEffects(gs, th, idx, civ, choice.Effects, &logs, nextUnitID)
		}
		ae.Resolved = true
	}
	return logs
}

// activateEvents evaluates every event definition's trigger against each
// non-eliminated civ, determines targets, and mints resolved instances
// applying the default choice immediately.
func activateEvents(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, currentTurn int, p *prng.PRNG, nextInstanceID, nextUnitID func() string) []string {
	var logs []string
	activeDefIDs := map[string]bool{}
	for _, ae := range gs.ActiveEvents {
		activeDefIDs[ae.DefinitionID] = true
	}

	for _, def := range th.Events {
		if !def.Repeatable && activeDefIDs[def.ID] {
			continue
		}

		candidates := gs.NonEliminatedCivIDs()
		triggered := make([]string, 0, len(candidates))
		for _, civID := range candidates {
			if evalTrigger(gs, def.Trigger, civID, currentTurn) {
				triggered = append(triggered, civID)
			}
		}
		if len(triggered) == 0 {
			continue
		}

		targets := resolveTargets(def, triggered, p)
		if len(targets) == 0 {
			continue
		}

		choice, ok := def.Choice(def.DefaultChoiceID)
		if !ok {
			continue
		}

		instanceID := nextInstanceID()
		for _, civID := range targets {
			civ, ok := gs.Civilizations[civID]
			if !ok {
				continue
			}
			applyEffects(gs, th, idx, civ, choice.Effects, &logs, nextUnitID)
		}

		var expires *int
		if def.ExpiresAfter > 0 {
			e := currentTurn + def.ExpiresAfter
			expires = &e
		}
		gs.ActiveEvents = append(gs.ActiveEvents, state.ActiveEvent{
			InstanceID:            instanceID,
			DefinitionID:          def.ID,
			TargetCivilizationIDs: targets,
			ActivatedOnTurn:       currentTurn,
			ExpiresOnTurn:         expires,
			Responses:             map[string]string{},
			Resolved:              true,
		})
		activeDefIDs[def.ID] = true
		logs = append(logs, fmt.Sprintf("event: %s activated (%s)", def.ID, instanceID))
	}
	return logs
}

func resolveTargets(def theme.EventDef, candidates []string, p *prng.PRNG) []string {
	switch def.Targeting {
	case theme.TargetAll:
		return candidates
	case theme.TargetRandomOne:
		items := make([]prng.Weighted[string], len(candidates))
		for i, c := range candidates {
			items[i] = prng.Weighted[string]{Value: c, Weight: 1}
		}
		chosen, err := prng.WeightedChoice(p, items)
		if err != nil {
			return nil
		}
		return []string{chosen}
	case theme.TargetExplicit:
		candidateSet := map[string]bool{}
		for _, c := range candidates {
			candidateSet[c] = true
		}
		var out []string
		for _, id := range def.TargetCivIDs {
			if candidateSet[id] {
				out = append(out, id)
			}
		}
		return out
	default:
		return nil
	}
}

func evalTrigger(gs *state.GameState, t theme.EventTrigger, civID string, currentTurn int) bool {
	civ, ok := gs.Civilizations[civID]
	if !ok {
		return false
	}
	switch t.Kind {
	case theme.TriggerAlways:
		return true
	case theme.TriggerTurnNumber:
		return currentTurn == t.TurnNumber
	case theme.TriggerTurnRange:
		return currentTurn >= t.TurnFrom && currentTurn <= t.TurnTo
	case theme.TriggerResourceBelow:
		return float64(civ.Resources[t.Resource]) < t.Threshold
	case theme.TriggerStabilityBelow:
		return float64(civ.Stability) < t.Threshold
	case theme.TriggerTensionAbove:
		return float64(civ.TensionAxes[t.Axis]) > t.Threshold
	case theme.TriggerTechCompleted:
		return civ.HasCompletedTech(t.TechID)
	case theme.TriggerWarDeclared:
		return civ.IsAtWar()
	default:
		return false
	}
}

// applyEffects applies a choice's effects to civ, honoring the
// clamp/invariant rules spec.md §4.8 requires.
func applyEffects(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, civ *state.CivilizationState, effects []theme.EventEffect, logs *[]string, nextUnitID func() string) {
	for _, eff := range effects {
		switch eff.Kind {
		case theme.EventResourceDelta:
			civ.AddResource(eff.ResourceID, int(eff.Amount))
		case theme.EventStabilityDelta:
			civ.Stability += int(eff.Amount)
			civ.ClampStability()
		case theme.EventTensionDelta:
			min, max := th.TensionRange(eff.Axis)
			civ.AddTension(eff.Axis, int(eff.Amount), min, max)
		case theme.EventSpawnUnit:
			spawnUnit(gs, idx, civ, eff.UnitDefID, nextUnitID)
		case theme.EventDestroySettlement:
			destroySettlement(gs, eff.TargetCivID)
		case theme.EventNarrative:
			if eff.NarrativeText != "" {
				*logs = append(*logs, eff.NarrativeText)
			}
		}
	}
}

func spawnUnit(gs *state.GameState, idx *theme.Index, civ *state.CivilizationState, unitDefID string, nextUnitID func() string) {
	coord, _, ok := gs.Map.FindCapital(civ.ID)
	if !ok {
		return
	}
	def, ok := idx.Unit(unitDefID)
	if !ok {
		return
	}
	h := gs.Map.Get(coord)
	h.Units = append(h.Units, state.Unit{
		ID:             nextUnitID(),
		DefinitionID:   unitDefID,
		CivilizationID: civ.ID,
		Strength:       def.Strength,
		Morale:         def.Morale,
		MovesRemaining: def.Moves,
		IsGarrisoned:   true,
	})
}

func destroySettlement(gs *state.GameState, civID string) {
	coord, _, ok := gs.Map.FindCapital(civID)
	if !ok {
		return
	}
	h := gs.Map.Get(coord)
	if h != nil {
		h.Settlement = nil
	}
}
