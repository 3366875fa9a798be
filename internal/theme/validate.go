package theme

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrThemeInvalid is returned when a theme fails schema validation. It is
// the only fatal error kind the engine ever surfaces (spec.md §7).
var ErrThemeInvalid = errors.New("theme invalid")

// Load parses and validates a theme package from its canonical JSON
// encoding. Validation is closed-world: anything missing a required field
// or carrying an ill-typed effect is rejected.
func Load(raw []byte) (*ThemePackage, error) {
	var t ThemePackage
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: malformed json: %v", ErrThemeInvalid, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every cross-reference and tagged-union payload in the
// theme. It never mutates t.
func (t *ThemePackage) Validate() error {
	if t.ID == "" {
		return invalid("theme id is required")
	}
	if len(t.Civilizations) == 0 {
		return invalid("theme must declare at least one civilization")
	}
	if t.Map.Width <= 0 || t.Map.Height <= 0 {
		return invalid("map width and height must be positive")
	}

	resourceIDs := map[string]bool{}
	for _, r := range t.Resources {
		if r.ID == "" {
			return invalid("resource id is required")
		}
		resourceIDs[r.ID] = true
	}

	techIDs := map[string]bool{}
	for _, tech := range t.Techs {
		if tech.ID == "" {
			return invalid("tech id is required")
		}
		techIDs[tech.ID] = true
	}
	for _, tech := range t.Techs {
		for _, p := range tech.Prereqs {
			if !techIDs[p] {
				return invalid(fmt.Sprintf("tech %q has unknown prereq %q", tech.ID, p))
			}
		}
		for _, eff := range tech.Effects {
			if err := validateTechEffect(eff, resourceIDs); err != nil {
				return err
			}
		}
	}

	buildingIDs := map[string]bool{}
	for _, b := range t.Buildings {
		if b.ID == "" {
			return invalid("building id is required")
		}
		if b.MaxPerSettlement <= 0 {
			return invalid(fmt.Sprintf("building %q must allow at least one per settlement", b.ID))
		}
		if b.PrereqTech != "" && !techIDs[b.PrereqTech] {
			return invalid(fmt.Sprintf("building %q has unknown prereq tech %q", b.ID, b.PrereqTech))
		}
		for _, eff := range b.Effects {
			if eff.ResourceID != "stability" && !resourceIDs[eff.ResourceID] {
				return invalid(fmt.Sprintf("building %q effect references unknown resource %q", b.ID, eff.ResourceID))
			}
		}
		buildingIDs[b.ID] = true
	}

	for _, u := range t.Units {
		if u.ID == "" {
			return invalid("unit id is required")
		}
		if u.Strength <= 0 || u.Morale <= 0 || u.Moves <= 0 {
			return invalid(fmt.Sprintf("unit %q must have positive strength, morale, and moves", u.ID))
		}
		if u.PrereqTech != "" && !techIDs[u.PrereqTech] {
			return invalid(fmt.Sprintf("unit %q has unknown prereq tech %q", u.ID, u.PrereqTech))
		}
	}

	eventIDs := map[string]bool{}
	for _, e := range t.Events {
		if e.ID == "" {
			return invalid("event id is required")
		}
		if len(e.Choices) == 0 {
			return invalid(fmt.Sprintf("event %q must declare at least one choice", e.ID))
		}
		if _, ok := e.Choice(e.DefaultChoiceID); !ok {
			return invalid(fmt.Sprintf("event %q default choice %q is not among its choices", e.ID, e.DefaultChoiceID))
		}
		if err := validateEventTrigger(e.Trigger, resourceIDs, techIDs); err != nil {
			return err
		}
		for _, c := range e.Choices {
			for _, eff := range c.Effects {
				if err := validateEventEffect(eff, resourceIDs); err != nil {
					return err
				}
			}
		}
		eventIDs[e.ID] = true
	}

	civIDs := map[string]bool{}
	for _, c := range t.Civilizations {
		if c.ID == "" {
			return invalid("civilization id is required")
		}
		for _, techID := range c.StartingTechs {
			if !techIDs[techID] {
				return invalid(fmt.Sprintf("civilization %q starts with unknown tech %q", c.ID, techID))
			}
		}
		civIDs[c.ID] = true
	}

	for _, a := range t.Map.Anchors {
		if a.CivilizationID != "" && !civIDs[a.CivilizationID] {
			return invalid(fmt.Sprintf("anchor %q references unknown civilization %q", a.ID, a.CivilizationID))
		}
	}

	for _, z := range t.Map.Zones {
		switch z.Shape.Kind {
		case ShapeRect:
			if z.Shape.Rect == nil {
				return invalid(fmt.Sprintf("zone %q declares kind rect without bounds", z.ID))
			}
		case ShapeHexes:
			if len(z.Shape.Hexes) == 0 {
				return invalid(fmt.Sprintf("zone %q declares kind hexes without any hex", z.ID))
			}
		default:
			return invalid(fmt.Sprintf("zone %q has unknown shape kind %q", z.ID, z.Shape.Kind))
		}
	}

	for _, v := range t.Victory {
		if err := validateVictory(v, resourceIDs, techIDs); err != nil {
			return err
		}
	}
	for _, d := range t.Defeat {
		switch d.Kind {
		case DefeatCapitalLost, DefeatStabilityZero, DefeatEliminatedByCombat:
		default:
			return invalid(fmt.Sprintf("unknown defeat condition kind %q", d.Kind))
		}
	}

	return nil
}

func validateTechEffect(eff TechEffect, resourceIDs map[string]bool) error {
	switch eff.Kind {
	case TechUnlockUnit, TechUnlockBuilding, TechCombatModifier, TechStabilityModifier:
		return nil
	case TechResourceModifier:
		if eff.ResourceModifier == nil {
			return invalid("resource_modifier tech effect missing payload")
		}
		if !resourceIDs[eff.ResourceModifier.Resource] {
			return invalid(fmt.Sprintf("resource_modifier tech effect references unknown resource %q", eff.ResourceModifier.Resource))
		}
		return nil
	case TechCustom:
		if eff.Custom == nil || eff.Custom.Key == "" {
			return invalid("custom tech effect missing key")
		}
		return nil
	default:
		return invalid(fmt.Sprintf("unknown tech effect kind %q", eff.Kind))
	}
}

func validateEventTrigger(trig EventTrigger, resourceIDs, techIDs map[string]bool) error {
	switch trig.Kind {
	case TriggerAlways, TriggerWarDeclared:
		return nil
	case TriggerTurnNumber:
		return nil
	case TriggerTurnRange:
		if trig.TurnTo < trig.TurnFrom {
			return invalid("turn_range trigger has turnTo before turnFrom")
		}
		return nil
	case TriggerResourceBelow:
		if !resourceIDs[trig.Resource] {
			return invalid(fmt.Sprintf("resource_below trigger references unknown resource %q", trig.Resource))
		}
		return nil
	case TriggerStabilityBelow:
		return nil
	case TriggerTensionAbove:
		if trig.Axis == "" {
			return invalid("tension_above trigger missing axis")
		}
		return nil
	case TriggerTechCompleted:
		if !techIDs[trig.TechID] {
			return invalid(fmt.Sprintf("tech_completed trigger references unknown tech %q", trig.TechID))
		}
		return nil
	default:
		return invalid(fmt.Sprintf("unknown event trigger kind %q", trig.Kind))
	}
}

func validateEventEffect(eff EventEffect, resourceIDs map[string]bool) error {
	switch eff.Kind {
	case EventResourceDelta:
		if !resourceIDs[eff.ResourceID] {
			return invalid(fmt.Sprintf("resource_delta event effect references unknown resource %q", eff.ResourceID))
		}
		return nil
	case EventStabilityDelta, EventDestroySettlement, EventNarrative:
		return nil
	case EventTensionDelta:
		if eff.Axis == "" {
			return invalid("tension_delta event effect missing axis")
		}
		return nil
	case EventSpawnUnit:
		if eff.UnitDefID == "" {
			return invalid("spawn_unit event effect missing unitDefId")
		}
		return nil
	case EventForceWar:
		return nil
	case EventCustom:
		if eff.Custom == nil || eff.Custom.Key == "" {
			return invalid("custom event effect missing key")
		}
		return nil
	default:
		return invalid(fmt.Sprintf("unknown event effect kind %q", eff.Kind))
	}
}

func validateVictory(v VictoryCondition, resourceIDs, techIDs map[string]bool) error {
	switch v.Kind {
	case VictoryEliminateAll, VictorySurviveTurns:
		return nil
	case VictoryControlHexes:
		if v.Count <= 0 {
			return invalid("control_hexes victory condition needs a positive count")
		}
		return nil
	case VictoryResourceAccumulate:
		if !resourceIDs[v.Resource] {
			return invalid(fmt.Sprintf("resource_accumulate victory condition references unknown resource %q", v.Resource))
		}
		return nil
	case VictoryTechAdvance:
		if !techIDs[v.TechID] {
			return invalid(fmt.Sprintf("tech_advance victory condition references unknown tech %q", v.TechID))
		}
		return nil
	default:
		return invalid(fmt.Sprintf("unknown victory condition kind %q", v.Kind))
	}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrThemeInvalid, msg)
}
