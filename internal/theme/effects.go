package theme

// TechEffectKind discriminates TechEffect's variants.
type TechEffectKind string

const (
	TechUnlockUnit        TechEffectKind = "unlock_unit"
	TechUnlockBuilding    TechEffectKind = "unlock_building"
	TechResourceModifier  TechEffectKind = "resource_modifier"
	TechCombatModifier    TechEffectKind = "combat_modifier"
	TechStabilityModifier TechEffectKind = "stability_modifier"
	TechCustom            TechEffectKind = "custom"
)

// TechEffect is a tagged union of the effects a completed tech may grant.
type TechEffect struct {
	Kind TechEffectKind `json:"kind"`

	UnlockUnitID     string                   `json:"unlockUnitId,omitempty"`
	UnlockBuildingID string                   `json:"unlockBuildingId,omitempty"`
	ResourceModifier *ResourceModifierPayload `json:"resourceModifier,omitempty"`
	CombatModifier   float64                  `json:"combatModifier,omitempty"`
	StabilityModifier float64                 `json:"stabilityModifier,omitempty"`
	Custom           *CustomPayload           `json:"custom,omitempty"`
}

// ResourceModifierPayload scales a resource's yield by Multiplier.
type ResourceModifierPayload struct {
	Resource   string  `json:"resource"`
	Multiplier float64 `json:"multiplier"`
}

// CustomPayload carries a loosely-typed (key, value) extension point for
// tech/event effects that the core schema does not otherwise model
// (resource_conversion, cultural_victory_progress, unit_heal_rate,
// settlement_defense_bonus, capital_defense_combat_bonus,
// siege_combat_bonus, cavalry_combat_bonus, trigger_event,
// unlock_diplomacy_action — see spec.md §4.5–§4.10).
type CustomPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EventTriggerKind discriminates EventTrigger's variants.
type EventTriggerKind string

const (
	TriggerTurnNumber    EventTriggerKind = "turn_number"
	TriggerTurnRange     EventTriggerKind = "turn_range"
	TriggerResourceBelow EventTriggerKind = "resource_below"
	TriggerStabilityBelow EventTriggerKind = "stability_below"
	TriggerTensionAbove  EventTriggerKind = "tension_above"
	TriggerTechCompleted EventTriggerKind = "tech_completed"
	TriggerWarDeclared   EventTriggerKind = "war_declared"
	TriggerAlways        EventTriggerKind = "always"
)

// EventTrigger is a tagged union of the conditions that can activate an
// event definition for a candidate civilization.
type EventTrigger struct {
	Kind EventTriggerKind `json:"kind"`

	TurnNumber int     `json:"turnNumber,omitempty"`
	TurnFrom   int     `json:"turnFrom,omitempty"`
	TurnTo     int     `json:"turnTo,omitempty"`
	Resource   string  `json:"resource,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
	Axis       string  `json:"axis,omitempty"`
	TechID     string  `json:"techId,omitempty"`
}

// EventEffectKind discriminates EventEffect's variants.
type EventEffectKind string

const (
	EventResourceDelta     EventEffectKind = "resource_delta"
	EventStabilityDelta    EventEffectKind = "stability_delta"
	EventTensionDelta      EventEffectKind = "tension_delta"
	EventSpawnUnit         EventEffectKind = "spawn_unit"
	EventDestroySettlement EventEffectKind = "destroy_settlement"
	EventForceWar          EventEffectKind = "force_war"
	EventNarrative         EventEffectKind = "narrative"
	EventCustom            EventEffectKind = "custom"
)

// EventEffect is a tagged union of the effects an event choice applies.
type EventEffect struct {
	Kind EventEffectKind `json:"kind"`

	ResourceID     string         `json:"resourceId,omitempty"`
	Amount         float64        `json:"amount,omitempty"`
	Axis           string         `json:"axis,omitempty"`
	UnitDefID      string         `json:"unitDefId,omitempty"`
	TargetCivID    string         `json:"targetCivId,omitempty"`
	NarrativeText  string         `json:"narrativeText,omitempty"`
	Custom         *CustomPayload `json:"custom,omitempty"`
}

// EventChoice is one response a civ may pick (or that is applied by
// default on auto-resolution).
type EventChoice struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Effects []EventEffect `json:"effects"`
}

// EventTargeting discriminates how an event definition selects targets.
type EventTargeting string

const (
	TargetAll      EventTargeting = "all"
	TargetRandomOne EventTargeting = "random_one"
	TargetExplicit EventTargeting = "explicit"
)

// EventDef is one piece of activatable content.
type EventDef struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Trigger         EventTrigger   `json:"trigger"`
	Targeting       EventTargeting `json:"targeting"`
	TargetCivIDs    []string       `json:"targetCivIds,omitempty"`
	Choices         []EventChoice  `json:"choices"`
	DefaultChoiceID string         `json:"defaultChoiceId"`
	Repeatable      bool           `json:"repeatable"`
	Weight          float64        `json:"weight"`
	ExpiresAfter    int            `json:"expiresAfter,omitempty"`
}

// Choice looks up one of the event's choices by id.
func (e EventDef) Choice(id string) (EventChoice, bool) {
	for _, c := range e.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return EventChoice{}, false
}

// VictoryConditionKind discriminates VictoryCondition's variants.
type VictoryConditionKind string

const (
	VictoryEliminateAll       VictoryConditionKind = "eliminate_all"
	VictoryControlHexes       VictoryConditionKind = "control_hexes"
	VictoryResourceAccumulate VictoryConditionKind = "resource_accumulate"
	VictoryTechAdvance        VictoryConditionKind = "tech_advance"
	VictorySurviveTurns       VictoryConditionKind = "survive_turns"
)

// VictoryCondition is a tagged union of the ways a game can be won.
type VictoryCondition struct {
	Kind     VictoryConditionKind `json:"kind"`
	Count    int                  `json:"count,omitempty"`
	Resource string               `json:"resource,omitempty"`
	Amount   int                  `json:"amount,omitempty"`
	TechID   string               `json:"techId,omitempty"`
	Turns    int                  `json:"turns,omitempty"`
}

// DefeatConditionKind discriminates DefeatCondition's variants.
type DefeatConditionKind string

const (
	DefeatCapitalLost       DefeatConditionKind = "capital_lost"
	DefeatStabilityZero     DefeatConditionKind = "stability_zero"
	DefeatEliminatedByCombat DefeatConditionKind = "eliminated_by_combat"
)

// DefeatCondition is a tagged union of the ways a civilization can fall.
// TurnsAtZero, when positive, requires stability to have stayed at zero
// for that many consecutive turns before the condition triggers (open
// question resolved in SPEC_FULL.md §9); zero means the original
// immediate-trigger behavior.
type DefeatCondition struct {
	Kind        DefeatConditionKind `json:"kind"`
	TurnsAtZero int                 `json:"turnsAtZero,omitempty"`
}
