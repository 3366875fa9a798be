package state

// CombatReport records one resolved encounter for narrative generation
// (supplemented type — SPEC_FULL.md §3, grounded on the
// Knoblauchpilze-sogserver fleet-fight result shape).
type CombatReport struct {
	HexCoord        string `json:"hexCoord"`
	AttackerCivID   string `json:"attackerCivId"`
	DefenderCivID   string `json:"defenderCivId"`
	AttackerPower   float64 `json:"attackerPower"`
	DefenderPower   float64 `json:"defenderPower"`
	AttackerRoll    int    `json:"attackerRoll"`
	DefenderRoll    int    `json:"defenderRoll"`
	Outcome         string `json:"outcome"` // "attacker", "defender", "draw"
	AttackerLosses  int    `json:"attackerLosses"`
	DefenderLosses  int    `json:"defenderLosses"`
}

// CivTurnSummary is one civilization's narrative slice of a turn.
type CivTurnSummary struct {
	CivilizationID   string           `json:"civilizationId"`
	ResourceDeltas   map[string]int   `json:"resourceDeltas"`
	TechsCompleted   []string         `json:"techsCompleted"`
	CombatReports    []CombatReport   `json:"combatReports"`
	ActivatedEvents  []string         `json:"activatedEvents"`
	NarrativeLines   []string         `json:"narrativeLines"`
}

// TurnSummary is one append-only entry in GameState.TurnHistory.
type TurnSummary struct {
	Turn       int              `json:"turn"`
	ResolvedAt string           `json:"resolvedAt"`
	Civs       []CivTurnSummary `json:"civs"`
}
