// Package combat resolves hex-by-hex battles: defender/attacker selection,
// effective power, dice resolution, casualty distribution, retreat, and
// post-combat control transfer. Grounded on the teacher's
// internal/engine/tick.go per-tick conflict scan, generalized from
// agent-vs-agent skirmish to civ-vs-civ war resolution (spec.md §4.7).
package combat

import (
	"fmt"
	"math"
	"sort"

	"github.com/ashkar-house/realms/internal/ability"
	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// Resolve scans every hex in row-major order, resolves each war encounter
// sequentially against one PRNG fork, and transfers control of
// sole-occupied hexes at the end. Returns the turn's combat reports and
// narrative log lines.
func Resolve(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, p *prng.PRNG) ([]state.CombatReport, []string) {
	var reports []state.CombatReport
	var logs []string

	seasonal, hasSeasonal := th.TurnCycleEffectForTurn(gs.Turn)

	gs.Map.Each(func(h *state.Hex) {
		civs := h.PresentCivilizations()
		if len(civs) < 2 {
			return
		}
		if !anyPairAtWar(gs, civs) {
			return
		}

		defender := selectDefender(gs, h, civs, p)
		attacker := selectAttacker(gs, h, civs, defender)
		if attacker == "" {
			return
		}

		report := resolveEncounter(gs, th, idx, h, attacker, defender, seasonal, hasSeasonal, p)
		reports = append(reports, report)
		logs = append(logs, fmt.Sprintf("combat: %s vs %s at (%d,%d) -> %s",
			attacker, defender, h.Coord.Col, h.Coord.Row, report.Outcome))
	})

	transferControl(gs)

	return reports, logs
}

func anyPairAtWar(gs *state.GameState, civs []string) bool {
	for i := 0; i < len(civs); i++ {
		for j := i + 1; j < len(civs); j++ {
			a, okA := gs.Civilizations[civs[i]]
			if !okA {
				continue
			}
			if a.AtWarWith(civs[j]) {
				return true
			}
		}
	}
	return false
}

func selectDefender(gs *state.GameState, h *state.Hex, civs []string, p *prng.PRNG) string {
	if h.ControlledBy != "" {
		for _, c := range civs {
			if c == h.ControlledBy {
				return c
			}
		}
	}
	items := make([]prng.Weighted[string], len(civs))
	for i, c := range civs {
		items[i] = prng.Weighted[string]{Value: c, Weight: 1}
	}
	d, err := prng.WeightedChoice(p, items)
	if err != nil {
		return civs[0]
	}
	return d
}

func selectAttacker(gs *state.GameState, h *state.Hex, civs []string, defender string) string {
	for _, c := range civs {
		if c == defender {
			continue
		}
		civ, ok := gs.Civilizations[c]
		if !ok {
			continue
		}
		if civ.AtWarWith(defender) {
			return c
		}
	}
	return ""
}

func resolveEncounter(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, h *state.Hex, attacker, defender string, seasonal theme.TurnCycleEffect, hasSeasonal bool, p *prng.PRNG) state.CombatReport {
	attackerUnits := h.UnitsOf(attacker)
	defenderUnits := h.UnitsOf(defender)

	attackerPower := effectivePower(gs, th, idx, h, attacker, attackerUnits, defenderUnits, true, seasonal, hasSeasonal)
	defenderPower := effectivePower(gs, th, idx, h, defender, defenderUnits, attackerUnits, false, seasonal, hasSeasonal)

	attackerRoll := p.NextInt(1, 6)
	defenderRoll := p.NextInt(1, 6)

	attackerScore := attackerPower * float64(attackerRoll)
	defenderScore := defenderPower * float64(defenderRoll)

	var outcome string
	switch {
	case attackerScore > defenderScore:
		outcome = "attacker"
	case attackerScore < defenderScore:
		outcome = "defender"
	default:
		outcome = "draw"
	}

	attackerTotal := totalStrength(attackerUnits)
	defenderTotal := totalStrength(defenderUnits)

	var attackerLossFrac, defenderLossFrac float64
	switch outcome {
	case "attacker":
		attackerLossFrac, defenderLossFrac = 0.15, 0.60
	case "defender":
		attackerLossFrac, defenderLossFrac = 0.60, 0.15
	default:
		attackerLossFrac, defenderLossFrac = 0.40, 0.40
	}

	attackerLosses := casualtyAmount(attackerTotal, attackerLossFrac)
	defenderLosses := casualtyAmount(defenderTotal, defenderLossFrac)

	applyCasualties(h, attacker, attackerLosses)
	applyCasualties(h, defender, defenderLosses)

	retreatSurvivors(gs, h, attacker, outcome == "defender")
	retreatSurvivors(gs, h, defender, outcome == "attacker")

	return state.CombatReport{
		HexCoord:        fmt.Sprintf("%d,%d", h.Coord.Col, h.Coord.Row),
		AttackerCivID:   attacker,
		DefenderCivID:   defender,
		AttackerPower:   attackerPower,
		DefenderPower:   defenderPower,
		AttackerRoll:    attackerRoll,
		DefenderRoll:    defenderRoll,
		Outcome:         outcome,
		AttackerLosses:  attackerLosses,
		DefenderLosses:  defenderLosses,
	}
}

func totalStrength(units []state.Unit) int {
	total := 0
	for _, u := range units {
		total += u.Strength
	}
	return total
}

// casualtyAmount is the raw-strength fraction, rounded down, floored at 1
// whenever the side being damaged has any strength at all.
func casualtyAmount(totalStrength int, frac float64) int {
	if totalStrength <= 0 {
		return 0
	}
	amount := int(math.Floor(float64(totalStrength) * frac))
	if amount < 1 {
		amount = 1
	}
	return amount
}

// applyCasualties sorts civID's units on h ascending by strength and
// absorbs damage weakest-first until the budget is exhausted; every unit
// that took any damage also loses 1 morale. Destroyed units (strength<=0
// or morale<=0) are removed from the hex.
func applyCasualties(h *state.Hex, civID string, damageBudget int) {
	if damageBudget <= 0 {
		return
	}
	var indices []int
	for i, u := range h.Units {
		if u.CivilizationID == civID {
			indices = append(indices, i)
		}
	}
	sort.Slice(indices, func(a, b int) bool {
		return h.Units[indices[a]].Strength < h.Units[indices[b]].Strength
	})

	remaining := damageBudget
	for _, i := range indices {
		if remaining <= 0 {
			break
		}
		u := &h.Units[i]
		hit := u.Strength
		if hit > remaining {
			hit = remaining
		}
		u.Strength -= hit
		remaining -= hit
		u.Morale -= 1
	}

	var survivors []state.Unit
	for _, u := range h.Units {
		if u.CivilizationID == civID && !u.Alive() {
			continue
		}
		survivors = append(survivors, u)
	}
	h.Units = survivors
}

// retreatSurvivors moves civID's surviving units on h one hex toward their
// capital (BFS, non-sea) when shouldRetreat. Only a clear loser retreats;
// a draw leaves both sides in place.
func retreatSurvivors(gs *state.GameState, h *state.Hex, civID string, shouldRetreat bool) {
	if !shouldRetreat {
		return
	}
	capCoord, _, ok := gs.Map.FindCapital(civID)
	if !ok {
		return
	}
	grid := gs.Map.Grid()
	var stay []state.Unit
	for _, u := range h.Units {
		if u.CivilizationID != civID {
			stay = append(stay, u)
			continue
		}
		path := hexgrid.PathTo(grid, h.Coord, capCoord, gs.Map.Rows*gs.Map.Cols)
		if len(path) == 0 {
			stay = append(stay, u)
			continue
		}
		dest := gs.Map.Get(path[0])
		if dest == nil {
			stay = append(stay, u)
			continue
		}
		dest.Units = append(dest.Units, u)
	}
	h.Units = stay
}

// transferControl sets controlledBy to the sole civ present on every hex
// with exactly one civ's units, for every hex on the map.
func transferControl(gs *state.GameState) {
	gs.Map.Each(func(h *state.Hex) {
		civs := h.PresentCivilizations()
		if len(civs) == 1 {
			h.ControlledBy = civs[0]
		}
	})
}

func effectivePower(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, h *state.Hex, civID string, own, enemy []state.Unit, isAttacker bool, seasonal theme.TurnCycleEffect, hasSeasonal bool) float64 {
	total := float64(totalStrength(own))

	sideMultiplier := 1.0
	if isAttacker {
		if m, ok := th.Mechanics.CombatModifiersByTerrain[string(h.Terrain)]; ok {
			sideMultiplier = m
		}
	} else if anyGarrisoned(own) {
		sideMultiplier = 1.25
	}

	power := total*sideMultiplier + techBonus(gs, idx, h, civID, own, isAttacker) + civAbilityBonus(gs, th, civID, h.Terrain, own, enemy, isAttacker)

	if hasSeasonal {
		power += seasonal.CombatModifier
	}

	return power
}

func anyGarrisoned(units []state.Unit) bool {
	for _, u := range units {
		if u.IsGarrisoned {
			return true
		}
	}
	return false
}

func techBonus(gs *state.GameState, idx *theme.Index, h *state.Hex, civID string, own []state.Unit, isAttacker bool) float64 {
	civ, ok := gs.Civilizations[civID]
	if !ok {
		return 0
	}
	bonus := 0.0
	hasCavalry := sideHasCavalry(idx, own)
	for _, techID := range civ.CompletedTechs {
		tech, ok := idx.Tech(techID)
		if !ok {
			continue
		}
		for _, eff := range tech.Effects {
			switch eff.Kind {
			case theme.TechCombatModifier:
				bonus += eff.CombatModifier
			case theme.TechCustom:
				if eff.Custom == nil {
					continue
				}
				switch eff.Custom.Key {
				case "settlement_defense_bonus", "capital_defense_combat_bonus":
					if !isAttacker && h.Settlement != nil {
						if eff.Custom.Key == "capital_defense_combat_bonus" && !h.Settlement.IsCapital {
							continue
						}
						bonus += parseBonus(eff.Custom.Value)
					}
				case "siege_combat_bonus":
					if isAttacker && h.Settlement != nil {
						bonus += parseBonus(eff.Custom.Value)
					}
				case "cavalry_combat_bonus":
					if hasCavalry {
						bonus += parseBonus(eff.Custom.Value)
					}
				}
			}
		}
	}
	return bonus
}

func sideHasCavalry(idx *theme.Index, units []state.Unit) bool {
	for _, u := range units {
		if def, ok := idx.Unit(u.DefinitionID); ok && ability.IsCavalryUnitName(def.DisplayName) {
			return true
		}
	}
	return false
}

func parseBonus(raw string) float64 {
	var f float64
	if _, err := fmt.Sscanf(raw, "%f", &f); err != nil {
		return 0
	}
	return f
}

func civAbilityBonus(gs *state.GameState, th *theme.ThemePackage, civID string, terrain state.Terrain, own, enemy []state.Unit, isAttacker bool) float64 {
	civDef, ok := th.Civilization(civID)
	if !ok {
		return 0
	}
	bonus := 0.0
	if isAttacker {
		if n, ok := ability.AttackingBonus(civDef.SpecialAbilities); ok {
			bonus += float64(n)
		}
	} else {
		if n, ok := ability.DefendingTerrainBonus(civDef.SpecialAbilities, string(terrain)); ok {
			bonus += float64(n)
		}
	}
	if isAttacker && ability.HasReconquistaDrive(civDef.SpecialAbilities) && len(enemy) > 0 {
		enemyCivID := enemy[0].CivilizationID
		if enemyDef, ok := th.Civilization(enemyCivID); ok {
			if civDef.Religion != "" && enemyDef.Religion != "" && civDef.Religion != enemyDef.Religion {
				bonus += 2
			}
		}
	}
	return bonus
}
