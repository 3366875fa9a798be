// Package resolver implements the turn pipeline: the deterministic,
// pure-function center of the engine. It takes a game state, a turn's
// submitted orders, a theme, and a PRNG, and returns the next state plus
// the resolution log. Grounded on the teacher's internal/engine/tick.go
// phase sequencing, generalized from a continuous real-time tick to the
// eighteen-step discrete turn pipeline spec.md §4.10 defines.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ashkar-house/realms/internal/ai"
	"github.com/ashkar-house/realms/internal/combat"
	"github.com/ashkar-house/realms/internal/diplomacy"
	"github.com/ashkar-house/realms/internal/economy"
	"github.com/ashkar-house/realms/internal/events"
	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// IDGenerator mints fresh ids for units and event instances created during
// resolution. The host supplies an implementation (e.g. backed by
// google/uuid); the resolver never invents its own randomness for ids.
type IDGenerator interface {
	NextUnitID() string
	NextInstanceID() string
}

// Result is resolveTurn's return value.
type Result struct {
	State *state.GameState
	Logs  []string
}

// ResolveTurn runs the eighteen-step pipeline against a deep copy of
// input, leaving input untouched, and returns the resulting state and
// narrative log.
func ResolveTurn(input *state.GameState, orders []state.PlayerOrders, th *theme.ThemePackage, p *prng.PRNG, resolvedAt string, ids IDGenerator) Result {
	idx := theme.BuildIndex(th)
	gs := input.Clone()
	var logs []string

	// 1. Reset movesRemaining.
	gs.Map.Each(func(h *state.Hex) {
		for i := range h.Units {
			if def, ok := idx.Unit(h.Units[i].DefinitionID); ok {
				h.Units[i].MovesRemaining = def.Moves
			}
		}
	})

	// 2. Snapshot resources and completed techs per civ.
	snapshots := map[string]snapshot{}
	gs.EachCivilization(func(c *state.CivilizationState) {
		snapshots[c.ID] = snapshot{
			resources: cloneInts(c.Resources),
			techs:     append([]string(nil), c.CompletedTechs...),
		}
	})

	// 3. Fill missing orders via the AI governor, one PRNG fork per civ.
	submitted := map[string]bool{}
	for _, po := range orders {
		submitted[po.CivilizationID] = true
	}
	allOrders := append([]state.PlayerOrders(nil), orders...)
	gs.EachCivilization(func(c *state.CivilizationState) {
		if c.IsEliminated || submitted[c.ID] {
			return
		}
		if !gs.Config.AllowAIGovernor {
			return
		}
		fork := p.Fork()
		allOrders = append(allOrders, ai.GenerateOrders(gs, c.ID, th, idx, fork, resolvedAt))
	})

	flatOrders, issuerOf := flatten(allOrders)

	// 4. Diplomacy.
	messages := diplomacy.Resolve(gs, th, flatOrders, issuerOf)
	for _, m := range messages {
		logs = append(logs, fmt.Sprintf("message: %s -> %s: %s", m.From, m.To, m.Text))
	}
	applyDiplomacyTensionEffects(gs, th, flatOrders, issuerOf)

	// 5. Orders structural validation: a pass-through, no-op today.

	// 6. Movement.
	logs = append(logs, resolveMovement(gs, idx, flatOrders, issuerOf)...)

	// 7. Combat.
	combatFork := p.Fork()
	reports, combatLogs := combat.Resolve(gs, th, idx, combatFork)
	logs = append(logs, combatLogs...)

	// 8. Control transfer happens inside combat.Resolve.

	// 9. Economy.
	allocations := collectAllocations(flatOrders, issuerOf)
	econLogs, _ := economy.Resolve(gs, th, idx, allocations, gs.Turn)
	logs = append(logs, econLogs...)

	// 10. Healing.
	logs = append(logs, resolveHealing(gs, idx)...)

	// 11. Construction.
	logs = append(logs, resolveConstruction(gs, th, idx, flatOrders, issuerOf)...)

	// 12. Recruitment.
	logs = append(logs, resolveRecruitment(gs, idx, flatOrders, issuerOf, ids)...)

	// 13. Research.
	logs = append(logs, resolveResearch(gs, th, idx, flatOrders, issuerOf, ids)...)

	// 14. Events.
	eventsFork := p.Fork()
	logs = append(logs, events.Resolve(gs, th, idx, flatOrders, issuerOf, gs.Turn, eventsFork, ids.NextInstanceID, ids.NextUnitID)...)

	// 15. Attrition.
	logs = append(logs, resolveAttrition(gs, th)...)

	// 16. Victory/defeat.
	logs = append(logs, resolveVictoryDefeat(gs, th)...)

	// Muwardi invasion mechanic (theme-driven, tension-triggered).
	logs = append(logs, resolveMuwardiInvasion(gs, th, idx, ids)...)

	// 17. Summary.
	gs.TurnHistory = append(gs.TurnHistory, buildSummary(gs, snapshots, reports, logs, resolvedAt))

	// 18. Advance turn, persist PRNG state, set lastResolvedAt.
	gs.Turn++
	gs.RNGState = p.State()
	ts := resolvedAt
	gs.LastResolvedAt = &ts

	return Result{State: gs, Logs: logs}
}

type snapshot struct {
	resources map[string]int
	techs     []string
}

func cloneInts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// flatten builds a single ordered order list from every player's batch and
// a parallel issuer-civ lookup, preserving submission order.
func flatten(batches []state.PlayerOrders) ([]state.Order, map[int]string) {
	var flat []state.Order
	issuerOf := map[int]string{}
	for _, b := range batches {
		for _, o := range b.Orders {
			issuerOf[len(flat)] = b.CivilizationID
			flat = append(flat, o)
		}
	}
	return flat, issuerOf
}

func collectAllocations(orders []state.Order, issuerOf map[int]string) map[string]map[string]float64 {
	out := map[string]map[string]float64{}
	for i, o := range orders {
		if o.Kind != state.OrderResourceAllocation {
			continue
		}
		civID := o.AllocationCivID
		if civID == "" {
			civID = issuerOf[i]
		}
		out[civID] = o.Weights
	}
	return out
}

// resolveMovement validates and applies move orders per spec.md §4.10.
func resolveMovement(gs *state.GameState, idx *theme.Index, orders []state.Order, issuerOf map[int]string) []string {
	var logs []string
	grid := gs.Map.Grid()

	for i, o := range orders {
		if o.Kind != state.OrderMove {
			continue
		}
		civID := issuerOf[i]

		origin, unit, ok := findUnit(gs, o.UnitID)
		if !ok {
			logs = append(logs, fmt.Sprintf("move rejected: unit %q not found", o.UnitID))
			continue
		}
		if unit.CivilizationID != civID {
			logs = append(logs, fmt.Sprintf("move rejected: unit %q not owned by %q", o.UnitID, civID))
			continue
		}
		if len(o.Path) > unit.MovesRemaining {
			logs = append(logs, fmt.Sprintf("move rejected: unit %q path exceeds movesRemaining", o.UnitID))
			continue
		}
		if !validPath(grid, origin, o.Path) {
			logs = append(logs, fmt.Sprintf("move rejected: unit %q path invalid", o.UnitID))
			continue
		}

		dest := o.Path[len(o.Path)-1]
		originHex := gs.Map.Get(origin)
		removed, _ := originHex.RemoveUnit(o.UnitID)
		removed.MovesRemaining = 0
		gs.Map.Get(dest).Units = append(gs.Map.Get(dest).Units, removed)
	}
	return logs
}

func findUnit(gs *state.GameState, unitID string) (hexgrid.Coord, state.Unit, bool) {
	var coord hexgrid.Coord
	var unit state.Unit
	found := false
	gs.Map.Each(func(h *state.Hex) {
		if found {
			return
		}
		for _, u := range h.Units {
			if u.ID == unitID {
				coord, unit, found = h.Coord, u, true
				return
			}
		}
	})
	return coord, unit, found
}

func validPath(grid hexgrid.Grid, origin hexgrid.Coord, path []hexgrid.Coord) bool {
	if len(path) == 0 {
		return false
	}
	prev := origin
	for _, step := range path {
		if !grid.InBounds(step) {
			return false
		}
		if grid.Passable != nil && !grid.Passable(step) {
			return false
		}
		if !prev.IsAdjacent(step) {
			return false
		}
		prev = step
	}
	return true
}

// resolveConstruction validates and applies construction orders.
func resolveConstruction(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, orders []state.Order, issuerOf map[int]string) []string {
	var logs []string
	for i, o := range orders {
		if o.Kind != state.OrderConstruction {
			continue
		}
		civID := issuerOf[i]
		civ, ok := gs.Civilizations[civID]
		if !ok {
			continue
		}

		b, ok := idx.Building(o.BuildingDefinitionID)
		if !ok {
			logs = append(logs, fmt.Sprintf("construction rejected: unknown building %q", o.BuildingDefinitionID))
			continue
		}
		h, sett := findSettlement(gs, o.SettlementID)
		if sett == nil {
			logs = append(logs, fmt.Sprintf("construction rejected: unknown settlement %q", o.SettlementID))
			continue
		}
		if h.ControlledBy != civID {
			logs = append(logs, fmt.Sprintf("construction rejected: settlement %q not owned by %q", o.SettlementID, civID))
			continue
		}
		if b.PrereqTech != "" && !civ.HasCompletedTech(b.PrereqTech) {
			logs = append(logs, fmt.Sprintf("construction rejected: prereq tech %q not completed", b.PrereqTech))
			continue
		}
		if b.MaxPerSettlement > 0 && sett.BuildingCount(b.ID) >= b.MaxPerSettlement {
			logs = append(logs, fmt.Sprintf("construction rejected: per-settlement cap reached for %q", b.ID))
			continue
		}
		if civ.Resources["dinars"] < b.Cost {
			logs = append(logs, fmt.Sprintf("construction rejected: insufficient dinars for %q", b.ID))
			continue
		}

		sett.Buildings = append(sett.Buildings, b.ID)
		civ.AddResource("dinars", -b.Cost)
		logs = append(logs, fmt.Sprintf("construction: %s built %s at %s", civID, b.ID, sett.ID))

		applyReligiousTension(gs, th, civID, h, b)
	}
	return logs
}

func findSettlement(gs *state.GameState, settlementID string) (*state.Hex, *state.Settlement) {
	var found *state.Hex
	gs.Map.Each(func(h *state.Hex) {
		if found != nil {
			return
		}
		if h.Settlement != nil && h.Settlement.ID == settlementID {
			found = h
		}
	})
	if found == nil {
		return nil, nil
	}
	return found, found.Settlement
}

// resolveRecruitment validates and applies recruit orders, one per
// settlement per turn.
func resolveRecruitment(gs *state.GameState, idx *theme.Index, orders []state.Order, issuerOf map[int]string, ids IDGenerator) []string {
	var logs []string
	usedSettlements := map[string]bool{}

	for i, o := range orders {
		if o.Kind != state.OrderRecruit {
			continue
		}
		civID := issuerOf[i]
		civ, ok := gs.Civilizations[civID]
		if !ok {
			continue
		}
		if usedSettlements[o.SettlementID] {
			logs = append(logs, fmt.Sprintf("recruit rejected: settlement %q already recruited this turn", o.SettlementID))
			continue
		}

		def, ok := idx.Unit(o.UnitDefinitionID)
		if !ok {
			logs = append(logs, fmt.Sprintf("recruit rejected: unknown unit %q", o.UnitDefinitionID))
			continue
		}
		if def.PrereqTech != "" && !civ.HasCompletedTech(def.PrereqTech) {
			logs = append(logs, fmt.Sprintf("recruit rejected: prereq tech %q not completed", def.PrereqTech))
			continue
		}
		h, sett := findSettlement(gs, o.SettlementID)
		if sett == nil {
			logs = append(logs, fmt.Sprintf("recruit rejected: unknown settlement %q", o.SettlementID))
			continue
		}
		if h.ControlledBy != civID {
			logs = append(logs, fmt.Sprintf("recruit rejected: settlement %q not owned by %q", o.SettlementID, civID))
			continue
		}
		if civ.Resources["dinars"] < def.Cost {
			logs = append(logs, fmt.Sprintf("recruit rejected: insufficient dinars for %q", def.ID))
			continue
		}

		civ.AddResource("dinars", -def.Cost)
		h.Units = append(h.Units, state.Unit{
			ID:             ids.NextUnitID(),
			DefinitionID:   def.ID,
			CivilizationID: civID,
			Strength:       def.Strength,
			Morale:         def.Morale,
			MovesRemaining: def.Moves,
			IsGarrisoned:   true,
		})
		usedSettlements[o.SettlementID] = true
		logs = append(logs, fmt.Sprintf("recruit: %s recruited %s at %s", civID, def.ID, sett.ID))
	}
	return logs
}

// resolveResearch accumulates research progress and completes techs.
func resolveResearch(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, orders []state.Order, issuerOf map[int]string, ids IDGenerator) []string {
	var logs []string
	for i, o := range orders {
		if o.Kind != state.OrderResearch {
			continue
		}
		civID := issuerOf[i]
		civ, ok := gs.Civilizations[civID]
		if !ok {
			continue
		}
		tech, ok := idx.Tech(o.TechID)
		if !ok || civ.HasCompletedTech(o.TechID) {
			continue
		}
		if civ.TechProgress == nil {
			civ.TechProgress = map[string]int{}
		}
		civ.TechProgress[o.TechID] += o.PointsAllocated
		if civ.TechProgress[o.TechID] >= tech.Cost {
			civ.CompletedTechs = append(civ.CompletedTechs, o.TechID)
			delete(civ.TechProgress, o.TechID)
			logs = append(logs, fmt.Sprintf("research: %s completed %s", civID, tech.ID))

			for _, eff := range tech.Effects {
				if eff.Kind == theme.TechCustom && eff.Custom != nil && eff.Custom.Key == "trigger_event" {
					activateNamedEvent(gs, th, idx, eff.Custom.Value, civID, gs.Turn, ids.NextInstanceID())
				}
			}
		}
	}
	return logs
}

func activateNamedEvent(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, eventID, civID string, turn int, instanceID string) {
	def, ok := idx.Event(eventID)
	if !ok {
		return
	}
	choice, ok := def.Choice(def.DefaultChoiceID)
	if !ok {
		return
	}
	if civ, ok := gs.Civilizations[civID]; ok {
		for _, eff := range choice.Effects {
			switch eff.Kind {
			case theme.EventResourceDelta:
				civ.AddResource(eff.ResourceID, int(eff.Amount))
			case theme.EventStabilityDelta:
				civ.Stability += int(eff.Amount)
				civ.ClampStability()
			}
		}
	}
	gs.ActiveEvents = append(gs.ActiveEvents, state.ActiveEvent{
		InstanceID:            instanceID,
		DefinitionID:          def.ID,
		TargetCivilizationIDs: []string{civID},
		ActivatedOnTurn:       turn,
		Responses:             map[string]string{},
		Resolved:              true,
	})
}

// resolveHealing heals one strength per own unit on a friendly-settlement
// hex, capped at the unit definition's maximum, plus any unit_heal_rate
// tech bonus.
func resolveHealing(gs *state.GameState, idx *theme.Index) []string {
	var logs []string
	gs.Map.Each(func(h *state.Hex) {
		if h.Settlement == nil || h.ControlledBy == "" {
			return
		}
		civ, ok := gs.Civilizations[h.ControlledBy]
		if !ok {
			return
		}
		healRate := 1 + healBonus(civ, idx)
		for i := range h.Units {
			u := &h.Units[i]
			if u.CivilizationID != h.ControlledBy {
				continue
			}
			def, ok := idx.Unit(u.DefinitionID)
			if !ok {
				continue
			}
			if u.Strength < def.Strength {
				u.Strength += healRate
				if u.Strength > def.Strength {
					u.Strength = def.Strength
				}
			}
		}
	})
	return logs
}

func healBonus(civ *state.CivilizationState, idx *theme.Index) int {
	bonus := 0
	for _, techID := range civ.CompletedTechs {
		tech, ok := idx.Tech(techID)
		if !ok {
			continue
		}
		for _, eff := range tech.Effects {
			if eff.Kind == theme.TechCustom && eff.Custom != nil && eff.Custom.Key == "unit_heal_rate" {
				var v int
				fmt.Sscanf(eff.Custom.Value, "%d", &v)
				bonus += v
			}
		}
	}
	return bonus
}

// resolveAttrition applies grain starvation and war-weariness stability
// penalties.
func resolveAttrition(gs *state.GameState, th *theme.ThemePackage) []string {
	var logs []string
	_, hasGrain := th.Resource("grain")
	gs.EachCivilization(func(civ *state.CivilizationState) {
		if civ.IsEliminated {
			return
		}
		if hasGrain && civ.Resources["grain"] <= 0 {
			civ.Stability -= 10
		}
		if civ.IsAtWar() {
			civ.Stability -= 2
		}
		civ.ClampStability()
	})
	return logs
}

// resolveVictoryDefeat evaluates defeat then victory conditions.
func resolveVictoryDefeat(gs *state.GameState, th *theme.ThemePackage) []string {
	var logs []string

	gs.EachCivilization(func(civ *state.CivilizationState) {
		if civ.IsEliminated {
			return
		}
		for _, cond := range th.Defeat {
			if evalDefeat(gs, civ, cond) {
				civ.IsEliminated = true
				logs = append(logs, fmt.Sprintf("defeat: %s eliminated (%s)", civ.ID, cond.Kind))
				break
			}
		}
	})

	survivors := gs.NonEliminatedCivIDs()
	for _, cond := range th.Victory {
		if evalVictory(gs, th, survivors, cond) {
			gs.Phase = state.PhaseCompleted
			logs = append(logs, fmt.Sprintf("victory: condition %s met", cond.Kind))
			break
		}
	}

	return logs
}

func evalDefeat(gs *state.GameState, civ *state.CivilizationState, cond theme.DefeatCondition) bool {
	switch cond.Kind {
	case theme.DefeatCapitalLost:
		_, _, ok := gs.Map.FindCapital(civ.ID)
		return !ok
	case theme.DefeatStabilityZero:
		if civ.Stability != 0 {
			civ.TurnsAtZeroStability = 0
			return false
		}
		civ.TurnsAtZeroStability++
		if cond.TurnsAtZero <= 0 {
			return true
		}
		return civ.TurnsAtZeroStability >= cond.TurnsAtZero
	case theme.DefeatEliminatedByCombat:
		hasUnits, hasSettlements := false, false
		gs.Map.Each(func(h *state.Hex) {
			if len(h.UnitsOf(civ.ID)) > 0 {
				hasUnits = true
			}
			if h.Settlement != nil && h.ControlledBy == civ.ID {
				hasSettlements = true
			}
		})
		return !hasUnits && !hasSettlements
	default:
		return false
	}
}

func evalVictory(gs *state.GameState, th *theme.ThemePackage, survivors []string, cond theme.VictoryCondition) bool {
	switch cond.Kind {
	case theme.VictoryEliminateAll:
		return len(survivors) == 1
	case theme.VictoryControlHexes:
		for _, civID := range survivors {
			count := 0
			gs.Map.Each(func(h *state.Hex) {
				if h.ControlledBy == civID {
					count++
				}
			})
			if count >= cond.Count {
				return true
			}
		}
		return false
	case theme.VictoryResourceAccumulate:
		for _, civID := range survivors {
			if gs.Civilizations[civID].Resources[cond.Resource] >= cond.Amount {
				return true
			}
		}
		return false
	case theme.VictoryTechAdvance:
		for _, civID := range survivors {
			if gs.Civilizations[civID].HasCompletedTech(cond.TechID) {
				return true
			}
		}
		return false
	case theme.VictorySurviveTurns:
		return gs.Turn >= cond.Turns
	default:
		return false
	}
}

// applyDiplomacyTensionEffects applies the cross-religion war-declaration
// and same-religion-alliance tension updates spec.md §4.10 lists.
func applyDiplomacyTensionEffects(gs *state.GameState, th *theme.ThemePackage, orders []state.Order, issuerOf map[int]string) {
	for i, o := range orders {
		if o.Kind != state.OrderDiplomatic {
			continue
		}
		issuer := issuerOf[i]
		issuerCiv, ok := gs.Civilizations[issuer]
		if !ok {
			continue
		}
		targetCiv, ok := gs.Civilizations[o.TargetCivID]
		if !ok {
			continue
		}
		issuerDef, _ := th.Civilization(issuer)
		targetDef, _ := th.Civilization(o.TargetCivID)

		switch o.ActionType {
		case state.ActionDeclareWar:
			if issuerDef.Religion != "" && targetDef.Religion != "" && issuerDef.Religion != targetDef.Religion {
				min, max := th.TensionRange("religious_fervor")
				issuerCiv.AddTension("religious_fervor", 10, min, max)
				targetCiv.AddTension("religious_fervor", 10, min, max)
			}
		case state.ActionProposeAlliance:
			if issuerCiv.RelationWith(o.TargetCivID) == state.RelationAlliance &&
				issuerDef.Religion != "" && issuerDef.Religion == targetDef.Religion {
				min, max := th.TensionRange("religious_fervor")
				issuerCiv.AddTension("religious_fervor", -5, min, max)
				targetCiv.AddTension("religious_fervor", -5, min, max)
			}
		}
	}
}

// applyReligiousTension handles the religious-building-constructed tension
// update: owner +3, every different-religion neighbor civ +5.
func applyReligiousTension(gs *state.GameState, th *theme.ThemePackage, civID string, h *state.Hex, b theme.BuildingDef) {
	if !isReligiousBuilding(b) {
		return
	}
	civ, ok := gs.Civilizations[civID]
	if !ok {
		return
	}
	min, max := th.TensionRange("religious_fervor")
	civ.AddTension("religious_fervor", 3, min, max)

	ownerDef, _ := th.Civilization(civID)
	for _, n := range h.Coord.Neighbors() {
		nh := gs.Map.Get(n)
		if nh == nil || nh.ControlledBy == "" || nh.ControlledBy == civID {
			continue
		}
		neighborDef, _ := th.Civilization(nh.ControlledBy)
		if ownerDef.Religion == "" || neighborDef.Religion == "" || ownerDef.Religion == neighborDef.Religion {
			continue
		}
		if neighborCiv, ok := gs.Civilizations[nh.ControlledBy]; ok {
			neighborCiv.AddTension("religious_fervor", 5, min, max)
		}
	}
}

func isReligiousBuilding(b theme.BuildingDef) bool {
	return b.ID == "mosque" || b.ID == "shrine" || b.ID == "temple"
}

// resolveMuwardiInvasion checks the muwardi_threat counter and spawns the
// invasion when it has been at religious_fervor > 90 for two consecutive
// turns, per spec.md §4.10.
func resolveMuwardiInvasion(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, ids IDGenerator) []string {
	var logs []string
	muwardiDef, hasMuwardi := th.Civilization("muwardi")
	if !hasMuwardi {
		return nil
	}

	if gs.MuwardiInvasion != nil && gs.MuwardiInvasion.Active {
		if muwardiEliminated(gs) {
			gs.MuwardiInvasion.Active = false
			if civ, ok := gs.Civilizations["muwardi"]; ok {
				min, max := th.TensionRange("religious_fervor")
				civ.AddTension("religious_fervor", -20, min, max)
			}
			logs = append(logs, "muwardi: invasion force eliminated")
		}
		return logs
	}

	gs.EachCivilization(func(civ *state.CivilizationState) {
		if gs.MuwardiInvasion != nil && gs.MuwardiInvasion.Active {
			return
		}
		civDef, _ := th.Civilization(civ.ID)
		if civDef.Religion != "asharite" {
			return
		}
		if civ.TensionAxes["religious_fervor"] > 90 {
			civ.TensionAxes["muwardi_threat"]++
		} else {
			civ.TensionAxes["muwardi_threat"] = 0
		}
		if civ.TensionAxes["muwardi_threat"] >= 2 {
			spawnMuwardiInvasion(gs, th, idx, muwardiDef, ids)
			logs = append(logs, "muwardi: invasion triggered")
		}
	})

	return logs
}

func muwardiEliminated(gs *state.GameState) bool {
	hasUnits := false
	gs.Map.Each(func(h *state.Hex) {
		if len(h.UnitsOf("muwardi")) > 0 {
			hasUnits = true
		}
	})
	return !hasUnits
}

func spawnMuwardiInvasion(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, muwardiDef theme.CivilizationDef, ids IDGenerator) {
	if _, ok := gs.Civilizations["muwardi"]; !ok {
		gs.AddCivilization(state.NewCivilizationState("muwardi"))
	}
	unitDef, ok := idx.CheapestUnit(nil)
	if !ok {
		return
	}

	spawnRow := firstNonSeaRowFromBottom(gs.Map)
	if spawnRow < 0 {
		return
	}
	col := gs.Map.Cols / 2
	h := gs.Map.Get(hexgrid.Coord{Col: col, Row: spawnRow})
	if h == nil {
		return
	}
	for i := 0; i < 3; i++ {
		h.Units = append(h.Units, state.Unit{
			ID:             ids.NextUnitID(),
			DefinitionID:   unitDef.ID,
			CivilizationID: "muwardi",
			Strength:       unitDef.Strength,
			Morale:         unitDef.Morale,
			MovesRemaining: unitDef.Moves,
		})
	}

	for _, civID := range gs.NonEliminatedCivIDs() {
		if civID == "muwardi" {
			continue
		}
		state.SetRelationSymmetric(gs.Civilizations, civID, "muwardi", state.RelationWar)
	}

	gs.MuwardiInvasion = &state.MuwardiInvasion{Active: true, SpawnedOnTurn: gs.Turn}
}

func firstNonSeaRowFromBottom(m *state.Map) int {
	for r := m.Rows - 1; r >= 0; r-- {
		for c := 0; c < m.Cols; c++ {
			if !m.Hexes[r][c].Terrain.IsSea() {
				return r
			}
		}
	}
	return -1
}

// buildSummary assembles one TurnSummary entry from the pre-resolution
// snapshots, this turn's combat reports, and the narrative log. Narrative
// lines are the turn's log lines that name the civ (movement rejections,
// combat outcomes, diplomacy messages, construction/recruitment/research
// results), plus a humanized resource-delta line per changed resource;
// activated events are this civ's targets among the events this turn
// activated (spec.md §4.10's "narrative lines" and "activated-this-turn
// event ids").
func buildSummary(gs *state.GameState, snapshots map[string]snapshot, reports []state.CombatReport, logs []string, resolvedAt string) state.TurnSummary {
	reportsByCiv := map[string][]state.CombatReport{}
	for _, r := range reports {
		reportsByCiv[r.AttackerCivID] = append(reportsByCiv[r.AttackerCivID], r)
		reportsByCiv[r.DefenderCivID] = append(reportsByCiv[r.DefenderCivID], r)
	}

	turnOrdinal := humanize.Ordinal(gs.Turn)

	var civs []state.CivTurnSummary
	gs.EachCivilization(func(civ *state.CivilizationState) {
		snap, ok := snapshots[civ.ID]
		if !ok {
			snap = snapshot{}
		}
		deltas := map[string]int{}
		keys := map[string]bool{}
		for k := range snap.resources {
			keys[k] = true
		}
		for k := range civ.Resources {
			keys[k] = true
		}
		resKeys := make([]string, 0, len(keys))
		for k := range keys {
			resKeys = append(resKeys, k)
		}
		sort.Strings(resKeys)
		for _, k := range resKeys {
			d := civ.Resources[k] - snap.resources[k]
			if d != 0 {
				deltas[k] = d
			}
		}

		var newTechs []string
		before := map[string]bool{}
		for _, t := range snap.techs {
			before[t] = true
		}
		for _, t := range civ.CompletedTechs {
			if !before[t] {
				newTechs = append(newTechs, t)
			}
		}

		narrative := linesForCiv(logs, civ.ID)
		for _, k := range resKeys {
			if d := deltas[k]; d != 0 {
				sign := ""
				if d > 0 {
					sign = "+"
				}
				narrative = append(narrative, fmt.Sprintf("%s turn: %s %s%s", turnOrdinal, k, sign, humanize.Comma(int64(d))))
			}
		}

		var activated []string
		for _, ae := range gs.ActiveEvents {
			if ae.ActivatedOnTurn == gs.Turn && ae.TargetsCiv(civ.ID) {
				activated = append(activated, ae.DefinitionID)
			}
		}

		civs = append(civs, state.CivTurnSummary{
			CivilizationID:  civ.ID,
			ResourceDeltas:  deltas,
			TechsCompleted:  newTechs,
			CombatReports:   reportsByCiv[civ.ID],
			ActivatedEvents: activated,
			NarrativeLines:  narrative,
		})
	})

	return state.TurnSummary{
		Turn:       gs.Turn,
		ResolvedAt: resolvedAt,
		Civs:       civs,
	}
}

// linesForCiv filters the turn's flat log to the lines that name civID —
// movement rejections, combat outcomes, diplomacy messages, and
// construction/recruitment/research results all embed the acting or
// affected civ's id directly in the message text.
func linesForCiv(logs []string, civID string) []string {
	var out []string
	for _, l := range logs {
		if strings.Contains(l, civID) {
			out = append(out, l)
		}
	}
	return out
}
