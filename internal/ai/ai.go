// Package ai implements the AI governor: a personality-driven heuristic
// order generator that fills in for any civ without a human-submitted
// order batch. Grounded on the teacher's internal/agents/archetype.go
// priority-list dispatch, generalized from per-agent daily routines to
// per-civ turn orders (spec.md §4.9).
package ai

import (
	"sort"

	"github.com/ashkar-house/realms/internal/ability"
	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

const muwardiCivID = "muwardi"

var priorities = map[ability.Personality][]string{
	ability.PersonalityMilitary:   {"garrison", "recruit", "diplomacy", "attack", "expand", "events", "research", "build"},
	ability.PersonalityDiplomatic: {"garrison", "diplomacy", "trade", "events", "research", "recruit", "build", "expand", "attack"},
	ability.PersonalityMerchant:   {"garrison", "diplomacy", "trade", "expand", "events", "recruit", "build", "research", "attack"},
	ability.PersonalityPacifist:   {"diplomacy", "trade", "events", "research", "recruit", "build"},
}

// context carries per-call mutable bookkeeping shared across heuristics so
// no unit is given two move orders in the same turn.
type context struct {
	gs          *state.GameState
	civID       string
	th          *theme.ThemePackage
	idx         *theme.Index
	p           *prng.PRNG
	personality ability.Personality
	movedUnits  map[string]bool
	orders      []state.Order
}

// GenerateOrders produces one civ's order batch for the turn.
func GenerateOrders(gs *state.GameState, civID string, th *theme.ThemePackage, idx *theme.Index, p *prng.PRNG, submittedAt string) state.PlayerOrders {
	if civID == muwardiCivID {
		return state.PlayerOrders{
			CivilizationID: civID,
			Orders:         muwardiOrders(gs, civID),
			SubmittedAt:    submittedAt,
		}
	}

	civDef, _ := th.Civilization(civID)
	personality := ability.InferPersonality(civDef.SpecialAbilities)

	c := &context{gs: gs, civID: civID, th: th, idx: idx, p: p, personality: personality, movedUnits: map[string]bool{}}

	for _, step := range priorities[personality] {
		switch step {
		case "garrison":
			c.garrison()
		case "expand":
			c.expand()
		case "attack":
			c.attack()
		case "events":
			c.events()
		case "research":
			c.research()
		case "recruit":
			c.recruit()
		case "diplomacy":
			c.diplomacy()
		case "build":
			c.build()
		case "trade":
			c.trade()
		}
	}

	return state.PlayerOrders{
		CivilizationID: civID,
		Orders:         c.orders,
		SubmittedAt:    submittedAt,
	}
}

func (c *context) civ() *state.CivilizationState {
	return c.gs.Civilizations[c.civID]
}

func (c *context) ownedHexes() []*state.Hex {
	var out []*state.Hex
	c.gs.Map.Each(func(h *state.Hex) {
		if h.ControlledBy == c.civID {
			out = append(out, h)
		}
	})
	return out
}

func (c *context) idleUnits() []state.Unit {
	var out []state.Unit
	c.gs.Map.Each(func(h *state.Hex) {
		for _, u := range h.UnitsOf(c.civID) {
			if !c.movedUnits[u.ID] && !u.IsGarrisoned {
				out = append(out, u)
			}
		}
	})
	return out
}

func (c *context) moveUnit(unitID string, path []hexgrid.Coord) {
	if len(path) == 0 || c.movedUnits[unitID] {
		return
	}
	c.movedUnits[unitID] = true
	c.orders = append(c.orders, state.Order{Kind: state.OrderMove, UnitID: unitID, Path: path})
}

// garrison moves the nearest idle unit toward the capital if it has no
// friendly unit present.
func (c *context) garrison() {
	coord, _, ok := c.gs.Map.FindCapital(c.civID)
	if !ok {
		return
	}
	capHex := c.gs.Map.Get(coord)
	if len(capHex.UnitsOf(c.civID)) > 0 {
		return
	}
	grid := c.gs.Map.Grid()
	var best state.Unit
	var bestPath []hexgrid.Coord
	found := false
	c.gs.Map.Each(func(h *state.Hex) {
		for _, u := range h.UnitsOf(c.civID) {
			if c.movedUnits[u.ID] {
				continue
			}
			path := hexgrid.PathTo(grid, h.Coord, coord, u.MovesRemaining)
			if len(path) == 0 {
				continue
			}
			if !found || len(path) < len(bestPath) {
				best, bestPath, found = u, path, true
			}
		}
	})
	if found {
		c.moveUnit(best.ID, bestPath)
	}
}

// expand moves idle units toward the nearest unclaimed (uncontrolled,
// non-sea) settlement, capped by personality.
func (c *context) expand() {
	limit := map[ability.Personality]int{
		ability.PersonalityMilitary:   1 << 30,
		ability.PersonalityMerchant:   2,
		ability.PersonalityDiplomatic: 1,
		ability.PersonalityPacifist:   0,
	}[c.personality]
	if limit == 0 {
		return
	}

	grid := c.gs.Map.Grid()
	var targets []hexgrid.Coord
	c.gs.Map.Each(func(h *state.Hex) {
		if h.Settlement != nil && h.ControlledBy == "" {
			targets = append(targets, h.Coord)
		}
	})
	if len(targets) == 0 {
		return
	}

	sent := 0
	for _, u := range c.idleUnits() {
		if sent >= limit {
			return
		}
		origin := unitHexCoord(c.gs, u.ID, c.civID)
		if origin == nil {
			continue
		}
		var bestPath []hexgrid.Coord
		for _, t := range targets {
			path := hexgrid.PathTo(grid, *origin, t, u.MovesRemaining)
			if len(path) == 0 {
				continue
			}
			if bestPath == nil || len(path) < len(bestPath) {
				bestPath = path
			}
		}
		if bestPath != nil {
			c.moveUnit(u.ID, bestPath)
			sent++
		}
	}
}

// attack concentrates idle units on the closest enemy-at-war unit.
func (c *context) attack() {
	if c.personality == ability.PersonalityPacifist {
		return
	}
	if c.personality == ability.PersonalityDiplomatic && c.civ().Stability > 60 {
		return
	}

	grid := c.gs.Map.Grid()
	var target *hexgrid.Coord
	c.gs.Map.Each(func(h *state.Hex) {
		if target != nil {
			return
		}
		for _, u := range h.Units {
			if u.CivilizationID == c.civID {
				continue
			}
			if c.civ().AtWarWith(u.CivilizationID) {
				coord := h.Coord
				target = &coord
				return
			}
		}
	})
	if target == nil {
		return
	}

	for _, u := range c.idleUnits() {
		origin := unitHexCoord(c.gs, u.ID, c.civID)
		if origin == nil {
			continue
		}
		path := hexgrid.PathTo(grid, *origin, *target, u.MovesRemaining)
		if len(path) > 0 {
			c.moveUnit(u.ID, path)
		}
	}
}

// events responds to every active event targeting this civ with its
// default choice.
func (c *context) events() {
	for _, ae := range c.gs.ActiveEvents {
		if ae.Resolved || !ae.TargetsCiv(c.civID) {
			continue
		}
		if ae.RespondedCivs()[c.civID] {
			continue
		}
		def, ok := c.idx.Event(ae.DefinitionID)
		if !ok {
			continue
		}
		c.orders = append(c.orders, state.Order{
			Kind:            state.OrderEventResponse,
			EventInstanceID: ae.InstanceID,
			ChoiceID:        def.DefaultChoiceID,
		})
	}
}

// research scores available techs by personality and allocates 20 points
// to the best one.
func (c *context) research() {
	civ := c.civ()
	var best theme.TechDef
	bestScore := -1.0
	found := false
	for _, t := range c.th.Techs {
		if civ.HasCompletedTech(t.ID) {
			continue
		}
		if !prereqsMet(civ, t.Prereqs) {
			continue
		}
		score := scoreTech(t, c.personality)
		if !found || score > bestScore {
			best, bestScore, found = t, score, true
		}
	}
	if !found {
		return
	}
	c.orders = append(c.orders, state.Order{Kind: state.OrderResearch, TechID: best.ID, PointsAllocated: 20})
}

func prereqsMet(civ *state.CivilizationState, prereqs []string) bool {
	for _, p := range prereqs {
		if !civ.HasCompletedTech(p) {
			return false
		}
	}
	return true
}

func scoreTech(t theme.TechDef, personality ability.Personality) float64 {
	score := 0.0
	for _, eff := range t.Effects {
		switch {
		case personality == ability.PersonalityMilitary && (eff.Kind == theme.TechCombatModifier || eff.Kind == theme.TechUnlockUnit):
			score += 2
		case personality == ability.PersonalityMerchant && (eff.Kind == theme.TechResourceModifier || eff.Kind == theme.TechUnlockBuilding):
			score += 2
		case personality == ability.PersonalityDiplomatic && eff.Kind == theme.TechStabilityModifier:
			score += 2
		default:
			score += 0.5
		}
	}
	if personality == ability.PersonalityPacifist {
		score -= float64(t.Cost) * 0.01
	}
	return score
}

// recruit spawns the cheapest affordable eligible unit when the civ's unit
// count is below its personality threshold.
func (c *context) recruit() {
	threshold := map[ability.Personality]int{
		ability.PersonalityMilitary:   5,
		ability.PersonalityDiplomatic: 3,
		ability.PersonalityMerchant:   3,
		ability.PersonalityPacifist:   1,
	}[c.personality]

	count := 0
	c.gs.Map.Each(func(h *state.Hex) {
		count += len(h.UnitsOf(c.civID))
	})
	if count >= threshold {
		return
	}
	if c.personality == ability.PersonalityPacifist && !c.threatened() {
		return
	}

	_, sett, ok := c.gs.Map.FindCapital(c.civID)
	if !ok {
		sett = nil
		for _, h := range c.ownedHexes() {
			if h.Settlement != nil {
				sett = h.Settlement
				ok = true
				break
			}
		}
	}
	if !ok || sett == nil {
		return
	}

	civ := c.civ()
	unitDef, found := c.idx.CheapestUnit(civ.CompletedTechs)
	if !found || civ.Resources["dinars"] < unitDef.Cost {
		return
	}
	c.orders = append(c.orders, state.Order{
		Kind:             state.OrderRecruit,
		SettlementID:     sett.ID,
		UnitDefinitionID: unitDef.ID,
	})
}

func (c *context) threatened() bool {
	threatened := false
	c.gs.Map.Each(func(h *state.Hex) {
		if threatened || h.ControlledBy != c.civID {
			return
		}
		for _, u := range h.Units {
			if u.CivilizationID != c.civID && c.civ().AtWarWith(u.CivilizationID) {
				threatened = true
				return
			}
		}
	})
	return threatened
}

// diplomacy proposes peace when struggling, or declares war opportunistically.
func (c *context) diplomacy() {
	civ := c.civ()
	if civ.Stability < 40 && civ.IsAtWar() {
		for other, rel := range civ.DiplomaticRelations {
			if rel == state.RelationWar {
				c.orders = append(c.orders, state.Order{Kind: state.OrderDiplomatic, ActionType: state.ActionProposePeace, TargetCivID: other})
			}
		}
		return
	}

	if c.personality != ability.PersonalityMilitary {
		return
	}
	ownUnits := 0
	c.gs.Map.Each(func(h *state.Hex) { ownUnits += len(h.UnitsOf(c.civID)) })
	if ownUnits < 3 {
		return
	}

	for _, otherID := range c.gs.NonEliminatedCivIDs() {
		if otherID == c.civID {
			continue
		}
		if civ.RelationWith(otherID) != state.RelationPeace {
			continue
		}
		otherUnits := 0
		c.gs.Map.Each(func(h *state.Hex) { otherUnits += len(h.UnitsOf(otherID)) })
		if otherUnits < ownUnits {
			c.orders = append(c.orders, state.Order{Kind: state.OrderDiplomatic, ActionType: state.ActionDeclareWar, TargetCivID: otherID})
			return
		}
	}
}

var buildPreferences = map[ability.Personality][]string{
	ability.PersonalityMilitary:   {"barracks", "stables", "granary", "market"},
	ability.PersonalityMerchant:   {"market", "port", "granary", "library"},
	ability.PersonalityDiplomatic: {"library", "embassy", "mosque", "granary"},
	ability.PersonalityPacifist:   {"library", "granary", "market", "mosque"},
}

// build walks the personality's preference list and picks the first
// affordable, prereq-met, under-cap building.
func (c *context) build() {
	civ := c.civ()
	_, sett, ok := c.gs.Map.FindCapital(c.civID)
	if !ok {
		for _, h := range c.ownedHexes() {
			if h.Settlement != nil {
				sett, ok = h.Settlement, true
				break
			}
		}
	}
	if !ok || sett == nil {
		return
	}

	for _, bID := range buildPreferences[c.personality] {
		b, found := c.idx.Building(bID)
		if !found {
			continue
		}
		if b.PrereqTech != "" && !civ.HasCompletedTech(b.PrereqTech) {
			continue
		}
		if b.MaxPerSettlement > 0 && sett.BuildingCount(b.ID) >= b.MaxPerSettlement {
			continue
		}
		if civ.Resources["dinars"] < b.Cost {
			continue
		}
		c.orders = append(c.orders, state.Order{
			Kind:                 state.OrderConstruction,
			SettlementID:         sett.ID,
			BuildingDefinitionID: b.ID,
		})
		return
	}
}

// trade offers the civ's largest resource surplus for its largest deficit
// to the first non-war peer.
func (c *context) trade() {
	if c.personality == ability.PersonalityMilitary {
		return
	}
	civ := c.civ()
	if len(civ.Resources) == 0 {
		return
	}

	surplusMult, deficitMult := 1.5, 0.5
	if c.personality == ability.PersonalityMerchant {
		surplusMult, deficitMult = 1.2, 0.7
	}

	total := 0
	for _, v := range civ.Resources {
		total += v
	}
	mean := float64(total) / float64(len(civ.Resources))

	var surplusID, deficitID string
	surplusAmt, deficitAmt := -1, -1
	keys := sortedKeys(civ.Resources)
	for _, k := range keys {
		v := civ.Resources[k]
		if float64(v) > mean*surplusMult && v > surplusAmt {
			surplusID, surplusAmt = k, v
		}
		if float64(v) < mean*deficitMult && (deficitAmt == -1 || v < deficitAmt) {
			deficitID, deficitAmt = k, v
		}
	}
	if surplusID == "" || deficitID == "" {
		return
	}

	for _, otherID := range c.gs.NonEliminatedCivIDs() {
		if otherID == c.civID {
			continue
		}
		if civ.RelationWith(otherID) == state.RelationWar {
			continue
		}
		amount := surplusAmt
		if amount > 10 {
			amount = 10
		}
		c.orders = append(c.orders, state.Order{
			Kind:        state.OrderDiplomatic,
			ActionType:  state.ActionOfferTrade,
			TargetCivID: otherID,
			Trade: &state.TradeOffer{
				Offers: map[string]int{surplusID: amount},
				Wants:  map[string]int{deficitID: amount},
			},
		})
		return
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unitHexCoord(gs *state.GameState, unitID, civID string) *hexgrid.Coord {
	var found *hexgrid.Coord
	gs.Map.Each(func(h *state.Hex) {
		if found != nil {
			return
		}
		for _, u := range h.Units {
			if u.ID == unitID && u.CivilizationID == civID {
				coord := h.Coord
				found = &coord
				return
			}
		}
	})
	return found
}

// muwardiOrders moves every Muwardi unit BFS-toward the nearest
// non-Muwardi-controlled settlement.
func muwardiOrders(gs *state.GameState, civID string) []state.Order {
	grid := gs.Map.Grid()
	var targets []hexgrid.Coord
	gs.Map.Each(func(h *state.Hex) {
		if h.Settlement != nil && h.ControlledBy != civID {
			targets = append(targets, h.Coord)
		}
	})
	if len(targets) == 0 {
		return nil
	}

	var orders []state.Order
	gs.Map.Each(func(h *state.Hex) {
		for _, u := range h.UnitsOf(civID) {
			var bestPath []hexgrid.Coord
			for _, t := range targets {
				path := hexgrid.PathTo(grid, h.Coord, t, u.MovesRemaining)
				if len(path) == 0 {
					continue
				}
				if bestPath == nil || len(path) < len(bestPath) {
					bestPath = path
				}
			}
			if len(bestPath) > 0 {
				orders = append(orders, state.Order{Kind: state.OrderMove, UnitID: u.ID, Path: bestPath})
			}
		}
	})
	return orders
}
