// Package diplomacy resolves one turn's diplomatic orders: immediate
// actions, war cascades, mutual-proposal matching, and trade settlement.
// Grounded on the teacher's internal/world/relationships.go transition
// shape, generalized from pairwise agent affinity to the civ relation
// state machine spec.md §4.6 describes.
package diplomacy

import (
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// Message is one diplomatic communication produced during resolution.
type Message struct {
	From string
	To   string
	Text string
}

// Resolve applies every diplomatic order in gs's civs to gs in place and
// returns the turn's diplomatic messages. This phase never fails: unknown
// target ids and non-diplomatic orders are silently ignored.
func Resolve(gs *state.GameState, th *theme.ThemePackage, orders []state.Order, issuerOf map[int]string) []Message {
	var messages []Message

	gates := diplomacyGates(th)

	gated := make([]int, 0, len(orders))
	for i, o := range orders {
		if o.Kind != state.OrderDiplomatic {
			continue
		}
		issuer := issuerOf[i]
		if !actionAllowed(gs, gates, issuer, o.ActionType) {
			continue
		}
		gated = append(gated, i)
	}

	declaredWar := map[string]bool{}

	for _, i := range gated {
		o := orders[i]
		issuer := issuerOf[i]
		target := o.TargetCivID
		issuerCiv, ok := gs.Civilizations[issuer]
		if !ok {
			continue
		}

		switch o.ActionType {
		case state.ActionDeclareWar:
			if _, ok := gs.Civilizations[target]; !ok {
				continue
			}
			if declaredWar[pairKey(issuer, target)] {
				continue
			}
			declaredWar[pairKey(issuer, target)] = true
			state.SetRelationSymmetric(gs.Civilizations, issuer, target, state.RelationWar)
			issuerCiv.Stability -= 10
			issuerCiv.ClampStability()
			cascadeWar(gs, issuer, target)

		case state.ActionBreakAlliance:
			if _, ok := gs.Civilizations[target]; !ok {
				continue
			}
			state.SetRelationSymmetric(gs.Civilizations, issuer, target, state.RelationPeace)
			issuerCiv.Stability -= 5
			issuerCiv.ClampStability()

		case state.ActionProposeVassalage:
			if _, ok := gs.Civilizations[target]; !ok {
				continue
			}
			state.SetRelationSymmetric(gs.Civilizations, issuer, target, state.RelationVassal)

		case state.ActionSendMessage:
			if o.Message != "" {
				messages = append(messages, Message{From: issuer, To: target, Text: o.Message})
			}
		}
	}

	messages = append(messages, matchMutualProposals(gs, orders, issuerOf, gated)...)
	messages = append(messages, matchTrades(gs, orders, issuerOf, gated)...)

	return messages
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// cascadeWar puts every civ allied with target into war with issuer too
// (spec.md §4.6 war cascade).
func cascadeWar(gs *state.GameState, issuer, target string) {
	for _, allyID := range gs.NonEliminatedCivIDs() {
		if allyID == issuer || allyID == target {
			continue
		}
		ally, ok := gs.Civilizations[allyID]
		if !ok {
			continue
		}
		if ally.RelationWith(target) == state.RelationAlliance {
			state.SetRelationSymmetric(gs.Civilizations, issuer, allyID, state.RelationWar)
		}
	}
}

var mutualProposals = map[state.DiplomaticActionType]state.RelationshipState{
	state.ActionProposePeace:    state.RelationPeace,
	state.ActionProposeAlliance: state.RelationAlliance,
	state.ActionProposeTruce:    state.RelationTruce,
}

// matchMutualProposals applies propose_peace/alliance/truce only when the
// reciprocal proposal also appears this turn.
func matchMutualProposals(gs *state.GameState, orders []state.Order, issuerOf map[int]string, gated []int) []Message {
	type proposal struct {
		from, to string
		rel      state.RelationshipState
	}
	var proposals []proposal
	for _, i := range gated {
		o := orders[i]
		rel, ok := mutualProposals[o.ActionType]
		if !ok {
			continue
		}
		proposals = append(proposals, proposal{from: issuerOf[i], to: o.TargetCivID, rel: rel})
	}

	applied := map[string]bool{}
	for _, p := range proposals {
		key := p.from + ">" + p.to + ":" + string(p.rel)
		if applied[key] {
			continue
		}
		for _, q := range proposals {
			if q.from == p.to && q.to == p.from && q.rel == p.rel {
				if _, ok := gs.Civilizations[p.from]; !ok {
					continue
				}
				if _, ok := gs.Civilizations[p.to]; !ok {
					continue
				}
				state.SetRelationSymmetric(gs.Civilizations, p.from, p.to, p.rel)
				applied[key] = true
				applied[p.to+">"+p.from+":"+string(p.rel)] = true
				break
			}
		}
	}
	return nil
}

// matchTrades settles offer_trade orders: A offers X wants Y matches B
// offers Y' wants X' iff Y' >= Y and X >= X' component-wise and both sides
// can afford their side of the deal. Each order participates in at most
// one executed match.
func matchTrades(gs *state.GameState, orders []state.Order, issuerOf map[int]string, gated []int) []Message {
	type tradeOrder struct {
		idx    int
		issuer string
		o      state.Order
	}
	var trades []tradeOrder
	for _, i := range gated {
		o := orders[i]
		if o.ActionType != state.ActionOfferTrade || o.Trade == nil {
			continue
		}
		trades = append(trades, tradeOrder{idx: i, issuer: issuerOf[i], o: o})
	}

	matched := map[int]bool{}
	for a := 0; a < len(trades); a++ {
		if matched[trades[a].idx] {
			continue
		}
		for b := a + 1; b < len(trades); b++ {
			if matched[trades[b].idx] {
				continue
			}
			if trades[a].o.TargetCivID != trades[b].issuer || trades[b].o.TargetCivID != trades[a].issuer {
				continue
			}
			if !tradeMatches(trades[a].o.Trade, trades[b].o.Trade) {
				continue
			}
			civA, okA := gs.Civilizations[trades[a].issuer]
			civB, okB := gs.Civilizations[trades[b].issuer]
			if !okA || !okB {
				continue
			}
			if !canAfford(civA, trades[a].o.Trade.Offers) || !canAfford(civB, trades[b].o.Trade.Offers) {
				continue
			}
			executeTrade(civA, civB, trades[a].o.Trade)
			matched[trades[a].idx] = true
			matched[trades[b].idx] = true
			break
		}
	}
	return nil
}

// tradeMatches reports whether a's wants are satisfied by b's offer and
// vice versa: b.offers >= a.wants and a.offers >= b.wants, component-wise.
func tradeMatches(a, b *state.TradeOffer) bool {
	return mapGTE(b.Offers, a.Wants) && mapGTE(a.Offers, b.Wants)
}

func mapGTE(have, need map[string]int) bool {
	for k, v := range need {
		if have[k] < v {
			return false
		}
	}
	return true
}

func canAfford(civ *state.CivilizationState, offers map[string]int) bool {
	for k, v := range offers {
		if civ.Resources[k] < v {
			return false
		}
	}
	return true
}

func executeTrade(a, b *state.CivilizationState, aTrade *state.TradeOffer) {
	for res, amount := range aTrade.Offers {
		a.AddResource(res, -amount)
		b.AddResource(res, amount)
	}
	for res, amount := range aTrade.Wants {
		b.AddResource(res, -amount)
		a.AddResource(res, amount)
	}
}

// diplomacyGates maps a gated action name to the set of tech ids that
// unlock it, from every tech declaring
// custom{key:"unlock_diplomacy_action", value:<action>}.
func diplomacyGates(th *theme.ThemePackage) map[string][]string {
	gates := map[string][]string{}
	for _, tech := range th.Techs {
		for _, eff := range tech.Effects {
			if eff.Kind != theme.TechCustom || eff.Custom == nil {
				continue
			}
			if eff.Custom.Key != "unlock_diplomacy_action" {
				continue
			}
			gates[eff.Custom.Value] = append(gates[eff.Custom.Value], tech.ID)
		}
	}
	return gates
}

// actionAllowed tech-gates a diplomatic action: if any tech declares
// custom{key:"unlock_diplomacy_action", value:<action>}, the issuing civ
// must have completed one of those techs to use that action.
func actionAllowed(gs *state.GameState, gates map[string][]string, issuer string, action state.DiplomaticActionType) bool {
	requiredTechs, isGated := gates[string(action)]
	if !isGated {
		return true
	}
	civ, ok := gs.Civilizations[issuer]
	if !ok {
		return true
	}
	for _, techID := range requiredTechs {
		if civ.HasCompletedTech(techID) {
			return true
		}
	}
	return false
}
