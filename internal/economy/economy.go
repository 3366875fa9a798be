// Package economy resolves terrain yields, building effects, upkeep,
// resource interactions, special-ability bonuses, and tension-driven
// stability/faith effects for one turn. Grounded on the teacher's
// internal/engine/production.go per-settlement accumulation shape and
// internal/engine/seasons.go cycle modifiers, generalized to
// per-civilization accounting (SPEC_FULL.md §4.5).
package economy

import (
	"fmt"
	"math"

	"github.com/ashkar-house/realms/internal/ability"
	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// Resolve applies one turn of economy to gs in place and returns narrative
// log lines. allocations is the per-civ resource_allocation weights
// submitted this turn (may be nil or partial; missing civs/resources fall
// back to the uniform default).
func Resolve(gs *state.GameState, th *theme.ThemePackage, idx *theme.Index, allocations map[string]map[string]float64, turn int) ([]string, error) {
	var logs []string

	seasonal, hasSeasonal := th.TurnCycleEffectForTurn(turn)

	gs.EachCivilization(func(civ *state.CivilizationState) {
		if civ.IsEliminated {
			return
		}

		upkeep := 0
		stabilityDelta := 0

		// Terrain yield per controlled hex.
		weights := resolveAllocation(allocations[civ.ID], th.Resources)
		gs.Map.Each(func(h *state.Hex) {
			if h.ControlledBy != civ.ID {
				return
			}
			for _, r := range th.Resources {
				terrainYield, ok := r.TerrainYields[string(h.Terrain)]
				if !ok {
					continue
				}
				mult := 1.0
				if hasSeasonal {
					if m, ok := seasonal.ResourceMultipliers[r.ID]; ok {
						mult = m
					}
				}
				amount := terrainYield * mult * weights[r.ID]
				civ.AddResource(r.ID, int(math.Floor(amount)))
			}
		})

		// Building effects on every controlled settlement.
		cultureBonus := ability.HasCultureBuildingBonus(civDef(th, civ.ID).SpecialAbilities)
		gs.Map.Each(func(h *state.Hex) {
			if h.ControlledBy != civ.ID || h.Settlement == nil {
				return
			}
			for _, bID := range h.Settlement.Buildings {
				b, ok := idx.Building(bID)
				if !ok {
					return
				}
				for _, eff := range b.Effects {
					delta := eff.Delta
					if cultureBonus && eff.ResourceID == "faith" {
						delta *= 1.5
					}
					if eff.ResourceID == "stability" {
						stabilityDelta += int(math.Floor(delta))
						continue
					}
					civ.AddResource(eff.ResourceID, int(math.Floor(delta)))
				}
				upkeep += b.Upkeep
			}
		})

		// Unit upkeep, summed over all units owned by the civ regardless
		// of hex control.
		gs.Map.Each(func(h *state.Hex) {
			for _, u := range h.Units {
				if u.CivilizationID != civ.ID {
					continue
				}
				if def, ok := idx.Unit(u.DefinitionID); ok {
					upkeep += def.Upkeep
				}
			}
		})

		// Civilization special abilities.
		abilities := civDef(th, civ.ID).SpecialAbilities
		if bonus, ok := ability.CavalryMarketBonus(abilities); ok {
			gs.Map.Each(func(h *state.Hex) {
				if h.ControlledBy != civ.ID || h.Settlement == nil {
					return
				}
				if h.Settlement.BuildingCount("market") == 0 {
					return
				}
				for _, u := range h.UnitsOf(civ.ID) {
					if def, ok := idx.Unit(u.DefinitionID); ok && ability.IsCavalryUnitName(def.DisplayName) {
						civ.AddResource("dinars", bonus)
					}
				}
			})
		}
		if bonus, ok := ability.TradeGoodsConnectedBonus(abilities); ok {
			applyConnectedSettlementsBonus(gs, civ, bonus)
		}

		// Resource interactions: source not consumed.
		for _, ri := range th.Mechanics.ResourceInteractions {
			source := civ.Resources[ri.Source]
			civ.AddResource(ri.Target, int(math.Floor(float64(source)*ri.Multiplier)))
		}

		// Custom tech effects applied in the economy phase.
		for _, techID := range civ.CompletedTechs {
			tech, ok := idx.Tech(techID)
			if !ok {
				continue
			}
			for _, eff := range tech.Effects {
				if eff.Kind != theme.TechCustom || eff.Custom == nil {
					continue
				}
				switch eff.Custom.Key {
				case "resource_conversion":
					applyResourceConversion(civ, eff.Custom.Value)
				case "cultural_victory_progress":
					if v, err := parseFloat(eff.Custom.Value); err == nil {
						civ.AddResource("faith", int(math.Floor(v)))
					}
				}
			}
		}

		// Tension-axis effects on stability/faith.
		if fervor, ok := civ.TensionAxes["religious_fervor"]; ok {
			switch {
			case fervor > 70:
				stabilityDelta -= 3
			case fervor < 30:
				stabilityDelta += 2
				civ.AddResource("faith", 2)
			}
		}

		// Apply upkeep last, floored at 0.
		civ.AddResource("dinars", -upkeep)

		civ.Stability += stabilityDelta
		civ.ClampStability()

		logs = append(logs, fmt.Sprintf("economy: %s paid %d upkeep", civ.ID, upkeep))
	})

	return logs, nil
}

func civDef(th *theme.ThemePackage, civID string) theme.CivilizationDef {
	def, _ := th.Civilization(civID)
	return def
}

// resolveAllocation returns the per-resource rescale factor: default
// uniform 1/N per resource (factor 1.0), rescaled by the civ's declared
// weights relative to that uniform baseline.
func resolveAllocation(civWeights map[string]float64, resources []theme.ResourceDef) map[string]float64 {
	n := len(resources)
	out := make(map[string]float64, n)
	if n == 0 {
		return out
	}
	if len(civWeights) == 0 {
		for _, r := range resources {
			out[r.ID] = 1.0
		}
		return out
	}
	total := 0.0
	for _, r := range resources {
		total += civWeights[r.ID]
	}
	if total <= 0 {
		for _, r := range resources {
			out[r.ID] = 1.0
		}
		return out
	}
	uniform := 1.0 / float64(n)
	for _, r := range resources {
		share := civWeights[r.ID] / total
		out[r.ID] = share / uniform
	}
	return out
}

// applyConnectedSettlementsBonus grants bonus trade_goods to every
// non-capital owned settlement reachable from the capital over the civ's
// own controlled hexes.
func applyConnectedSettlementsBonus(gs *state.GameState, civ *state.CivilizationState, bonus int) {
	capCoord, capSett, ok := gs.Map.FindCapital(civ.ID)
	if !ok || capSett == nil {
		return
	}
	grid := hexgrid.Grid{
		Rows: gs.Map.Rows,
		Cols: gs.Map.Cols,
		Passable: func(c hexgrid.Coord) bool {
			h := gs.Map.Get(c)
			return h != nil && h.ControlledBy == civ.ID
		},
	}
	reachable := hexgrid.Reachable(grid, capCoord, gs.Map.Rows*gs.Map.Cols)
	for _, c := range reachable {
		h := gs.Map.Get(c)
		if h == nil || h.Settlement == nil || h.Settlement.IsCapital {
			continue
		}
		civ.AddResource("trade_goods", bonus)
	}
}

func applyResourceConversion(civ *state.CivilizationState, raw string) {
	// raw format: "from fromAmount to toAmount" (space-separated), parsed defensively since
	// theme custom-effect values are free-form strings (spec.md §4.3).
	var from, to string
	var fromAmount, toAmount float64
	n, err := fmt.Sscanf(raw, "%s %f %s %f", &from, &fromAmount, &to, &toAmount)
	if err != nil || n != 4 {
		return
	}
	if float64(civ.Resources[from]) < fromAmount {
		return
	}
	civ.AddResource(from, -int(fromAmount))
	civ.AddResource(to, int(toAmount))
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}
