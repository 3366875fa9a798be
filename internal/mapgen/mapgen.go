// Package mapgen builds the initial map from a theme's zones and anchors:
// deterministic anchor placement, zone-weighted terrain distribution, and
// fog-of-war seeding. Grounded on the teacher's world/generation.go and
// world/settlement_placer.go shape, with noise-based terrain derivation
// replaced by the spec's anchor-snap + zone-weight-merge + weightedChoice
// algorithm (SPEC_FULL.md §4.4).
package mapgen

import (
	"fmt"
	"sort"

	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// Generate builds a populated Map from the theme's MapConfig, placing
// anchors, distributing terrain, and writing initial control.
func Generate(t *theme.ThemePackage, idx *theme.Index, p *prng.PRNG) (*state.Map, []AnchorPlacement, error) {
	cfg := t.Map
	m := state.NewMap(cfg.Height, cfg.Width)

	zones := buildZoneLookup(cfg)

	placements, err := placeAnchors(m, cfg)
	if err != nil {
		return nil, nil, err
	}
	anchorAt := map[hexgrid.Coord]AnchorPlacement{}
	for _, ap := range placements {
		anchorAt[ap.Coord] = ap
	}

	m.Each(func(h *state.Hex) {
		weights := mergeWeights(cfg.DefaultTerrainWeights, zones[h.Coord])
		if _, isAnchor := anchorAt[h.Coord]; isAnchor {
			weights = excludeTerrains(weights, string(state.TerrainSea), string(state.TerrainMountains))
		}
		h.Terrain = pickTerrain(p, weights)
	})

	if cfg.SeaEdge {
		forceSeaEdge(m)
	}

	for _, ap := range placements {
		h := m.Get(ap.Coord)
		h.Terrain = pickLandTerrainIfSea(h.Terrain)
		h.Settlement = &state.Settlement{
			ID:         ap.Anchor.ID,
			Name:       ap.Anchor.Name,
			Type:       settlementType(ap.Anchor.Type),
			Population: startingPopulation(ap.Anchor.Type),
			Stability:  50,
			IsCapital:  ap.Anchor.Type == "capital",
		}
		h.ControlledBy = ap.Anchor.CivilizationID
	}

	for _, z := range cfg.Zones {
		if z.InitialControlledBy == "" {
			continue
		}
		for coord := range zoneHexesOf(m, z) {
			h := m.Get(coord)
			if h == nil || h.Settlement != nil {
				continue
			}
			h.ControlledBy = z.InitialControlledBy
		}
	}

	return m, placements, nil
}

// AnchorPlacement records where an anchor was actually placed after
// snapping and free-cell search.
type AnchorPlacement struct {
	Anchor theme.SettlementAnchor
	Coord  hexgrid.Coord
}

func buildZoneLookup(cfg theme.MapConfig) map[hexgrid.Coord]theme.MapZone {
	lookup := map[hexgrid.Coord]theme.MapZone{}
	for _, z := range cfg.Zones {
		switch z.Shape.Kind {
		case theme.ShapeRect:
			r := z.Shape.Rect
			for row := r.MinRow; row <= r.MaxRow; row++ {
				for col := r.MinCol; col <= r.MaxCol; col++ {
					lookup[hexgrid.Coord{Col: col, Row: row}] = z
				}
			}
		case theme.ShapeHexes:
			for _, hc := range z.Shape.Hexes {
				lookup[hexgrid.Coord{Col: hc.Col, Row: hc.Row}] = z
			}
		}
	}
	return lookup
}

func zoneHexesOf(m *state.Map, z theme.MapZone) map[hexgrid.Coord]bool {
	out := map[hexgrid.Coord]bool{}
	switch z.Shape.Kind {
	case theme.ShapeRect:
		r := z.Shape.Rect
		for row := r.MinRow; row <= r.MaxRow; row++ {
			for col := r.MinCol; col <= r.MaxCol; col++ {
				c := hexgrid.Coord{Col: col, Row: row}
				if m.InBounds(c) {
					out[c] = true
				}
			}
		}
	case theme.ShapeHexes:
		for _, hc := range z.Shape.Hexes {
			c := hexgrid.Coord{Col: hc.Col, Row: hc.Row}
			if m.InBounds(c) {
				out[c] = true
			}
		}
	}
	return out
}

func placeAnchors(m *state.Map, cfg theme.MapConfig) ([]AnchorPlacement, error) {
	occupied := map[hexgrid.Coord]bool{}
	var out []AnchorPlacement

	for _, a := range cfg.Anchors {
		snapped := hexgrid.Coord{Col: roundToInt(a.Col), Row: roundToInt(a.Row)}
		coord, ok := findFreeCell(m, snapped, occupied)
		if !ok {
			return nil, fmt.Errorf("mapgen: no free cell found for anchor %q", a.ID)
		}
		occupied[coord] = true
		out = append(out, AnchorPlacement{Anchor: a, Coord: coord})
	}
	return out, nil
}

func roundToInt(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}

// findFreeCell returns snapped if unoccupied and in bounds; otherwise BFS
// outward for the first free in-bounds cell, giving up (false) once more
// than rows*cols*4 cells have been visited.
func findFreeCell(m *state.Map, snapped hexgrid.Coord, occupied map[hexgrid.Coord]bool) (hexgrid.Coord, bool) {
	if m.InBounds(snapped) && !occupied[snapped] {
		return snapped, true
	}

	visited := map[hexgrid.Coord]bool{snapped: true}
	queue := []hexgrid.Coord{snapped}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if visited[n] {
				continue
			}
			visited[n] = true
			if !m.InBounds(n) {
				continue
			}
			if !occupied[n] {
				return n, true
			}
			queue = append(queue, n)
		}
		if len(visited) > m.Rows*m.Cols*4 {
			break
		}
	}
	return hexgrid.Coord{}, false
}

func mergeWeights(base map[string]float64, zone theme.MapZone) map[string]float64 {
	out := make(map[string]float64, len(base)+len(zone.TerrainWeights))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range zone.TerrainWeights {
		out[k] = v
	}
	return out
}

func excludeTerrains(weights map[string]float64, excluded ...string) map[string]float64 {
	out := make(map[string]float64, len(weights))
	skip := map[string]bool{}
	for _, e := range excluded {
		skip[e] = true
	}
	for k, v := range weights {
		if skip[k] {
			continue
		}
		out[k] = v
	}
	return out
}

func pickTerrain(p *prng.PRNG, weights map[string]float64) state.Terrain {
	if len(weights) == 0 {
		return state.TerrainPlains
	}
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]prng.Weighted[state.Terrain], 0, len(weights))
	for _, k := range keys {
		w := weights[k]
		if w <= 0 {
			continue
		}
		items = append(items, prng.Weighted[state.Terrain]{Value: state.Terrain(k), Weight: w})
	}
	if len(items) == 0 {
		return state.TerrainPlains
	}
	t, err := prng.WeightedChoice(p, items)
	if err != nil {
		return state.TerrainPlains
	}
	return t
}

func pickLandTerrainIfSea(t state.Terrain) state.Terrain {
	if t.IsSea() {
		return state.TerrainPlains
	}
	return t
}

func forceSeaEdge(m *state.Map) {
	for c := 0; c < m.Cols; c++ {
		m.Hexes[0][c].Terrain = state.TerrainSea
		m.Hexes[m.Rows-1][c].Terrain = state.TerrainSea
	}
	for r := 0; r < m.Rows; r++ {
		m.Hexes[r][0].Terrain = state.TerrainSea
		m.Hexes[r][m.Cols-1].Terrain = state.TerrainSea
	}
}

func settlementType(anchorType string) state.SettlementType {
	switch anchorType {
	case "capital":
		return state.SettlementCapital
	case "city":
		return state.SettlementCity
	case "town":
		return state.SettlementTown
	default:
		return state.SettlementOutpost
	}
}

func startingPopulation(anchorType string) int {
	switch anchorType {
	case "capital":
		return 5000
	case "city":
		return 2000
	case "town":
		return 500
	default:
		return 100
	}
}

// SeedStartingUnits places two garrisoned units of the cheapest
// tech-compatible unit definition at each civ's capital (spec.md §4.4
// step 6).
func SeedStartingUnits(m *state.Map, idx *theme.Index, placements []AnchorPlacement, civStartingTechs map[string][]string, nextUnitID func() string) {
	for _, ap := range placements {
		if ap.Anchor.Type != "capital" {
			continue
		}
		unitDef, ok := idx.CheapestUnit(civStartingTechs[ap.Anchor.CivilizationID])
		if !ok {
			continue
		}
		h := m.Get(ap.Coord)
		for i := 0; i < 2; i++ {
			h.Units = append(h.Units, state.Unit{
				ID:             nextUnitID(),
				DefinitionID:   unitDef.ID,
				CivilizationID: ap.Anchor.CivilizationID,
				Strength:       unitDef.Strength,
				Morale:         unitDef.Morale,
				MovesRemaining: unitDef.Moves,
				IsGarrisoned:   true,
			})
		}
	}
}

// SeedFogOfWar marks each capital and its neighbors as explored by the
// owning civ (spec.md §4.4 step 7).
func SeedFogOfWar(m *state.Map, placements []AnchorPlacement) {
	for _, ap := range placements {
		if ap.Anchor.Type != "capital" {
			continue
		}
		h := m.Get(ap.Coord)
		h.MarkExplored(ap.Anchor.CivilizationID)
		for _, n := range ap.Coord.Neighbors() {
			if nh := m.Get(n); nh != nil {
				nh.MarkExplored(ap.Anchor.CivilizationID)
			}
		}
	}
}
