// Package state defines the GameState data model: the hex map, civilization
// ledgers, units, settlements, active events, orders, and turn history that
// the resolver reads and rewrites every turn.
package state

import "github.com/ashkar-house/realms/internal/hexgrid"

// Terrain is one of the fixed terrain kinds. Sea is impassable to land units.
type Terrain string

const (
	TerrainPlains    Terrain = "plains"
	TerrainMountains Terrain = "mountains"
	TerrainForest    Terrain = "forest"
	TerrainDesert    Terrain = "desert"
	TerrainCoast     Terrain = "coast"
	TerrainSea       Terrain = "sea"
	TerrainRiver     Terrain = "river"
)

// IsSea reports whether the terrain is impassable to land units.
func (t Terrain) IsSea() bool {
	return t == TerrainSea
}

// SettlementType categorizes a settlement's scale.
type SettlementType string

const (
	SettlementCapital SettlementType = "capital"
	SettlementCity    SettlementType = "city"
	SettlementTown    SettlementType = "town"
	SettlementOutpost SettlementType = "outpost"
)

// Settlement is a population center sitting on a hex.
type Settlement struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        SettlementType `json:"type"`
	Population  int      `json:"population"`
	Stability   int      `json:"stability"`
	Buildings   []string `json:"buildings"` // building definition ids, may repeat up to a cap
	IsCapital   bool     `json:"isCapital"`
}

// BuildingCount returns how many instances of a building definition this
// settlement already holds.
func (s *Settlement) BuildingCount(defID string) int {
	n := 0
	for _, b := range s.Buildings {
		if b == defID {
			n++
		}
	}
	return n
}

// Unit is a single military unit on the map. Its civilization id is
// immutable for its lifetime — units transfer hexes by removal and
// re-insertion, never by mutating this field.
type Unit struct {
	ID             string `json:"id"`
	DefinitionID   string `json:"definitionId"`
	CivilizationID string `json:"civilizationId"`
	Strength       int    `json:"strength"`
	Morale         int    `json:"morale"`
	MovesRemaining int    `json:"movesRemaining"`
	IsGarrisoned   bool   `json:"isGarrisoned"`
}

// Alive reports whether the unit survives: strength and morale both
// strictly positive.
func (u Unit) Alive() bool {
	return u.Strength > 0 && u.Morale > 0
}

// Hex is a single tile of the map.
type Hex struct {
	Coord         hexgrid.Coord  `json:"coord"`
	Terrain       Terrain        `json:"terrain"`
	Settlement    *Settlement    `json:"settlement,omitempty"`
	ControlledBy  string         `json:"controlledBy,omitempty"`
	Units         []Unit         `json:"units,omitempty"`
	Resources     []string       `json:"resources,omitempty"`
	ExploredBy    map[string]bool `json:"exploredBy,omitempty"`
}

// UnitsOf returns the subset of the hex's units belonging to civID.
func (h *Hex) UnitsOf(civID string) []Unit {
	var out []Unit
	for _, u := range h.Units {
		if u.CivilizationID == civID {
			out = append(out, u)
		}
	}
	return out
}

// PresentCivilizations returns the distinct civilization ids with at least
// one unit on the hex, in first-seen order.
func (h *Hex) PresentCivilizations() []string {
	seen := map[string]bool{}
	var out []string
	for _, u := range h.Units {
		if !seen[u.CivilizationID] {
			seen[u.CivilizationID] = true
			out = append(out, u.CivilizationID)
		}
	}
	return out
}

// RemoveUnit removes the unit with the given id from the hex, by id, and
// returns it. The second return is false if no such unit was present.
func (h *Hex) RemoveUnit(unitID string) (Unit, bool) {
	for i, u := range h.Units {
		if u.ID == unitID {
			h.Units = append(h.Units[:i:i], h.Units[i+1:]...)
			return u, true
		}
	}
	return Unit{}, false
}

// MarkExplored adds civID to the hex's explored-by set.
func (h *Hex) MarkExplored(civID string) {
	if h.ExploredBy == nil {
		h.ExploredBy = map[string]bool{}
	}
	h.ExploredBy[civID] = true
}

// Map is the Hex[rows][cols] grid.
type Map struct {
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Hexes [][]Hex `json:"hexes"`
}

// NewMap allocates an empty rows x cols grid with coordinates set.
func NewMap(rows, cols int) *Map {
	m := &Map{Rows: rows, Cols: cols, Hexes: make([][]Hex, rows)}
	for r := 0; r < rows; r++ {
		m.Hexes[r] = make([]Hex, cols)
		for c := 0; c < cols; c++ {
			m.Hexes[r][c] = Hex{Coord: hexgrid.Coord{Col: c, Row: r}}
		}
	}
	return m
}

// Get returns a pointer to the hex at coord, or nil if out of bounds.
func (m *Map) Get(coord hexgrid.Coord) *Hex {
	if !m.InBounds(coord) {
		return nil
	}
	return &m.Hexes[coord.Row][coord.Col]
}

// InBounds reports whether coord is inside the grid.
func (m *Map) InBounds(coord hexgrid.Coord) bool {
	return coord.Col >= 0 && coord.Col < m.Cols && coord.Row >= 0 && coord.Row < m.Rows
}

// Grid returns a hexgrid.Grid view over the map, where sea hexes are
// impassable.
func (m *Map) Grid() hexgrid.Grid {
	return hexgrid.Grid{
		Rows: m.Rows,
		Cols: m.Cols,
		Passable: func(c hexgrid.Coord) bool {
			h := m.Get(c)
			return h != nil && !h.Terrain.IsSea()
		},
	}
}

// Each calls fn for every hex in row-major order, top-left to
// bottom-right — the iteration order spec.md §5 requires.
func (m *Map) Each(fn func(*Hex)) {
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			fn(&m.Hexes[r][c])
		}
	}
}

// FindCapital returns the coordinate and settlement of civID's capital, if
// it still owns one.
func (m *Map) FindCapital(civID string) (hexgrid.Coord, *Settlement, bool) {
	var found hexgrid.Coord
	var sett *Settlement
	ok := false
	m.Each(func(h *Hex) {
		if ok || h.ControlledBy != civID || h.Settlement == nil || !h.Settlement.IsCapital {
			return
		}
		found = h.Coord
		sett = h.Settlement
		ok = true
	})
	return found, sett, ok
}
