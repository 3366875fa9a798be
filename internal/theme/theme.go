// Package theme loads and validates a ThemePackage: the complete,
// versioned, game-content description a game is created from. A theme is
// immutable once loaded — nothing in the engine mutates it at runtime.
package theme

// ThemePackage is the full content description for one game.
type ThemePackage struct {
	ID      string `json:"id"`
	Version string `json:"version"`

	Civilizations []CivilizationDef    `json:"civilizations"`
	Map           MapConfig            `json:"map"`
	Resources     []ResourceDef        `json:"resources"`
	Techs         []TechDef            `json:"techs"`
	Buildings     []BuildingDef        `json:"buildings"`
	Units         []UnitDef            `json:"units"`
	Events        []EventDef           `json:"events"`
	Diplomacy     []DiplomacyOptionDef `json:"diplomacy"`
	Victory       []VictoryCondition   `json:"victory"`
	Defeat        []DefeatCondition    `json:"defeat"`
	Mechanics     MechanicsConfig      `json:"mechanics"`
	Flavor        map[string]string    `json:"flavor,omitempty"`
}

// CivilizationDef describes one playable (or AI-only) civilization.
type CivilizationDef struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Color             string         `json:"color"`
	Religion          string         `json:"religion"`
	StartingResources map[string]int `json:"startingResources"`
	StartingTechs     []string       `json:"startingTechs"`
	SpecialAbilities  []string       `json:"specialAbilities"`
}

// MapConfig describes how the initial map is generated.
type MapConfig struct {
	Width                 int                `json:"width"`
	Height                int                `json:"height"`
	SeaEdge               bool               `json:"seaEdge"`
	DefaultTerrainWeights map[string]float64 `json:"defaultTerrainWeights"`
	Zones                 []MapZone          `json:"zones"`
	Anchors               []SettlementAnchor `json:"anchors"`
}

// MapZone assigns terrain weights (and optionally initial control) to a
// region of the map, described by a tagged-union shape.
type MapZone struct {
	ID                  string             `json:"id"`
	Shape               MapZoneShape       `json:"shape"`
	TerrainWeights      map[string]float64 `json:"terrainWeights"`
	InitialControlledBy string             `json:"initialControlledBy,omitempty"`
}

// MapZoneShapeKind discriminates MapZoneShape's variants.
type MapZoneShapeKind string

const (
	ShapeRect  MapZoneShapeKind = "rect"
	ShapeHexes MapZoneShapeKind = "hexes"
)

// MapZoneShape is a tagged union: a rectangular bound or an explicit list
// of hexes.
type MapZoneShape struct {
	Kind  MapZoneShapeKind `json:"kind"`
	Rect  *RectBounds      `json:"rect,omitempty"`
	Hexes []HexCoord       `json:"hexes,omitempty"`
}

// RectBounds is an inclusive rectangular region in grid coordinates.
type RectBounds struct {
	MinCol int `json:"minCol"`
	MinRow int `json:"minRow"`
	MaxCol int `json:"maxCol"`
	MaxRow int `json:"maxRow"`
}

// HexCoord is a (col, row) pair in the theme's serialized form, kept
// independent of internal/hexgrid so theme has no engine-package
// dependency.
type HexCoord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Contains reports whether coord falls within the rectangle.
func (r RectBounds) Contains(c HexCoord) bool {
	return c.Col >= r.MinCol && c.Col <= r.MaxCol && c.Row >= r.MinRow && c.Row <= r.MaxRow
}

// SettlementAnchor is a named, preplaced settlement that constrains map
// generation.
type SettlementAnchor struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CivilizationID string  `json:"civilizationId"`
	Col            float64 `json:"col"`
	Row            float64 `json:"row"`
	Type           string  `json:"type"` // capital, city, town, outpost
}

// ResourceDef describes one tradeable/storable resource.
type ResourceDef struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	BaseYield     float64            `json:"baseYield"`
	TerrainYields map[string]float64 `json:"terrainYields"`
}

// TechDef is one node in the tech tree.
type TechDef struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Cost    int          `json:"cost"`
	Prereqs []string     `json:"prereqs"`
	Effects []TechEffect `json:"effects"`
}

// BuildingDef is one constructible building.
type BuildingDef struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Cost             int                 `json:"cost"`
	Upkeep           int                 `json:"upkeep"`
	Effects          []ResourceDelta     `json:"effects"`
	PrereqTech       string              `json:"prereqTech,omitempty"`
	MaxPerSettlement int                 `json:"maxPerSettlement"`
}

// ResourceDelta is a flat per-turn (resourceId, amount) adjustment. When
// ResourceID is "stability" it routes to the civ's stability instead of a
// resource ledger entry (spec.md §4.5).
type ResourceDelta struct {
	ResourceID string  `json:"resourceId"`
	Delta      float64 `json:"delta"`
}

// UnitDef is one recruitable unit type.
type UnitDef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Strength    int    `json:"strength"`
	Morale      int    `json:"morale"`
	Moves       int    `json:"moves"`
	Cost        int    `json:"cost"`
	Upkeep      int    `json:"upkeep"`
	PrereqTech  string `json:"prereqTech,omitempty"`
}

// DiplomacyOptionDef declares which relation states a diplomatic action
// may be issued from.
type DiplomacyOptionDef struct {
	Action               string   `json:"action"`
	AllowedRelationStates []string `json:"allowedRelationStates"`
}

// MechanicsConfig holds the cross-cutting numeric rules: tension axis
// ranges, terrain combat modifiers, resource interactions, and the
// turn-cycle (seasonal) definition.
type MechanicsConfig struct {
	TensionAxes              map[string]TensionAxisRange `json:"tensionAxes"`
	CombatModifiersByTerrain map[string]float64          `json:"combatModifiersByTerrain"`
	ResourceInteractions     []ResourceInteraction       `json:"resourceInteractions"`
	TurnCycleLength          int                         `json:"turnCycleLength"`
	TurnCycleNames           []string                    `json:"turnCycleNames"`
	TurnCycleEffects         []TurnCycleEffect           `json:"turnCycleEffects"`
}

// TensionAxisRange bounds one tension axis.
type TensionAxisRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ResourceInteraction declares that every unit of Source a civ holds
// produces Multiplier units of Target per turn (Source is not consumed).
type ResourceInteraction struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Multiplier float64 `json:"multiplier"`
}

// TurnCycleEffect is the per-phase (season) modifier set applied during
// economy and combat resolution.
type TurnCycleEffect struct {
	Phase               int                `json:"phase"`
	Name                string             `json:"name"`
	ResourceMultipliers map[string]float64 `json:"resourceMultipliers"`
	CombatModifier      float64            `json:"combatModifier"`
	StabilityModifier   float64            `json:"stabilityModifier"`
}

// Civilization returns the civilization definition with the given id, or false.
func (t *ThemePackage) Civilization(id string) (CivilizationDef, bool) {
	for _, c := range t.Civilizations {
		if c.ID == id {
			return c, true
		}
	}
	return CivilizationDef{}, false
}

// Resource returns the resource definition with the given id, or false.
func (t *ThemePackage) Resource(id string) (ResourceDef, bool) {
	for _, r := range t.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return ResourceDef{}, false
}

// Tech returns the tech definition with the given id, or false.
func (t *ThemePackage) Tech(id string) (TechDef, bool) {
	for _, tech := range t.Techs {
		if tech.ID == id {
			return tech, true
		}
	}
	return TechDef{}, false
}

// Building returns the building definition with the given id, or false.
func (t *ThemePackage) Building(id string) (BuildingDef, bool) {
	for _, b := range t.Buildings {
		if b.ID == id {
			return b, true
		}
	}
	return BuildingDef{}, false
}

// Unit returns the unit definition with the given id, or false.
func (t *ThemePackage) Unit(id string) (UnitDef, bool) {
	for _, u := range t.Units {
		if u.ID == id {
			return u, true
		}
	}
	return UnitDef{}, false
}

// Event returns the event definition with the given id, or false.
func (t *ThemePackage) Event(id string) (EventDef, bool) {
	for _, e := range t.Events {
		if e.ID == id {
			return e, true
		}
	}
	return EventDef{}, false
}

// TensionRange returns the configured [min,max] for an axis, defaulting to
// [0,100] when the theme does not declare it.
func (t *ThemePackage) TensionRange(axis string) (int, int) {
	if r, ok := t.Mechanics.TensionAxes[axis]; ok {
		return r.Min, r.Max
	}
	return 0, 100
}

// TurnCycleEffectForTurn returns the cycle effect matching (turn-1) mod
// turnCycleLength, or false when the theme has no seasonal cycle
// (turnCycleLength == 0) or declares no matching phase.
func (t *ThemePackage) TurnCycleEffectForTurn(turn int) (TurnCycleEffect, bool) {
	if t.Mechanics.TurnCycleLength <= 0 {
		return TurnCycleEffect{}, false
	}
	phase := (turn - 1) % t.Mechanics.TurnCycleLength
	if phase < 0 {
		phase += t.Mechanics.TurnCycleLength
	}
	for _, e := range t.Mechanics.TurnCycleEffects {
		if e.Phase == phase {
			return e, true
		}
	}
	return TurnCycleEffect{}, false
}
