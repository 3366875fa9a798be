package theme

// Index provides O(1) definition lookups over a loaded theme, avoiding a
// linear scan on every reference during resolution. Grounded on the
// teacher's settlement_placer.go precomputed-descriptor pattern
// (SPEC_FULL.md §3).
type Index struct {
	theme      *ThemePackage
	units      map[string]UnitDef
	buildings  map[string]BuildingDef
	techs      map[string]TechDef
	resources  map[string]ResourceDef
	events     map[string]EventDef
	civs       map[string]CivilizationDef
}

// BuildIndex precomputes id -> definition maps for a validated theme.
func BuildIndex(t *ThemePackage) *Index {
	idx := &Index{
		theme:     t,
		units:     make(map[string]UnitDef, len(t.Units)),
		buildings: make(map[string]BuildingDef, len(t.Buildings)),
		techs:     make(map[string]TechDef, len(t.Techs)),
		resources: make(map[string]ResourceDef, len(t.Resources)),
		events:    make(map[string]EventDef, len(t.Events)),
		civs:      make(map[string]CivilizationDef, len(t.Civilizations)),
	}
	for _, u := range t.Units {
		idx.units[u.ID] = u
	}
	for _, b := range t.Buildings {
		idx.buildings[b.ID] = b
	}
	for _, tech := range t.Techs {
		idx.techs[tech.ID] = tech
	}
	for _, r := range t.Resources {
		idx.resources[r.ID] = r
	}
	for _, e := range t.Events {
		idx.events[e.ID] = e
	}
	for _, c := range t.Civilizations {
		idx.civs[c.ID] = c
	}
	return idx
}

func (i *Index) Theme() *ThemePackage { return i.theme }

func (i *Index) Unit(id string) (UnitDef, bool) {
	u, ok := i.units[id]
	return u, ok
}

func (i *Index) Building(id string) (BuildingDef, bool) {
	b, ok := i.buildings[id]
	return b, ok
}

func (i *Index) Tech(id string) (TechDef, bool) {
	t, ok := i.techs[id]
	return t, ok
}

func (i *Index) Resource(id string) (ResourceDef, bool) {
	r, ok := i.resources[id]
	return r, ok
}

func (i *Index) Event(id string) (EventDef, bool) {
	e, ok := i.events[id]
	return e, ok
}

func (i *Index) Civilization(id string) (CivilizationDef, bool) {
	c, ok := i.civs[id]
	return c, ok
}

// CheapestUnit returns the lowest-cost unit definition whose prereq tech
// (if any) is among completedTechs.
func (i *Index) CheapestUnit(completedTechs []string) (UnitDef, bool) {
	has := map[string]bool{}
	for _, t := range completedTechs {
		has[t] = true
	}
	var best UnitDef
	found := false
	for _, u := range i.theme.Units {
		if u.PrereqTech != "" && !has[u.PrereqTech] {
			continue
		}
		if !found || u.Cost < best.Cost {
			best = u
			found = true
		}
	}
	return best, found
}
