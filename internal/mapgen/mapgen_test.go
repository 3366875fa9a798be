package mapgen

import (
	"testing"

	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/theme"
)

func testTheme() *theme.ThemePackage {
	return &theme.ThemePackage{
		ID: "t1",
		Civilizations: []theme.CivilizationDef{
			{ID: "rashidun"},
			{ID: "sassanid"},
		},
		Map: theme.MapConfig{
			Width:   8,
			Height:  8,
			SeaEdge: true,
			DefaultTerrainWeights: map[string]float64{
				"plains": 5,
				"forest": 2,
				"sea":    1,
			},
			Anchors: []theme.SettlementAnchor{
				{ID: "cap-a", Name: "Al-Madinah", CivilizationID: "rashidun", Col: 3, Row: 3, Type: "capital"},
				{ID: "cap-b", Name: "Ctesiphon", CivilizationID: "sassanid", Col: 5, Row: 5, Type: "capital"},
			},
		},
		Units: []theme.UnitDef{
			{ID: "warrior", Strength: 5, Morale: 5, Moves: 2, Cost: 10},
			{ID: "archer", Strength: 4, Morale: 5, Moves: 2, Cost: 15},
		},
	}
}

func TestGenerateDeterministic(t *testing.T) {
	th := testTheme()
	idx := theme.BuildIndex(th)

	m1, p1, err := Generate(th, idx, prng.New(42))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	m2, p2, err := Generate(th, idx, prng.New(42))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for r := 0; r < m1.Rows; r++ {
		for c := 0; c < m1.Cols; c++ {
			if m1.Hexes[r][c].Terrain != m2.Hexes[r][c].Terrain {
				t.Fatalf("terrain mismatch at (%d,%d) between identical seeds", c, r)
			}
		}
	}
	if len(p1) != len(p2) {
		t.Fatalf("anchor placement count mismatch")
	}
}

func TestSeaEdgeForced(t *testing.T) {
	th := testTheme()
	idx := theme.BuildIndex(th)
	m, _, err := Generate(th, idx, prng.New(1))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for c := 0; c < m.Cols; c++ {
		if m.Hexes[0][c].Terrain != "sea" {
			t.Fatalf("expected top row forced to sea")
		}
		if m.Hexes[m.Rows-1][c].Terrain != "sea" {
			t.Fatalf("expected bottom row forced to sea")
		}
	}
}

func TestAnchorsGetSettlementsAndControl(t *testing.T) {
	th := testTheme()
	idx := theme.BuildIndex(th)
	m, placements, err := Generate(th, idx, prng.New(7))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, ap := range placements {
		h := m.Get(ap.Coord)
		if h.Settlement == nil {
			t.Fatalf("expected settlement at anchor %q", ap.Anchor.ID)
		}
		if h.ControlledBy != ap.Anchor.CivilizationID {
			t.Fatalf("expected control by %q at anchor %q", ap.Anchor.CivilizationID, ap.Anchor.ID)
		}
		if h.Terrain == "sea" || h.Terrain == "mountains" {
			t.Fatalf("anchor hex must not be sea/mountains, got %v", h.Terrain)
		}
	}
}

func TestSeedStartingUnitsPlacesTwoUnits(t *testing.T) {
	th := testTheme()
	idx := theme.BuildIndex(th)
	m, placements, err := Generate(th, idx, prng.New(3))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	nextID := 0
	SeedStartingUnits(m, idx, placements, map[string][]string{}, func() string {
		nextID++
		return "unit-" + string(rune('a'+nextID))
	})
	for _, ap := range placements {
		h := m.Get(ap.Coord)
		units := h.UnitsOf(ap.Anchor.CivilizationID)
		if len(units) != 2 {
			t.Fatalf("expected 2 starting units at capital %q, got %d", ap.Anchor.ID, len(units))
		}
	}
}

func TestSeedFogOfWarCoversCapitalAndNeighbors(t *testing.T) {
	th := testTheme()
	idx := theme.BuildIndex(th)
	m, placements, err := Generate(th, idx, prng.New(9))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	SeedFogOfWar(m, placements)
	for _, ap := range placements {
		h := m.Get(ap.Coord)
		if !h.ExploredBy[ap.Anchor.CivilizationID] {
			t.Fatalf("expected capital hex explored by owner")
		}
	}
}
