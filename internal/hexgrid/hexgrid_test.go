package hexgrid

import "testing"

func allPassable(Coord) bool { return true }

func TestNeighborsEvenVsOddRowParity(t *testing.T) {
	even := Coord{Col: 2, Row: 2}.Neighbors()
	odd := Coord{Col: 2, Row: 3}.Neighbors()
	if len(even) != 6 || len(odd) != 6 {
		t.Fatalf("expected six neighbors for both parities")
	}
	// The diagonal pair differs between even and odd rows.
	evenSet := map[Coord]bool{}
	for _, c := range even {
		evenSet[c] = true
	}
	if evenSet[Coord{1, 1}] == false || evenSet[Coord{1, 3}] == false {
		t.Fatalf("even row neighbor set missing expected diagonals: %v", even)
	}
	oddSet := map[Coord]bool{}
	for _, c := range odd {
		oddSet[c] = true
	}
	if oddSet[Coord{3, 2}] == false || oddSet[Coord{3, 4}] == false {
		t.Fatalf("odd row neighbor set missing expected diagonals: %v", odd)
	}
}

func TestIsAdjacentSymmetric(t *testing.T) {
	a := Coord{Col: 4, Row: 4}
	for _, n := range a.Neighbors() {
		if !a.IsAdjacent(n) {
			t.Fatalf("%v should be adjacent to %v", n, a)
		}
	}
}

func TestReachableExcludesOrigin(t *testing.T) {
	g := Grid{Rows: 10, Cols: 10, Passable: allPassable}
	origin := Coord{Col: 5, Row: 5}
	result := Reachable(g, origin, 2)
	for _, c := range result {
		if c == origin {
			t.Fatalf("reachable set must exclude origin")
		}
	}
	if len(result) == 0 {
		t.Fatalf("expected some reachable hexes")
	}
}

func TestReachableRespectsSea(t *testing.T) {
	sea := Coord{Col: 6, Row: 5}
	g := Grid{Rows: 10, Cols: 10, Passable: func(c Coord) bool { return c != sea }}
	result := Reachable(g, Coord{Col: 5, Row: 5}, 3)
	for _, c := range result {
		if c == sea {
			t.Fatalf("reachable set must not include sea hex")
		}
	}
}

func TestPathToFindsShortestPath(t *testing.T) {
	g := Grid{Rows: 10, Cols: 10, Passable: allPassable}
	origin := Coord{Col: 0, Row: 0}
	target := Coord{Col: 3, Row: 0}
	path := PathTo(g, origin, target, 10)
	if path == nil {
		t.Fatalf("expected a path")
	}
	if path[len(path)-1] != target {
		t.Fatalf("path must end at target, got %v", path)
	}
	prev := origin
	for _, step := range path {
		if !prev.IsAdjacent(step) {
			t.Fatalf("path step %v not adjacent to previous %v", step, prev)
		}
		prev = step
	}
}

func TestPathToUnreachableWithinBudget(t *testing.T) {
	g := Grid{Rows: 20, Cols: 20, Passable: allPassable}
	path := PathTo(g, Coord{0, 0}, Coord{15, 15}, 2)
	if path != nil {
		t.Fatalf("expected nil path when target exceeds step budget, got %v", path)
	}
}

func TestPathToSeaTargetFails(t *testing.T) {
	target := Coord{Col: 2, Row: 2}
	g := Grid{Rows: 10, Cols: 10, Passable: func(c Coord) bool { return c != target }}
	path := PathTo(g, Coord{0, 0}, target, 10)
	if path != nil {
		t.Fatalf("expected nil path to a sea hex, got %v", path)
	}
}
