// Package hexgrid provides the odd-r offset hex coordinate system, its
// neighbor rule, and BFS reachability/pathfinding over a rectangular grid.
package hexgrid

// Coord is a hex position in odd-r offset layout: odd rows are shifted
// right by half a hex width.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Neighbors returns the (up to) six adjacent coordinates, following the
// odd-r offset parity rule. Callers clip against grid bounds themselves.
func (c Coord) Neighbors() []Coord {
	if c.Row%2 == 0 {
		return []Coord{
			{c.Col + 1, c.Row},
			{c.Col - 1, c.Row},
			{c.Col, c.Row + 1},
			{c.Col, c.Row - 1},
			{c.Col - 1, c.Row - 1},
			{c.Col - 1, c.Row + 1},
		}
	}
	return []Coord{
		{c.Col + 1, c.Row},
		{c.Col - 1, c.Row},
		{c.Col, c.Row + 1},
		{c.Col, c.Row - 1},
		{c.Col + 1, c.Row - 1},
		{c.Col + 1, c.Row + 1},
	}
}

// IsAdjacent reports whether b is one of a's six odd-r neighbors.
func (a Coord) IsAdjacent(b Coord) bool {
	for _, n := range a.Neighbors() {
		if n == b {
			return true
		}
	}
	return false
}

// Grid describes the rectangular bounds a traversal must stay within, plus
// which coordinates are passable (non-sea).
type Grid struct {
	Rows, Cols int
	// Passable reports whether a coordinate may be entered by a land unit.
	// Out-of-bounds coordinates are always rejected before Passable is
	// consulted.
	Passable func(Coord) bool
}

// InBounds reports whether coord falls inside the grid's rectangle.
func (g Grid) InBounds(c Coord) bool {
	return c.Col >= 0 && c.Col < g.Cols && c.Row >= 0 && c.Row < g.Rows
}

func (g Grid) walkableNeighbors(c Coord) []Coord {
	var out []Coord
	for _, n := range c.Neighbors() {
		if !g.InBounds(n) {
			continue
		}
		if g.Passable != nil && !g.Passable(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Reachable returns every hex reachable from origin within maxSteps,
// excluding the origin itself, via BFS over non-sea neighbors.
func Reachable(g Grid, origin Coord, maxSteps int) []Coord {
	if maxSteps <= 0 {
		return nil
	}
	visited := map[Coord]int{origin: 0}
	queue := []Coord{origin}
	var result []Coord

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		depth := visited[cur]
		if depth >= maxSteps {
			continue
		}
		for _, n := range g.walkableNeighbors(cur) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = depth + 1
			result = append(result, n)
			queue = append(queue, n)
		}
	}
	return result
}

// PathTo returns the ordered sequence of steps (excluding origin) from
// origin to target within maxSteps, or nil if no such path exists — either
// because target is unreachable within the budget or target is impassable.
func PathTo(g Grid, origin, target Coord, maxSteps int) []Coord {
	if origin == target {
		return nil
	}
	if !g.InBounds(target) || (g.Passable != nil && !g.Passable(target)) {
		return nil
	}
	if maxSteps <= 0 {
		return nil
	}

	parent := map[Coord]Coord{origin: origin}
	depth := map[Coord]int{origin: 0}
	queue := []Coord{origin}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			break
		}
		d := depth[cur]
		if d >= maxSteps {
			continue
		}
		for _, n := range g.walkableNeighbors(cur) {
			if _, seen := parent[n]; seen {
				continue
			}
			parent[n] = cur
			depth[n] = d + 1
			queue = append(queue, n)
		}
	}

	if _, found := parent[target]; !found {
		return nil
	}

	var path []Coord
	for at := target; at != origin; at = parent[at] {
		path = append([]Coord{at}, path...)
	}
	return path
}
