package state

// Phase is the overall lifecycle phase of a game.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
)

// GameConfig holds the per-game knobs spec.md §6 describes. No
// global/environment configuration affects engine output — everything the
// resolver consults lives here or in the theme.
type GameConfig struct {
	MaxTurns           *int    `json:"maxTurns,omitempty"`
	TurnDeadlineDays    int    `json:"turnDeadlineDays"`
	AllowAIGovernor     bool   `json:"allowAIGovernor"`
	DifficultyModifier  float64 `json:"difficultyModifier"`
	FogOfWar            bool   `json:"fogOfWar"`
}

// MuwardiInvasion tracks the optional theme-driven invasion mechanic.
type MuwardiInvasion struct {
	Active        bool `json:"active"`
	SpawnedOnTurn int  `json:"spawnedOnTurn"`
}

// GameState is the complete, serializable state of one game between turns.
type GameState struct {
	GameID  string `json:"gameId"`
	ThemeID string `json:"themeId"`
	Turn    int    `json:"turn"`
	Phase   Phase  `json:"phase"`

	Map           *Map                          `json:"map"`
	Civilizations map[string]*CivilizationState `json:"civilizations"`
	// CivilizationOrder preserves insertion order for the civilizations
	// map (spec.md §9: "maps by civ id ... insertion-ordered").
	CivilizationOrder []string `json:"civilizationOrder"`

	ActiveEvents []ActiveEvent  `json:"activeEvents"`
	TurnHistory  []TurnSummary  `json:"turnHistory"`

	RNGSeed  uint32 `json:"rngSeed"`
	RNGState uint32 `json:"rngState"`

	Config GameConfig `json:"config"`

	CreatedAt      string  `json:"createdAt"`
	LastResolvedAt *string `json:"lastResolvedAt,omitempty"`

	MuwardiInvasion *MuwardiInvasion `json:"muwardiInvasion,omitempty"`
}

// AddCivilization inserts a civ, recording its insertion order the first
// time it is seen.
func (g *GameState) AddCivilization(c *CivilizationState) {
	if g.Civilizations == nil {
		g.Civilizations = map[string]*CivilizationState{}
	}
	if _, exists := g.Civilizations[c.ID]; !exists {
		g.CivilizationOrder = append(g.CivilizationOrder, c.ID)
	}
	g.Civilizations[c.ID] = c
}

// EachCivilization calls fn for every civ in insertion order — the
// deterministic iteration order spec.md §5 requires.
func (g *GameState) EachCivilization(fn func(*CivilizationState)) {
	for _, id := range g.CivilizationOrder {
		c, ok := g.Civilizations[id]
		if !ok {
			continue
		}
		fn(c)
	}
}

// NonEliminatedCivIDs returns civ ids still in the game, in insertion order.
func (g *GameState) NonEliminatedCivIDs() []string {
	var out []string
	g.EachCivilization(func(c *CivilizationState) {
		if !c.IsEliminated {
			out = append(out, c.ID)
		}
	})
	return out
}

// Clone returns a deep copy of the game state, used by the resolver to
// build the next turn's state without mutating the input.
func (g *GameState) Clone() *GameState {
	out := *g
	if g.Map != nil {
		out.Map = g.Map.clone()
	}
	out.Civilizations = make(map[string]*CivilizationState, len(g.Civilizations))
	for id, c := range g.Civilizations {
		out.Civilizations[id] = c.Clone()
	}
	out.CivilizationOrder = append([]string(nil), g.CivilizationOrder...)
	out.ActiveEvents = make([]ActiveEvent, len(g.ActiveEvents))
	for i, e := range g.ActiveEvents {
		ce := e
		ce.TargetCivilizationIDs = append([]string(nil), e.TargetCivilizationIDs...)
		ce.Responses = make(map[string]string, len(e.Responses))
		for k, v := range e.Responses {
			ce.Responses[k] = v
		}
		out.ActiveEvents[i] = ce
	}
	out.TurnHistory = append([]TurnSummary(nil), g.TurnHistory...)
	if g.MuwardiInvasion != nil {
		inv := *g.MuwardiInvasion
		out.MuwardiInvasion = &inv
	}
	return &out
}

func (m *Map) clone() *Map {
	out := &Map{Rows: m.Rows, Cols: m.Cols, Hexes: make([][]Hex, m.Rows)}
	for r := range m.Hexes {
		out.Hexes[r] = make([]Hex, len(m.Hexes[r]))
		for c, h := range m.Hexes[r] {
			ch := h
			ch.Units = append([]Unit(nil), h.Units...)
			ch.Resources = append([]string(nil), h.Resources...)
			if h.Settlement != nil {
				s := *h.Settlement
				s.Buildings = append([]string(nil), h.Settlement.Buildings...)
				ch.Settlement = &s
			}
			if h.ExploredBy != nil {
				ch.ExploredBy = make(map[string]bool, len(h.ExploredBy))
				for k, v := range h.ExploredBy {
					ch.ExploredBy[k] = v
				}
			}
			out.Hexes[r][c] = ch
		}
	}
	return out
}
