package resolver

import (
	"fmt"

	"github.com/ashkar-house/realms/internal/ai"
	"github.com/ashkar-house/realms/internal/hexgrid"
	"github.com/ashkar-house/realms/internal/mapgen"
	"github.com/ashkar-house/realms/internal/prng"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// LoadTheme parses and validates a theme package from its JSON encoding.
func LoadTheme(raw []byte) (*theme.ThemePackage, error) {
	return theme.Load(raw)
}

// CreatePRNG builds a generator from an integer seed.
func CreatePRNG(seed uint32) *prng.PRNG {
	return prng.New(seed)
}

// CreatePRNGFromSeed builds a generator from a string seed, hashed via
// FNV-1a, mirroring how a human-entered game seed becomes the RNG's
// starting state.
func CreatePRNGFromSeed(seed string) *prng.PRNG {
	return prng.NewFromSeed(seed)
}

// InitializeGameState builds a fresh GameState from a theme: generating the
// map, seeding starting units and fog of war, and populating each civ's
// starting resources and techs, per spec.md §4.4.
func InitializeGameState(gameID string, th *theme.ThemePackage, playerMappings map[string]string, seed uint32, createdAt string, ids IDGenerator) (*state.GameState, error) {
	idx := theme.BuildIndex(th)
	p := prng.New(seed)

	m, placements, err := mapgen.Generate(th, idx, p)
	if err != nil {
		return nil, fmt.Errorf("resolver: initialize game state: %w", err)
	}

	gs := &state.GameState{
		GameID:   gameID,
		ThemeID:  th.ID,
		Turn:     1,
		Phase:    state.PhaseActive,
		Map:      m,
		RNGSeed:  seed,
		RNGState: p.State(),
		CreatedAt: createdAt,
		Config:   state.GameConfig{TurnDeadlineDays: 2, AllowAIGovernor: true, FogOfWar: true},
	}

	civStartingTechs := map[string][]string{}
	for _, civDef := range th.Civilizations {
		civ := state.NewCivilizationState(civDef.ID)
		for res, amt := range civDef.StartingResources {
			civ.Resources[res] = amt
		}
		civ.CompletedTechs = append([]string(nil), civDef.StartingTechs...)
		if playerID, ok := playerMappings[civDef.ID]; ok {
			pid := playerID
			civ.PlayerID = &pid
		}
		gs.AddCivilization(civ)
		civStartingTechs[civDef.ID] = civDef.StartingTechs
	}

	mapgen.SeedStartingUnits(gs.Map, idx, placements, civStartingTechs, ids.NextUnitID)
	mapgen.SeedFogOfWar(gs.Map, placements)

	return gs, nil
}

// GenerateAIOrders wraps the AI governor for hosts that want to preview or
// submit on a civ's behalf outside the resolver's own auto-fill step.
func GenerateAIOrders(gs *state.GameState, civID string, th *theme.ThemePackage, p *prng.PRNG, submittedAt string) state.PlayerOrders {
	idx := theme.BuildIndex(th)
	return ai.GenerateOrders(gs, civID, th, idx, p, submittedAt)
}

// GetReachableCoords wraps hexgrid.Reachable over a game map.
func GetReachableCoords(gs *state.GameState, origin hexgrid.Coord, maxSteps int) []hexgrid.Coord {
	return hexgrid.Reachable(gs.Map.Grid(), origin, maxSteps)
}

// GetPathTo wraps hexgrid.PathTo over a game map.
func GetPathTo(gs *state.GameState, origin, target hexgrid.Coord, maxSteps int) []hexgrid.Coord {
	return hexgrid.PathTo(gs.Map.Grid(), origin, target, maxSteps)
}
