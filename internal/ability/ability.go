// Package ability parses the textual special-ability strings the theme
// schema attaches to civilizations. spec.md §4.5/§4.7/§4.9 calls this out
// as a brittle, string-matched point in the source system that a future
// redesign should replace with structured effect declarations — this
// package preserves the behavior by recognizing exactly the documented
// patterns (SPEC_FULL.md §9 keeps the pattern list as the contract).
package ability

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	cavalryNamePattern   = regexp.MustCompile(`(?i)cavalry|horseman|knight|rider`)
	cavalryMarketPattern = regexp.MustCompile(`(?i)cavalry units generate \+(\d+) dinars in settlements with a market`)
	cultureBuildingPattern = regexp.MustCompile(`(?i)culture buildings produce \+50% culture/faith`)
	tradeGoodsPattern    = regexp.MustCompile(`(?i)settlements connected to capital get \+(\d+) trade_goods`)
	attackBonusPattern   = regexp.MustCompile(`(?i)units gain \+(\d+) combat strength when attacking`)
	defendTerrainPattern = regexp.MustCompile(`(?i)units defending in (\w+) gain \+(\d+) combat strength`)
	reconquistaPattern   = regexp.MustCompile(`(?i)reconquista drive`)
)

// IsCavalryUnitName reports whether a unit's display name matches the
// cavalry-flavored name pattern.
func IsCavalryUnitName(displayName string) bool {
	return cavalryNamePattern.MatchString(displayName)
}

// CavalryMarketBonus returns the per-unit dinar bonus granted by
// "Cavalry units generate +N dinars in settlements with a market", if the
// civ has that ability.
func CavalryMarketBonus(abilities []string) (int, bool) {
	for _, a := range abilities {
		if m := cavalryMarketPattern.FindStringSubmatch(a); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n, true
		}
	}
	return 0, false
}

// HasCultureBuildingBonus reports the "Culture buildings produce +50%
// culture/faith" ability.
func HasCultureBuildingBonus(abilities []string) bool {
	for _, a := range abilities {
		if cultureBuildingPattern.MatchString(a) {
			return true
		}
	}
	return false
}

// TradeGoodsConnectedBonus returns the per-settlement trade_goods bonus
// granted by "Settlements connected to capital get +X trade_goods".
func TradeGoodsConnectedBonus(abilities []string) (int, bool) {
	for _, a := range abilities {
		if m := tradeGoodsPattern.FindStringSubmatch(a); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n, true
		}
	}
	return 0, false
}

// AttackingBonus returns the combat-strength bonus granted when attacking,
// from "Units gain +N combat strength when attacking ...".
func AttackingBonus(abilities []string) (int, bool) {
	for _, a := range abilities {
		if m := attackBonusPattern.FindStringSubmatch(a); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n, true
		}
	}
	return 0, false
}

// DefendingTerrainBonus returns the combat-strength bonus granted when
// defending in the given terrain, from "Units defending in <terrain> gain
// +N combat strength".
func DefendingTerrainBonus(abilities []string, terrain string) (int, bool) {
	for _, a := range abilities {
		m := defendTerrainPattern.FindStringSubmatch(a)
		if m == nil {
			continue
		}
		if strings.EqualFold(m[1], terrain) {
			n, _ := strconv.Atoi(m[2])
			return n, true
		}
	}
	return 0, false
}

// HasReconquistaDrive reports the "Reconquista Drive"-style ability, which
// grants the attacker a bonus when attacker and defender follow different
// (known) religions.
func HasReconquistaDrive(abilities []string) bool {
	for _, a := range abilities {
		if reconquistaPattern.MatchString(a) {
			return true
		}
	}
	return false
}

// Personality is the inferred AI behavioral archetype.
type Personality string

const (
	PersonalityPacifist   Personality = "pacifist"
	PersonalityMilitary   Personality = "military"
	PersonalityMerchant   Personality = "merchant"
	PersonalityDiplomatic Personality = "diplomatic"
)

var (
	pacifistPattern   = regexp.MustCompile(`(?i)pacifist|peace\s*-?loving|non-?violent`)
	militaryPattern   = regexp.MustCompile(`(?i)military|warrior|conquest|martial|combat strength when attacking|reconquista`)
	merchantPattern   = regexp.MustCompile(`(?i)merchant|trade|market|caravan|dinars`)
	diplomaticPattern = regexp.MustCompile(`(?i)diplomat|alliance|envoy|treaty`)
)

// InferPersonality derives a civ's AI personality from its textual special
// abilities (spec.md §4.9). Defaults to diplomatic when no pattern matches.
func InferPersonality(abilities []string) Personality {
	joined := strings.Join(abilities, " ; ")
	switch {
	case pacifistPattern.MatchString(joined):
		return PersonalityPacifist
	case militaryPattern.MatchString(joined):
		return PersonalityMilitary
	case merchantPattern.MatchString(joined):
		return PersonalityMerchant
	default:
		return PersonalityDiplomatic
	}
}
