package enums

import "fmt"

// Rarity is the named supply tier of a catalogue item. Each tier carries a
// fixed, immutable maximum issuable count.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
	RarityUnique    Rarity = "unique"
)

var validRarities = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityEpic,
	RarityLegendary,
	RarityMythic,
	RarityUnique,
}

var maxSupplyByRarity = map[Rarity]int64{
	RarityCommon:    100000,
	RarityUncommon:  10000,
	RarityRare:      5000,
	RarityEpic:      1000,
	RarityLegendary: 100,
	RarityMythic:    10,
	RarityUnique:    1,
}

// IsValid reports whether the value names a known rarity tier.
func (r Rarity) IsValid() bool {
	for _, candidate := range validRarities {
		if candidate == r {
			return true
		}
	}
	return false
}

// MaxSupply returns the immutable issuance cap for the tier, or 0 for an
// unknown rarity.
func (r Rarity) MaxSupply() int64 {
	return maxSupplyByRarity[r]
}

// ParseRarity converts raw input into Rarity.
func ParseRarity(value string) (Rarity, error) {
	for _, candidate := range validRarities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rarity %q", value)
}

// Rarities returns the canonical tier list in descending supply order.
func Rarities() []Rarity {
	out := make([]Rarity, len(validRarities))
	copy(out, validRarities)
	return out
}
