package gacha

import "fmt"

// Tier is one of the six rarity classes of the slot machine.
type Tier int

const (
	Common Tier = iota
	Uncommon
	Rare
	VeryRare
	Legendary
	UltraBeast
)

// NumTiers is the size of every tier-indexed array.
const NumTiers = 6

// Tiers lists the tiers in presentation and draw order.
var Tiers = [NumTiers]Tier{Common, Uncommon, Rare, VeryRare, Legendary, UltraBeast}

var tierLabels = [NumTiers]string{"Common", "Uncommon", "Rare", "Very rare", "Legendary", "Ultra beast"}

// keys are used for persisted field names and config keys
var tierKeys = [NumTiers]string{"common", "uncommon", "rare", "very_rare", "legendary", "ultra_beast"}

// String returns the catalog label, e.g. "Very rare".
func (t Tier) String() string {
	if t < 0 || int(t) >= NumTiers {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierLabels[t]
}

// Key returns the snake_case identifier, e.g. "very_rare".
func (t Tier) Key() string {
	if t < 0 || int(t) >= NumTiers {
		return fmt.Sprintf("tier_%d", int(t))
	}
	return tierKeys[t]
}

// ParseTier maps a catalog label ("Common", ..., "Ultra beast") to its tier.
// Labels are matched exactly.
func ParseTier(label string) (Tier, bool) {
	for i, l := range tierLabels {
		if l == label {
			return Tier(i), true
		}
	}
	return 0, false
}

// TierFromKey maps a snake_case key back to its tier.
func TierFromKey(key string) (Tier, bool) {
	for i, k := range tierKeys {
		if k == key {
			return Tier(i), true
		}
	}
	return 0, false
}
