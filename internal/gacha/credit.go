package gacha

// Credits tracks roll credit in half-roll units so that released duplicates
// (worth half a roll each) never need fractional bookkeeping.
// A nominal roll adds 2 units, a released unit adds 1, a performed roll costs 2.

const HalfUnitsPerRoll = 2

type Credits struct {
	half int
}

// AddRoll grants one nominal roll.
func (c *Credits) AddRoll() { c.half += HalfUnitsPerRoll }

// AddReleased grants credit for n released duplicate units.
func (c *Credits) AddReleased(n int) {
	if n > 0 {
		c.half += n
	}
}

// Spend consumes one roll if enough credit is available.
func (c *Credits) Spend() bool {
	if c.half < HalfUnitsPerRoll {
		return false
	}
	c.half -= HalfUnitsPerRoll
	return true
}

// Balance returns the remaining credit in half-roll units.
func (c *Credits) Balance() int { return c.half }
