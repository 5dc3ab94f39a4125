package gacha

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogCSV = `name,rarity,generation
Pidgey,Common,1
Rattata,Common,1
Pikachu,Uncommon,1
Dratini,Rare,1
Lapras,Very rare,1
Mewtwo,Legendary,1
Nihilego,Ultra beast,7
Pidgey,Common,1
`

func TestReadCatalog(t *testing.T) {
	cat, err := ReadCatalog(strings.NewReader(catalogCSV), "pokemon.csv")
	require.NoError(t, err)

	assert.Equal(t, 8, cat.Len())
	assert.Equal(t, []string{"Pidgey", "Rattata", "Pidgey"}, cat.Names(Common))
	assert.Equal(t, []string{"Lapras"}, cat.Names(VeryRare))
	assert.Equal(t, []string{"Nihilego"}, cat.Names(UltraBeast))
	assert.Equal(t, [NumTiers]int{3, 1, 1, 1, 1, 1}, cat.TierSizes())
	assert.Equal(t, []Entry{{Name: "Pidgey", Tier: Common}}, cat.Duplicates())
}

func TestReadCatalogUnknownRarity(t *testing.T) {
	in := "name,rarity\nPidgey,Common\nMissingNo,Glitch\n"
	_, err := ReadCatalog(strings.NewReader(in), "pokemon.csv")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Row)
	assert.Equal(t, "Glitch", perr.Value)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "pokemon.csv:3")
}

func TestReadCatalogLabelsAreExact(t *testing.T) {
	_, err := ReadCatalog(strings.NewReader("name,rarity\nLapras,Very Rare\n"), "")
	assert.ErrorIs(t, err, ErrParse)
}

func TestReadCatalogMissingColumn(t *testing.T) {
	_, err := ReadCatalog(strings.NewReader("name,tier\nPidgey,Common\n"), "x.csv")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "rarity", perr.Value)

	_, err = ReadCatalog(strings.NewReader(""), "x.csv")
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pokemon.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o644))
	cat, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cat.Len())

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers {
		got, ok := ParseTier(tier.String())
		require.True(t, ok)
		assert.Equal(t, tier, got)

		got, ok = TierFromKey(tier.Key())
		require.True(t, ok)
		assert.Equal(t, tier, got)
	}
	_, ok := ParseTier("common")
	assert.False(t, ok)
	assert.Equal(t, "Tier(9)", Tier(9).String())
}
