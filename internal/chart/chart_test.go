package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestWriteAll(t *testing.T) {
	cat := gacha.NewCatalog(map[gacha.Tier][]string{
		gacha.Common: {"Pidgey", "Rattata"},
		gacha.Rare:   {"Eevee"},
	})
	data, err := gacha.Run(cat, gacha.ProbabilitySet{0.8, 0, 0.2}, gacha.SimParams{Cases: 3, RollsPerCase: 15}, gacha.NewSeededRNG(5))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "plots")
	paths, err := WriteAll(dir, gacha.MeanSeries(data))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, UniqueFile),
		filepath.Join(dir, MissingFile),
		filepath.Join(dir, ChanceFile),
	}, paths)

	for _, p := range paths {
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a png", p)
	}
}

func TestEmptySeries(t *testing.T) {
	_, err := WriteAll(t.TempDir(), gacha.Series{})
	require.ErrorIs(t, err, ErrNoData)
}
