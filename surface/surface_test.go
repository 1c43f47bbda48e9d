package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllOrder(t *testing.T) {
	// The canonical order is load-bearing: similarity vectors are split by it.
	assert.Equal(t, []Surface{HumanLeft, HumanRight, MacaqueLeft, MacaqueRight}, All())
}

func TestSurfaceAttributes(t *testing.T) {
	tests := []struct {
		surface    Surface
		name       string
		species    Species
		hemisphere Hemisphere
	}{
		{HumanLeft, "human_left", Human, Left},
		{HumanRight, "human_right", Human, Right},
		{MacaqueLeft, "macaque_left", Macaque, Left},
		{MacaqueRight, "macaque_right", Macaque, Right},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.surface.String())
			assert.Equal(t, tt.species, tt.surface.Species())
			assert.Equal(t, tt.hemisphere, tt.surface.Hemisphere())
			assert.True(t, tt.surface.Valid())
		})
	}
}

func TestSpeciesSurfaces(t *testing.T) {
	l, r := Human.Surfaces()
	assert.Equal(t, HumanLeft, l)
	assert.Equal(t, HumanRight, r)

	l, r = Macaque.Surfaces()
	assert.Equal(t, MacaqueLeft, l)
	assert.Equal(t, MacaqueRight, r)
}

func TestParseSpecies(t *testing.T) {
	sp, err := ParseSpecies("human")
	require.NoError(t, err)
	assert.Equal(t, Human, sp)

	sp, err = ParseSpecies("macaque")
	require.NoError(t, err)
	assert.Equal(t, Macaque, sp)

	_, err = ParseSpecies("chimpanzee")
	require.Error(t, err)

	_, err = ParseSpecies("Human")
	require.Error(t, err, "species names are case-sensitive")
}
