package eeg_test

import (
	"testing"

	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPickDropsMarker(t *testing.T) {
	layout, err := eeg.NewEEGLayout(eeg.ActiCap32, eeg.MarkerChannel)
	require.NoError(t, err)
	require.Equal(t, 33, layout.Len())

	picks, sub, err := layout.Pick(eeg.TypeEEG)
	require.NoError(t, err)
	assert.Len(t, picks, 32)
	assert.Equal(t, 32, sub.Len())
	assert.Equal(t, eeg.ActiCap32, sub.Names())

	_, ok := sub.Index(eeg.MarkerChannel)
	assert.False(t, ok)
}

func TestLayoutRejectsDuplicates(t *testing.T) {
	_, err := eeg.NewEEGLayout([]string{"Cz", "Cz"})
	assert.Error(t, err)

	_, err = eeg.NewChannelLayout(nil)
	assert.Error(t, err)
}

func TestParseChannelType(t *testing.T) {
	ct, err := eeg.ParseChannelType("Marker")
	require.NoError(t, err)
	assert.Equal(t, eeg.TypeMisc, ct)

	_, err = eeg.ParseChannelType("emg")
	assert.Error(t, err)
}

func TestResolveGroup(t *testing.T) {
	layout, err := eeg.NewEEGLayout(eeg.ActiCap32)
	require.NoError(t, err)

	g, err := eeg.ResolveGroup(layout, "posterior", eeg.PosteriorChannels, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, g.Len())
	assert.Equal(t, 1.0, g.Scale)

	oz, _ := layout.Index("Oz")
	assert.Contains(t, g.Indices, oz)
}

func TestResolveGroupFailsOnMissingOrDuplicate(t *testing.T) {
	layout, err := eeg.NewEEGLayout(eeg.ActiCap32)
	require.NoError(t, err)

	_, err = eeg.ResolveGroup(layout, "frontal", []string{"Fp1", "AF3"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AF3")

	_, err = eeg.ResolveGroup(layout, "frontal", []string{"Fp1", "Fp1"}, 1)
	assert.Error(t, err)

	_, err = eeg.ResolveGroup(layout, "frontal", nil, 1)
	assert.Error(t, err)

	_, err = eeg.ResolveGroup(layout, "frontal", []string{"Fp1"}, -1)
	assert.Error(t, err)
}

func TestFrequencyBandValidate(t *testing.T) {
	assert.NoError(t, eeg.AlphaBand.Validate(250))
	assert.Error(t, eeg.FrequencyBand{Min: 12, Max: 8}.Validate(250))
	assert.Error(t, eeg.FrequencyBand{Min: 10, Max: 10}.Validate(250))
	assert.Error(t, eeg.FrequencyBand{Min: 8, Max: 125}.Validate(250))
	assert.Error(t, eeg.FrequencyBand{Min: -1, Max: 4}.Validate(250))

	assert.True(t, eeg.AlphaBand.Contains(8))
	assert.True(t, eeg.AlphaBand.Contains(12))
	assert.False(t, eeg.AlphaBand.Contains(12.1))
}

func TestSampleChunkPickAndValidate(t *testing.T) {
	c := eeg.NewSampleChunk(3, 10, 250)
	require.NoError(t, c.Validate())
	assert.Equal(t, 10, c.Len())
	assert.InDelta(t, 0.04, c.Duration(), 1e-12)

	c.Data[2][0] = 7
	sub, err := c.Pick([]int{2})
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Channels())
	assert.Equal(t, 7.0, sub.Data[0][0])

	_, err = c.Pick([]int{3})
	assert.Error(t, err)

	c.Data[1] = c.Data[1][:5]
	assert.Error(t, c.Validate())
}
