package spectral

import (
	"math"
	"testing"

	"github.com/RyanBlaney/alpha-switch/eeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineChunk(sampleRate float64, n int, freq float64, amplitudes ...float64) *eeg.SampleChunk {
	chunk := eeg.NewSampleChunk(len(amplitudes), n, sampleRate)
	for ch, amp := range amplitudes {
		for i := range n {
			chunk.Data[ch][i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		}
	}
	return chunk
}

// integrate sums PSD x bin width, i.e. the power inside the band
func integrate(est *Estimate, ch int, df float64) float64 {
	sum := 0.0
	for _, p := range est.PSD[ch] {
		sum += p * df
	}
	return sum
}

func estimators(t *testing.T) map[Method]Estimator {
	t.Helper()

	cfg := DefaultEstimatorConfig()
	welch, err := NewEstimator(cfg)
	require.NoError(t, err)

	cfg.Method = MethodMultitaper
	mt, err := NewEstimator(cfg)
	require.NoError(t, err)

	return map[Method]Estimator{MethodWelch: welch, MethodMultitaper: mt}
}

func TestEstimatorsScaleWithAmplitudeSquared(t *testing.T) {
	chunk := sineChunk(250, 250, 10, 2, 1)

	for method, est := range estimators(t) {
		t.Run(string(method), func(t *testing.T) {
			assert.Equal(t, method, est.Method())

			res, err := est.Estimate(chunk, eeg.AlphaBand)
			require.NoError(t, err)
			require.Equal(t, 2, res.Channels())

			powers := res.Powers()
			assert.Greater(t, powers[0], powers[1])
			assert.InDelta(t, 4.0, powers[0]/powers[1], 1e-6)

			for _, f := range res.Freqs {
				assert.True(t, eeg.AlphaBand.Contains(f))
			}
		})
	}
}

func TestEstimatorsPreserveSinePower(t *testing.T) {
	chunk := sineChunk(250, 250, 10, 2)
	full := eeg.FrequencyBand{Min: 0, Max: 124.9}

	welch, err := NewWelch(250, 250, 128, 0, "hamming")
	require.NoError(t, err)
	res, err := welch.Estimate(chunk, full)
	require.NoError(t, err)
	assert.InEpsilon(t, 2.0, integrate(res, 0, 250.0/128), 0.1)

	mt, err := NewMultitaper(250, 250, 4, true)
	require.NoError(t, err)
	res, err = mt.Estimate(chunk, full)
	require.NoError(t, err)
	assert.InEpsilon(t, 2.0, integrate(res, 0, 1), 0.1)
}

func TestAlphaDominatesOffBandSignal(t *testing.T) {
	alpha := sineChunk(250, 250, 10, 1)
	beta := sineChunk(250, 250, 25, 1)

	for method, est := range estimators(t) {
		t.Run(string(method), func(t *testing.T) {
			a, err := est.Estimate(alpha, eeg.AlphaBand)
			require.NoError(t, err)
			b, err := est.Estimate(beta, eeg.AlphaBand)
			require.NoError(t, err)
			assert.Greater(t, a.ChannelPower(0), 100*b.ChannelPower(0))
		})
	}
}

func TestWelchWindowLongerThanChunkFailsAtConstruction(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.NFFT = 251

	_, err := NewEstimator(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWindowTooLong)

	cfg.NFFT = 250
	_, err = NewEstimator(cfg)
	assert.NoError(t, err)
}

func TestWelchParameterValidation(t *testing.T) {
	_, err := NewWelch(250, 250, 0, 0, "hamming")
	assert.Error(t, err)

	_, err = NewWelch(250, 250, 128, 128, "hamming")
	assert.Error(t, err)

	_, err = NewWelch(250, 250, 128, 0, "triangle")
	assert.Error(t, err)
}

func TestWelchSegments(t *testing.T) {
	w, err := NewWelch(250, 250, 128, 64, "hann")
	require.NoError(t, err)
	assert.Equal(t, 2, w.Segments(250))
	assert.Equal(t, 0, w.Segments(100))

	w, err = NewWelch(250, 250, 128, 0, "hann")
	require.NoError(t, err)
	assert.Equal(t, 1, w.Segments(250))
}

func TestUnknownMethod(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.Method = "burg"
	_, err := NewEstimator(cfg)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = ParseMethod("burg")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	m, err := ParseMethod(" Welch ")
	require.NoError(t, err)
	assert.Equal(t, MethodWelch, m)
}

func TestEstimateRejectsMismatchedChunks(t *testing.T) {
	mt, err := NewMultitaper(250, 250, 4, true)
	require.NoError(t, err)

	_, err = mt.Estimate(sineChunk(250, 200, 10, 1), eeg.AlphaBand)
	assert.Error(t, err)

	_, err = mt.Estimate(sineChunk(500, 250, 10, 1), eeg.AlphaBand)
	assert.Error(t, err)

	_, err = mt.Estimate(nil, eeg.AlphaBand)
	assert.Error(t, err)
}

func TestBandWithoutBins(t *testing.T) {
	w, err := NewWelch(250, 250, 128, 0, "hamming")
	require.NoError(t, err)

	_, err = w.Estimate(sineChunk(250, 250, 10, 1), eeg.FrequencyBand{Min: 10.1, Max: 10.2})
	assert.ErrorIs(t, err, ErrEmptyBand)
}

func TestMultitaperKeepsConcentratedTapers(t *testing.T) {
	mt, err := NewMultitaper(250, 250, 0, true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mt.Tapers(), 6)

	all, err := NewMultitaper(250, 250, 8, false)
	require.NoError(t, err)
	assert.Equal(t, 8, all.Tapers())

	narrow, err := NewMultitaper(250, 250, 4, false)
	require.NoError(t, err)
	assert.Equal(t, 4, narrow.Tapers())

	_, err = NewMultitaper(250, 250, 0.5, true)
	assert.Error(t, err)
}

func TestDetrendRemovesAmplifierOffset(t *testing.T) {
	clean := sineChunk(250, 250, 10, 2)
	offset := sineChunk(250, 250, 10, 2)
	for i := range offset.Data[0] {
		offset.Data[0][i] += 1000
	}

	for _, method := range []Method{MethodWelch, MethodMultitaper} {
		t.Run(string(method), func(t *testing.T) {
			cfg := DefaultEstimatorConfig()
			cfg.Method = method
			cfg.Detrend = "constant"
			est, err := NewEstimator(cfg)
			require.NoError(t, err)

			want, err := est.Estimate(clean, eeg.AlphaBand)
			require.NoError(t, err)
			got, err := est.Estimate(offset, eeg.AlphaBand)
			require.NoError(t, err)

			assert.InEpsilon(t, want.ChannelPower(0), got.ChannelPower(0), 1e-6)
		})
	}

	cfg := DefaultEstimatorConfig()
	cfg.Detrend = "quadratic"
	_, err := NewEstimator(cfg)
	assert.Error(t, err)
}

func TestCentroid(t *testing.T) {
	assert.InDelta(t, 10, Centroid([]float64{1, 1}, []float64{8, 12}), 1e-12)
	assert.InDelta(t, 11, Centroid([]float64{1, 3}, []float64{8, 12}), 1e-12)
	assert.True(t, math.IsNaN(Centroid([]float64{0, 0}, []float64{8, 12})))
	assert.True(t, math.IsNaN(Centroid(nil, nil)))

	est := &Estimate{PSD: [][]float64{{1, 0}, {0, 1}}, Freqs: []float64{8, 12}}
	assert.InDelta(t, 8, est.Centroid(0), 1e-12)
	assert.InDelta(t, 12, est.Centroid(1), 1e-12)
	assert.InDelta(t, 10, est.MeanCentroid(), 1e-12)
}

func TestCentroidFollowsAlphaPeak(t *testing.T) {
	est, err := NewEstimator(DefaultEstimatorConfig())
	require.NoError(t, err)

	low, err := est.Estimate(sineChunk(250, 250, 9, 1), eeg.AlphaBand)
	require.NoError(t, err)
	high, err := est.Estimate(sineChunk(250, 250, 11.5, 1), eeg.AlphaBand)
	require.NoError(t, err)

	assert.Less(t, low.Centroid(0), high.Centroid(0))
}
