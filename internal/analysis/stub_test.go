package analysis

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStub() *RandomStub {
	return NewRandomStub(rand.NewPCG(1, 2), nil)
}

func TestRandomStub_Analyze(t *testing.T) {
	stub := seededStub()

	for _, m := range []Modality{ModalityAudio, ModalityDrawing} {
		r, ok := stub.Range(m)
		require.True(t, ok)

		for i := 0; i < 200; i++ {
			res, err := stub.Analyze(m, 1024)
			require.NoError(t, err)

			assert.True(t, res.Simulated)
			assert.Equal(t, m, res.Modality)
			assert.GreaterOrEqual(t, res.DiseasePercent, r.Min)
			assert.Less(t, res.DiseasePercent, r.Max)
			assert.InDelta(t, 100, res.DiseasePercent+res.HealthyPercent, 1e-9)
			assert.Equal(t, TierFor(res.DiseasePercent), res.RiskTier)
			assert.Equal(t, res.DiseasePercent > 50, res.IsPositive)

			require.Len(t, res.Features, 3)
			for j, f := range res.Features {
				assert.Equal(t, m.FeatureNames()[j], f.Name)
				assert.GreaterOrEqual(t, f.Score, 0.0)
				assert.Less(t, f.Score, 10.0)
			}
		}
	}
}

func TestRandomStub_SeededIsReproducible(t *testing.T) {
	a, errA := seededStub().Analyze(ModalityAudio, 10)
	b, errB := seededStub().Analyze(ModalityAudio, 10)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestRandomStub_Errors(t *testing.T) {
	stub := seededStub()

	_, err := stub.Analyze(ModalityAudio, 0)
	assert.ErrorIs(t, err, ErrNoMedia)

	_, err = stub.Analyze(ModalitySymptoms, 10)
	assert.ErrorIs(t, err, ErrUnknownModality)
}

func TestRangeStore(t *testing.T) {
	dir := t.TempDir()
	store := NewRangeStore(dir)

	t.Run("falls back to defaults", func(t *testing.T) {
		r, err := store.Load(ModalityAudio)
		require.NoError(t, err)
		assert.Equal(t, ProbabilityRange{Min: 15, Max: 85}, r)

		r, err = store.Load(ModalityDrawing)
		require.NoError(t, err)
		assert.Equal(t, ProbabilityRange{Min: 20, Max: 85}, r)
	})

	t.Run("round trips an override", func(t *testing.T) {
		require.NoError(t, store.Save(ModalityDrawing, ProbabilityRange{Min: 30, Max: 60}))

		all, err := store.LoadAll()
		require.NoError(t, err)
		assert.Equal(t, ProbabilityRange{Min: 30, Max: 60}, all[ModalityDrawing])
		assert.Equal(t, ProbabilityRange{Min: 15, Max: 85}, all[ModalityAudio])
	})

	t.Run("rejects invalid ranges", func(t *testing.T) {
		assert.Error(t, store.Save(ModalityAudio, ProbabilityRange{Min: 80, Max: 20}))
		assert.ErrorIs(t, store.Save(ModalitySymptoms, ProbabilityRange{Min: 1, Max: 2}), ErrUnknownModality)

		path := filepath.Join(dir, "ranges", "audio.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"min": 90, "max": 120}`), 0644))
		_, err := store.Load(ModalityAudio)
		assert.Error(t, err)
	})
}
