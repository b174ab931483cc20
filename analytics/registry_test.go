package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedArtifact(t *testing.T) *ModelArtifact {
	t.Helper()
	X := [][]float64{
		{0, 3, 1, 0, 0, 100, 100, 100},
		{1, 3, 2, 0, 0, 110, 100, 105},
		{2, 3, 3, 0, 0, 120, 110, 110},
		{3, 3, 4, 0, 0, 130, 120, 115},
	}
	y := []float64{110, 120, 130, 140}

	scaler := &Scaler{}
	require.NoError(t, scaler.Fit(X))
	scaled, err := scaler.TransformAll(X)
	require.NoError(t, err)
	model, err := TrainForest(scaled, y)
	require.NoError(t, err)

	return &ModelArtifact{Model: model, Scaler: scaler, LastTrainedAt: time.Now()}
}

func TestRegistrySaveLoadRoundtrip(t *testing.T) {
	reg := NewModelRegistry(t.TempDir())
	art := trainedArtifact(t)

	require.NoError(t, reg.Save("shop-1", art))
	assert.True(t, reg.HasModel("shop-1"))

	loaded, err := reg.Load("shop-1")
	require.NoError(t, err)
	assert.Equal(t, FeatureCount, loaded.Model.NumFeatures)
	assert.Equal(t, art.Scaler.Means, loaded.Scaler.Means)
}

func TestRegistryLoadSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	art := trainedArtifact(t)
	require.NoError(t, NewModelRegistry(dir).Save("shop-1", art))

	// a fresh registry over the same directory must read the blob from disk
	fresh := NewModelRegistry(dir)
	loaded, err := fresh.Load("shop-1")
	require.NoError(t, err)

	x := []float64{0, 3, 1, 0, 0, 100, 100, 100}
	scaled, err := loaded.Scaler.Transform(x)
	require.NoError(t, err)
	want, err := art.Model.Predict(scaled)
	require.NoError(t, err)
	got, err := loaded.Model.Predict(scaled)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRegistryMissingArtifact(t *testing.T) {
	reg := NewModelRegistry(t.TempDir())
	_, err := reg.Load("nobody")
	assert.ErrorIs(t, err, ErrArtifactMissing)
	assert.False(t, reg.HasModel("nobody"))
}

func TestRegistryCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales_model_shop-1.gob"), []byte("garbage"), 0o644))

	reg := NewModelRegistry(dir)
	_, err := reg.Load("shop-1")
	assert.ErrorIs(t, err, ErrArtifactCorrupt)
}

func TestRegistryEvict(t *testing.T) {
	dir := t.TempDir()
	reg := NewModelRegistry(dir)
	require.NoError(t, reg.Save("shop-1", trainedArtifact(t)))

	require.NoError(t, reg.Evict("shop-1"))
	assert.False(t, reg.HasModel("shop-1"))
	_, err := os.Stat(filepath.Join(dir, "sales_model_shop-1.gob"))
	assert.True(t, os.IsNotExist(err))

	// evicting a shop with no artifact is not an error
	require.NoError(t, reg.Evict("shop-1"))
}

func TestRegistryIsolatesShops(t *testing.T) {
	reg := NewModelRegistry(t.TempDir())
	require.NoError(t, reg.Save("shop-1", trainedArtifact(t)))

	assert.True(t, reg.HasModel("shop-1"))
	assert.False(t, reg.HasModel("shop-2"))

	require.NoError(t, reg.Evict("shop-2"))
	assert.True(t, reg.HasModel("shop-1"))
}
