package analytics

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrArtifactCorrupt reports a persisted model artifact that failed to decode
// or carries the wrong feature dimensionality. Recovered by one retrain.
var ErrArtifactCorrupt = errors.New("model artifact corrupt")

// ErrArtifactMissing reports that no artifact exists for the shop yet.
var ErrArtifactMissing = errors.New("model artifact missing")

// ModelArtifact is the per-shop persisted model/scaler pair.
type ModelArtifact struct {
	Model         *Forest
	Scaler        *Scaler
	LastTrainedAt time.Time
}

// ModelRegistry owns one model artifact per shop: explicit load/save/evict
// with an in-memory cache over gob blobs in the artifact directory. All
// mutation is serialized per shop so two concurrent retrains for the same
// shop never interleave artifact reads and writes.
type ModelRegistry struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*ModelArtifact
}

// NewModelRegistry creates a registry rooted at dir. The directory is created
// on first save.
func NewModelRegistry(dir string) *ModelRegistry {
	return &ModelRegistry{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
		cache: make(map[string]*ModelArtifact),
	}
}

// LockShop returns the mutex serializing train/retrain for one shop.
func (r *ModelRegistry) LockShop(shopID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locks[shopID]; !ok {
		r.locks[shopID] = &sync.Mutex{}
	}
	return r.locks[shopID]
}

func (r *ModelRegistry) artifactPath(shopID string) string {
	return filepath.Join(r.dir, fmt.Sprintf("sales_model_%s.gob", shopID))
}

// Load returns the shop's artifact from cache or disk.
func (r *ModelRegistry) Load(shopID string) (*ModelArtifact, error) {
	r.mu.Lock()
	if art, ok := r.cache[shopID]; ok {
		r.mu.Unlock()
		return art, nil
	}
	r.mu.Unlock()

	f, err := os.Open(r.artifactPath(shopID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactMissing
		}
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer f.Close()

	var art ModelArtifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	if art.Model == nil || art.Scaler == nil || art.Model.NumFeatures != FeatureCount {
		return nil, ErrArtifactCorrupt
	}

	r.mu.Lock()
	r.cache[shopID] = &art
	r.mu.Unlock()
	return &art, nil
}

// Save atomically replaces the shop's artifact: gob-encode to a temp file,
// then rename over the old blob.
func (r *ModelRegistry) Save(shopID string, art *ModelArtifact) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, "sales_model_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(art); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.artifactPath(shopID)); err != nil {
		return fmt.Errorf("failed to replace model artifact: %w", err)
	}

	r.mu.Lock()
	r.cache[shopID] = art
	r.mu.Unlock()
	return nil
}

// Evict removes the shop's artifact from cache and disk.
func (r *ModelRegistry) Evict(shopID string) error {
	r.mu.Lock()
	delete(r.cache, shopID)
	r.mu.Unlock()

	if err := os.Remove(r.artifactPath(shopID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove model artifact: %w", err)
	}
	return nil
}

// HasModel reports whether a trained artifact is available for the shop.
func (r *ModelRegistry) HasModel(shopID string) bool {
	_, err := r.Load(shopID)
	return err == nil
}
