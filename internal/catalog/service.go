// Package catalog is the asset catalog: the file-backed list of assets the
// wallet knows about, with the chain's native asset first.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mycitadel/citadel/internal/codec"
	"github.com/mycitadel/citadel/internal/model"
)

// FileName is the catalog file inside a wallet repo.
const FileName = "assets.csv"

// Service provides in-memory lookup over an immutable set of assets.
type Service struct {
	assets []model.AssetDescriptor
	byID   map[string]model.AssetDescriptor
	native string
}

// NewService creates a Service from a slice of assets. The first native
// asset is the chain's native asset.
func NewService(assets []model.AssetDescriptor) *Service {
	byID := make(map[string]model.AssetDescriptor, len(assets))
	var native string
	for _, a := range assets {
		byID[a.ID] = a
		if a.IsNative && native == "" {
			native = a.ID
		}
	}
	return &Service{assets: assets, byID: byID, native: native}
}

// Load reads assets.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	path := filepath.Join(repoRoot, FileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening asset catalog: %w", err)
	}
	defer f.Close()

	assets, err := ReadAssets(f)
	if err != nil {
		return nil, fmt.Errorf("reading asset catalog: %w", err)
	}
	return NewService(assets), nil
}

// All returns all assets.
func (s *Service) All() []model.AssetDescriptor {
	return s.assets
}

// Lookup returns an asset by id.
func (s *Service) Lookup(id string) (model.AssetDescriptor, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// NativeAssetID returns the id of the chain's native asset, or "" when the
// catalog has none.
func (s *Service) NativeAssetID() string {
	return s.native
}

// IDs returns all asset ids in catalog order.
func (s *Service) IDs() []string {
	ids := make([]string, len(s.assets))
	for i, a := range s.assets {
		ids[i] = a.ID
	}
	return ids
}

// WithGenesis returns a new Service that also holds the asset g describes.
// An asset with the same id is replaced.
func (s *Service) WithGenesis(g codec.AssetGenesis) *Service {
	a := model.AssetDescriptor{
		ID:        g.AssetID(),
		Ticker:    g.Ticker,
		Name:      g.Name,
		Precision: g.Precision,
		Category:  model.AssetCategoryToken,
	}
	assets := make([]model.AssetDescriptor, 0, len(s.assets)+1)
	for _, existing := range s.assets {
		if existing.ID != a.ID {
			assets = append(assets, existing)
		}
	}
	return NewService(append(assets, a))
}

// Save writes the catalog to assets.csv.
func (s *Service) Save(repoRoot string) error {
	if err := os.MkdirAll(repoRoot, 0o755); err != nil {
		return fmt.Errorf("creating repo dir: %w", err)
	}

	path := filepath.Join(repoRoot, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating asset catalog file: %w", err)
	}
	defer f.Close()

	if err := WriteAssets(f, s.assets); err != nil {
		return fmt.Errorf("writing asset catalog: %w", err)
	}
	return nil
}

// Store holds the current catalog snapshot. A sync replaces the snapshot
// wholesale, so a reader holding one Snapshot sees a consistent catalog.
type Store struct {
	current atomic.Pointer[Service]
}

// NewStore creates a Store serving s.
func NewStore(s *Service) *Store {
	st := &Store{}
	st.current.Store(s)
	return st
}

// Snapshot returns the current catalog.
func (st *Store) Snapshot() *Service {
	return st.current.Load()
}

// Replace installs s as the current catalog.
func (st *Store) Replace(s *Service) {
	st.current.Store(s)
}

// Reload re-reads assets.csv and installs it.
func (st *Store) Reload(repoRoot string) error {
	s, err := Load(repoRoot)
	if err != nil {
		return err
	}
	st.Replace(s)
	return nil
}
