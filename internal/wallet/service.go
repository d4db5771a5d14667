// Package wallet is the file-backed wallet collaborator: a pool of
// pre-derived receiving addresses and the allocations last reported by a
// sync.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mycitadel/citadel/internal/model"
)

// File names inside the wallet directory.
const (
	Dir             = "wallet"
	AddressesFile   = "addresses.csv"
	AllocationsFile = "allocations.csv"
)

// ErrPoolExhausted is returned when no unused address of the requested
// format is left.
var ErrPoolExhausted = errors.New("address pool exhausted")

// AssetLookup resolves asset ids to descriptors.
type AssetLookup interface {
	Lookup(id string) (model.AssetDescriptor, bool)
}

// Service reads and updates the wallet files under a repo root. It is safe
// for concurrent use within one process.
type Service struct {
	repoRoot string
	assets   AssetLookup

	mu sync.Mutex
}

// NewService creates a wallet Service.
func NewService(repoRoot string, assets AssetLookup) *Service {
	return &Service{repoRoot: repoRoot, assets: assets}
}

// Init creates empty wallet files unless they exist.
func (s *Service) Init() error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("creating wallet dir: %w", err)
	}
	for name, header := range map[string]string{
		AddressesFile:   AddressHeader,
		AllocationsFile: AllocationHeader,
	} {
		path := filepath.Join(s.dir(), name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(header+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// NextReceivingAddress hands out the first unused address of the requested
// format and marks it used.
func (s *Service) NextReceivingAddress(ctx context.Context, legacy bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.readAddresses()
	if err != nil {
		return "", err
	}
	for i := range pool {
		if pool[i].Used || pool[i].Legacy != legacy {
			continue
		}
		pool[i].Used = true
		if err := s.writeAddresses(pool); err != nil {
			return "", err
		}
		return pool[i].Address, nil
	}
	kind := "segwit"
	if legacy {
		kind = "legacy"
	}
	return "", fmt.Errorf("%w: no unused %s address", ErrPoolExhausted, kind)
}

// AddAddresses appends addresses to the pool, skipping ones already present.
// It returns how many were added.
func (s *Service) AddAddresses(addrs []PoolAddress) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.readAddresses()
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(pool))
	for _, a := range pool {
		known[a.Address] = true
	}
	added := 0
	for _, a := range addrs {
		if known[a.Address] {
			continue
		}
		known[a.Address] = true
		pool = append(pool, a)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.writeAddresses(pool)
}

// Addresses returns the whole pool.
func (s *Service) Addresses() ([]PoolAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAddresses()
}

// CurrentAllocations returns the allocations of one asset.
func (s *Service) CurrentAllocations(ctx context.Context, assetID string) ([]model.Allocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	asset, ok := s.assets.Lookup(assetID)
	if !ok {
		return nil, fmt.Errorf("unknown asset %q", assetID)
	}

	rows, err := s.readAllocations()
	if err != nil {
		return nil, err
	}
	var out []model.Allocation
	for _, r := range rows {
		if r.AssetID != assetID {
			continue
		}
		out = append(out, model.Allocation{
			OutPoint:     r.OutPoint,
			Address:      r.Address,
			Asset:        asset,
			AtomicAmount: r.AtomicAmount,
		})
	}
	return out, nil
}

// RecordAllocations appends rows to allocations.csv.
func (s *Service) RecordAllocations(rows []AllocationRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir(), AllocationsFile)
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("creating wallet dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening allocations: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, AllocationHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendAllocations(f, rows); err != nil {
		return fmt.Errorf("appending allocations: %w", err)
	}
	return nil
}

func (s *Service) readAddresses() ([]PoolAddress, error) {
	path := filepath.Join(s.dir(), AddressesFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening address pool: %w", err)
	}
	defer f.Close()

	pool, err := ReadAddresses(f)
	if err != nil {
		return nil, fmt.Errorf("reading address pool: %w", err)
	}
	return pool, nil
}

// writeAddresses atomically replaces addresses.csv.
func (s *Service) writeAddresses(pool []PoolAddress) error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("creating wallet dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir(), AddressesFile+".*")
	if err != nil {
		return fmt.Errorf("creating temp address pool: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteAddresses(tmp, pool); err != nil {
		tmp.Close()
		return fmt.Errorf("writing address pool: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing address pool: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir(), AddressesFile)); err != nil {
		return fmt.Errorf("replacing address pool: %w", err)
	}
	return nil
}

func (s *Service) readAllocations() ([]AllocationRow, error) {
	path := filepath.Join(s.dir(), AllocationsFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening allocations: %w", err)
	}
	defer f.Close()

	rows, err := ReadAllocations(f)
	if err != nil {
		return nil, fmt.Errorf("reading allocations: %w", err)
	}
	return rows, nil
}

func (s *Service) dir() string {
	return filepath.Join(s.repoRoot, Dir)
}
