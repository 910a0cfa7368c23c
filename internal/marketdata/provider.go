// Package marketdata is the desk's only external-collaborator boundary. A
// Provider answers two questions per symbol: what does the market look like
// right now (snapshot), and what prices will print next (price path).
package marketdata

import (
	"os"

	"github.com/shumlab/papertrade/internal/types"
	"github.com/shumlab/papertrade/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default snapshot values applied to fixture fields left unset.
const (
	DefaultLast      = 100.0
	DefaultSpread    = 0.01
	DefaultAvgVolume = 6_000_000
)

type Provider interface {
	// GetSnapshot returns the current market snapshot for a symbol.
	GetSnapshot(symbol string) (types.MarketSnapshot, error)
	// GetPricePath returns the chronological price path for a symbol.
	GetPricePath(symbol string) ([]types.PriceTick, error)
}

// StaticProvider serves snapshots and price paths from in-memory fixtures.
type StaticProvider struct {
	snapshots map[string]types.MarketSnapshot
	paths     map[string][]types.PriceTick
}

var _ Provider = (*StaticProvider)(nil)

// fixtureFile is the yaml shape of a market data fixture.
type fixtureFile struct {
	Snapshots map[string]types.MarketSnapshot `yaml:"snapshots"`
	Paths     map[string][]types.PriceTick    `yaml:"paths"`
}

func NewStaticProvider(snapshots map[string]types.MarketSnapshot, paths map[string][]types.PriceTick) *StaticProvider {
	if snapshots == nil {
		snapshots = make(map[string]types.MarketSnapshot)
	}
	if paths == nil {
		paths = make(map[string][]types.PriceTick)
	}

	return &StaticProvider{
		snapshots: snapshots,
		paths:     paths,
	}
}

// LoadStaticProvider reads a yaml fixture file. Snapshot fields left unset
// in the file take the default values.
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFixtureLoadFailed, "failed to read market data fixture", err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFixtureLoadFailed, "failed to parse market data fixture", err)
	}

	snapshots := make(map[string]types.MarketSnapshot, len(file.Snapshots))
	for symbol, snap := range file.Snapshots {
		snap.Symbol = symbol
		snapshots[symbol] = applyDefaults(snap)
	}

	return NewStaticProvider(snapshots, file.Paths), nil
}

// DefaultSnapshot returns a snapshot carrying the default market values.
func DefaultSnapshot(symbol string) types.MarketSnapshot {
	return types.MarketSnapshot{
		Symbol:    symbol,
		Last:      DefaultLast,
		Spread:    DefaultSpread,
		AvgVolume: DefaultAvgVolume,
	}
}

func applyDefaults(snap types.MarketSnapshot) types.MarketSnapshot {
	if snap.Last == 0 {
		snap.Last = DefaultLast
	}
	if snap.Spread == 0 {
		snap.Spread = DefaultSpread
	}
	if snap.AvgVolume == 0 {
		snap.AvgVolume = DefaultAvgVolume
	}

	return snap
}

func (p *StaticProvider) GetSnapshot(symbol string) (types.MarketSnapshot, error) {
	snap, ok := p.snapshots[symbol]
	if !ok {
		return types.MarketSnapshot{}, errors.Newf(errors.ErrCodeSnapshotNotFound, "no snapshot for symbol %s", symbol)
	}

	return snap, nil
}

func (p *StaticProvider) GetPricePath(symbol string) ([]types.PriceTick, error) {
	path, ok := p.paths[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodePricePathNotFound, "no price path for symbol %s", symbol)
	}

	return path, nil
}
