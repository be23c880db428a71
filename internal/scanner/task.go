package scanner

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"medialinkd/internal/log"
	"medialinkd/internal/metrics"
	"medialinkd/internal/registry"
)

func baseName(path string) string { return filepath.Base(path) }

// Registrar is the subset of registry.Store the scan task needs.
type Registrar interface {
	RegisterIfNew(ctx context.Context, originalFilepath, originalFilename string, deviceID, inode, fileSize uint64) (id int64, wasNew bool, err error)
}

// Manager periodically probes the source root and enqueues newly registered
// ids onto the dispatcher. Only one scan runs at a time; a tick that arrives
// while a scan is still in progress is skipped rather than queued.
type Manager struct {
	cfg      ProbeConfig
	interval time.Duration
	store    Registrar
	enqueue  func(ctx context.Context, id int64) error

	isScanning atomic.Bool
}

// NewManager builds a Manager. enqueue is called once per newly registered
// id and should block (cooperatively) when the dispatcher is full.
func NewManager(cfg ProbeConfig, interval time.Duration, store Registrar, enqueue func(ctx context.Context, id int64) error) *Manager {
	return &Manager{cfg: cfg, interval: interval, store: store, enqueue: enqueue}
}

// Run blocks, performing one scan immediately and then one per tick, until
// ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	logger := log.WithComponent("scanner")
	m.RunScan(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scanner stopping")
			return
		case <-ticker.C:
			m.RunScan(ctx)
		}
	}
}

// RunScan performs exactly one walk-and-register pass. It is a no-op if a
// scan is already in flight.
func (m *Manager) RunScan(ctx context.Context) {
	if !m.isScanning.CompareAndSwap(false, true) {
		log.WithComponent("scanner").Debug().Msg("scan already in progress, skipping tick")
		return
	}
	defer m.isScanning.Store(false)

	logger := log.WithComponent("scanner")
	candidates, err := Probe(ctx, m.cfg)
	if err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("probe failed")
	}

	registered := 0
	for _, c := range candidates {
		if ctx.Err() != nil {
			return
		}
		metrics.FilesDiscoveredTotal.Inc()
		base := baseName(c.Path)
		id, wasNew, err := m.store.RegisterIfNew(ctx, c.Path, base, c.DeviceID, c.Inode, c.Size)
		if err != nil {
			logger.Error().Err(err).Str("path", c.Path).Msg("register failed")
			continue
		}
		if !wasNew {
			metrics.FilesRegisteredTotal.WithLabelValues("duplicate").Inc()
			continue
		}
		metrics.FilesRegisteredTotal.WithLabelValues("new").Inc()
		registered++
		if err := m.enqueue(ctx, id); err != nil {
			logger.Warn().Err(err).Int64("id", id).Msg("enqueue interrupted")
			return
		}
	}
	logger.Info().Int("candidates", len(candidates)).Int("registered", registered).Msg("scan complete")
}

var _ Registrar = registry.Store(nil)
