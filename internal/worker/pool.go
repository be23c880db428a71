package worker

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"medialinkd/internal/analyser"
	"medialinkd/internal/catalogue"
	"medialinkd/internal/linker"
	"medialinkd/internal/log"
	"medialinkd/internal/media"
	"medialinkd/internal/metrics"
	"medialinkd/internal/pathgen"
	"medialinkd/internal/registry"
)

// Pool is the fixed set of concurrent workers draining a Dispatcher.
type Pool struct {
	store      registry.Store
	analyser   analyser.Client
	catalogue  catalogue.Client
	dispatcher *Dispatcher
	targetRoot string
	count      int

	wg       sync.WaitGroup
	onOutcome func(status media.Status)
}

// NewPool builds a Pool of count workers. onOutcome, if non-nil, is called
// once per finalised id with its terminal status — the hook the worker
// instrumentation (metrics) attaches to.
func NewPool(store registry.Store, analyserClient analyser.Client, catalogueClient catalogue.Client, dispatcher *Dispatcher, targetRoot string, count int, onOutcome func(media.Status)) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{
		store:      store,
		analyser:   analyserClient,
		catalogue:  catalogueClient,
		dispatcher: dispatcher,
		targetRoot: targetRoot,
		count:      count,
		onOutcome:  onOutcome,
	}
}

// Run starts count worker goroutines and blocks until ctx is cancelled and
// every worker has returned.
func (p *Pool) Run(ctx context.Context) {
	logger := log.WithComponent("worker")
	p.wg.Add(p.count)
	for i := 0; i < p.count; i++ {
		go func(workerID int) {
			defer p.wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}
	logger.Info().Int("workers", p.count).Msg("worker pool started")
	p.wg.Wait()
	logger.Info().Msg("worker pool stopped")
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-p.dispatcher.ids:
			if !ok {
				return
			}
			p.processSafely(ctx, id, workerID)
		}
	}
}

// processSafely recovers from a panic in process so a single bad id never
// kills the pool; the id is marked FAILED with a generic message instead.
func (p *Pool) processSafely(ctx context.Context, id int64, workerID int) {
	l := log.WithComponent("worker").With().Int("worker_id", workerID).Logger()
	defer func() {
		if r := recover(); r != nil {
			l.Error().Int64("id", id).Interface("panic", r).Msg("worker recovered from panic")
			metrics.WorkerPanicsTotal.Inc()
			_ = p.store.TransitionFailed(context.WithoutCancel(ctx), id, "internal error: worker panic")
			p.reportOutcome(media.StatusFailed)
		}
	}()
	p.process(ctx, id)
}

func (p *Pool) process(ctx context.Context, id int64) {
	l := log.WithComponent("worker")

	mf, ok, err := p.store.Claim(ctx, id)
	if err != nil {
		l.Error().Err(err).Int64("id", id).Msg("claim failed")
		return
	}
	if !ok {
		metrics.ClaimOutcomesTotal.WithLabelValues("stale").Inc()
		l.Debug().Int64("id", id).Msg("claim stale, discarding")
		return
	}
	metrics.ClaimOutcomesTotal.WithLabelValues("won").Inc()

	analyseStart := time.Now()
	guess, err := p.analyser.Analyse(ctx, mf.OriginalFilename)
	metrics.ObserveStage("analyse", analyseStart)
	if err != nil {
		p.fail(ctx, id, err)
		return
	}
	if err := p.store.RecordGuess(ctx, id, guess); err != nil {
		l.Warn().Err(err).Int64("id", id).Msg("failed to persist guess")
	}

	searchStart := time.Now()
	match, err := p.catalogue.Search(ctx, guess)
	metrics.ObserveStage("search", searchStart)
	if err != nil {
		p.fail(ctx, id, err)
		return
	}

	ext := filepath.Ext(mf.OriginalFilename)
	destination, err := pathgen.Generate(p.targetRoot, match, ext)
	if err != nil {
		p.fail(ctx, id, media.Wrap(media.PathInsufficient, err))
		return
	}

	linkStart := time.Now()
	result := linker.Link(mf.OriginalFilepath, destination, p.targetRoot)
	metrics.ObserveStage("link", linkStart)
	switch result.Outcome {
	case linker.Success:
		metrics.LinkOutcomesTotal.WithLabelValues("success").Inc()
		if err := p.store.TransitionCompleted(ctx, id, destination, match); err != nil {
			l.Error().Err(err).Int64("id", id).Msg("finalise completed failed")
		}
		p.reportOutcome(media.StatusCompleted)
	case linker.Conflict:
		metrics.LinkOutcomesTotal.WithLabelValues("conflict").Inc()
		if err := p.store.TransitionConflict(ctx, id, destination, "destination exists: "+result.Detail); err != nil {
			l.Error().Err(err).Int64("id", id).Msg("finalise conflict failed")
		}
		p.reportOutcome(media.StatusConflict)
	case linker.CrossDevice:
		metrics.LinkOutcomesTotal.WithLabelValues("cross_device").Inc()
		p.fail(ctx, id, media.NewError(media.LinkCrossDevice, result.Detail))
	case linker.NoSource:
		metrics.LinkOutcomesTotal.WithLabelValues("no_source").Inc()
		p.fail(ctx, id, media.NewError(media.LinkMissingSource, result.Detail))
	default:
		metrics.LinkOutcomesTotal.WithLabelValues("unknown").Inc()
		p.fail(ctx, id, media.NewError(media.LinkUnknown, result.Detail))
	}
}

func (p *Pool) fail(ctx context.Context, id int64, err error) {
	l := log.WithComponent("worker")
	status, message := media.Terminal(ctx, err)
	var transitionErr error
	switch status {
	case media.StatusNoMatch:
		transitionErr = p.store.TransitionNoMatch(context.WithoutCancel(ctx), id, message)
	case media.StatusConflict:
		transitionErr = p.store.TransitionConflict(context.WithoutCancel(ctx), id, "", message)
	default:
		transitionErr = p.store.TransitionFailed(context.WithoutCancel(ctx), id, message)
	}
	if transitionErr != nil {
		l.Error().Err(transitionErr).Int64("id", id).Msg("finalise failure transition failed")
	}
	p.reportOutcome(status)
}

func (p *Pool) reportOutcome(status media.Status) {
	metrics.RecordTransition("processing", string(status))
	if p.onOutcome != nil {
		p.onOutcome(status)
	}
}
