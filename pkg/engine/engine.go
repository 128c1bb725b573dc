// Package engine drives the per-cycle processing pipeline: observation
// intake, coverage learning from trusted fixes, location synthesis, and the
// end-of-cycle cache flush.
package engine

import (
	"context"
	"fmt"

	"github.com/rfmap/rfmap/pkg"
	"github.com/rfmap/rfmap/pkg/cache"
	"github.com/rfmap/rfmap/pkg/emitter"
	"github.com/rfmap/rfmap/pkg/logx"
	"github.com/rfmap/rfmap/pkg/metrics"
	"github.com/rfmap/rfmap/pkg/signal"
	"github.com/rfmap/rfmap/pkg/synthesis"
)

// Publisher pushes fused locations to an external consumer.
type Publisher interface {
	PublishLocation(loc *pkg.FusedLocation) error
}

// Cycle is one scan interval's worth of input: every emitter observed during
// the interval, plus the trusted satellite fix captured alongside them. A
// zero Fix means no fix was available this cycle; observations are still
// folded into the working set so labels and signals stay current.
type Cycle struct {
	Observations []pkg.Observation `json:"observations"`
	Fix          pkg.Fix           `json:"fix"`
}

// Engine processes cycles one at a time on a single worker. All record
// mutation happens on that worker, which is what lets the records themselves
// stay lock-free.
type Engine struct {
	cache     *cache.Cache
	corrector *signal.Corrector
	synthesis synthesis.Config
	metrics   *metrics.Server
	publisher Publisher
	logger    *logx.Logger

	cycles chan Cycle
}

// New creates an engine over the given cache. The corrector, metrics server
// and publisher are each optional.
func New(c *cache.Cache, corrector *signal.Corrector, synthConfig synthesis.Config,
	m *metrics.Server, publisher Publisher, logger *logx.Logger,
) *Engine {
	return &Engine{
		cache:     c,
		corrector: corrector,
		synthesis: synthConfig,
		metrics:   m,
		publisher: publisher,
		logger:    logger,
		cycles:    make(chan Cycle, 4),
	}
}

// Submit queues a cycle for processing. It drops the cycle and returns false
// when the worker has fallen behind; scan data is perishable and a stale
// cycle is worth less than keeping the radio path unblocked.
func (e *Engine) Submit(c Cycle) bool {
	select {
	case e.cycles <- c:
		return true
	default:
		e.logger.Warn("cycle dropped, worker behind", "observations", len(c.Observations))
		return false
	}
}

// Run consumes submitted cycles until the context is cancelled. It is the
// single worker; calling it from more than one goroutine is a bug.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-e.cycles:
			if _, err := e.ProcessCycle(c); err != nil {
				e.logger.Error("cycle processing failed", "error", err)
			}
		}
	}
}

// ProcessCycle runs one full pipeline pass and returns the fused location,
// or nil when the cycle's emitters could not support one. The cache is
// flushed at the end of every cycle regardless of the synthesis outcome.
func (e *Engine) ProcessCycle(c Cycle) (*pkg.FusedLocation, error) {
	obs := wellFormed(c.Observations)
	if len(obs) == 0 && !c.Fix.Valid() {
		return nil, nil
	}

	ids := make([]pkg.Identity, 0, len(obs))
	for _, o := range obs {
		ids = append(ids, o.Identity)
	}
	if err := e.cache.BatchLoad(ids); err != nil {
		return nil, fmt.Errorf("cycle load: %w", err)
	}

	hasFix := c.Fix.Valid()
	if e.metrics != nil {
		if hasFix {
			e.metrics.RecordFix()
		} else if c.Fix != (pkg.Fix{}) {
			e.metrics.RecordFixRejected("invalid")
		}
	}

	records := make([]*emitter.Record, 0, len(obs))
	for _, o := range obs {
		if e.corrector != nil {
			o.Signal = e.corrector.Correct(o.Identity.Type, o.Signal)
		}
		r := e.cache.Get(o.Identity)
		wasBlacklisted := r.Status == emitter.StatusBlacklisted
		r.Observe(o)
		if hasFix {
			r.UpdateLocation(c.Fix)
		}
		records = append(records, r)
		if e.metrics != nil {
			e.metrics.RecordObservation(string(o.Identity.Type))
			if !wasBlacklisted && r.Status == emitter.StatusBlacklisted {
				e.metrics.RecordBlacklisted(r.BlacklistReason)
			}
		}
	}

	locs := make([]pkg.RfLocation, 0, len(records))
	for _, r := range records {
		if loc := r.Location(); loc != nil {
			locs = append(locs, *loc)
		}
	}

	fused := synthesis.Fuse(locs, e.synthesis)
	if e.metrics != nil {
		if fused != nil {
			e.metrics.RecordSynthesis(fused.Accuracy, fused.Sources, true)
		} else {
			e.metrics.RecordSynthesis(0, 0, false)
		}
	}
	if fused != nil {
		e.logger.Debug("location synthesized", "lat", fused.Latitude, "lon", fused.Longitude,
			"accuracy_m", fused.Accuracy, "sources", fused.Sources)
		if e.publisher != nil {
			if err := e.publisher.PublishLocation(fused); err != nil {
				e.logger.Warn("location publish failed", "error", err)
			}
		}
	}

	before := e.cache.Resident()
	syncErr := e.cache.Sync()
	if e.metrics != nil {
		e.metrics.RecordFlush(syncErr)
		after := e.cache.Resident()
		e.metrics.RecordCacheState(after)
		if before > after {
			e.metrics.RecordEvictions(before - after)
		}
	}
	if syncErr != nil {
		return fused, fmt.Errorf("cycle flush: %w", syncErr)
	}
	return fused, nil
}

// wellFormed drops malformed observations and keeps only the strongest
// observation per emitter, so a double-scanned emitter does not count twice.
func wellFormed(in []pkg.Observation) []pkg.Observation {
	out := make([]pkg.Observation, 0, len(in))
	seen := make(map[string]int, len(in))
	for _, o := range in {
		if !o.WellFormed() {
			continue
		}
		key := o.Identity.UniqueKey()
		if idx, dup := seen[key]; dup {
			if o.Signal > out[idx].Signal {
				out[idx] = o
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, o)
	}
	return out
}
