package calendar

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"labdesk/internal/logging"
	"labdesk/internal/metrics"
	"labdesk/internal/models"
	"labdesk/internal/services"
)

// Source names, also reported in Result.Unavailable.
const (
	SourceTestPlans      = "test-plans"
	SourceTestExecutions = "test-executions"
	SourceAudits         = "audits"
	SourceCertifications = "certifications"
	SourceProjects       = "projects"
	SourceSamples        = "samples"
	SourceRFQs           = "rfqs"
)

var sourceOrder = []string{
	SourceTestPlans,
	SourceTestExecutions,
	SourceAudits,
	SourceCertifications,
	SourceProjects,
	SourceSamples,
	SourceRFQs,
}

// Source lists raw records. *services.Resource[models.Record] implements it.
type Source interface {
	GetAll(ctx context.Context, filter url.Values) ([]models.Record, error)
}

// SourcesFromRegistry maps the registry's record clients to source names.
func SourcesFromRegistry(reg *services.Registry) map[string]Source {
	return map[string]Source{
		SourceTestPlans:      reg.TestPlans,
		SourceTestExecutions: reg.TestExecutions,
		SourceAudits:         reg.AuditRecords,
		SourceCertifications: reg.Certifications,
		SourceProjects:       reg.Projects,
		SourceSamples:        reg.Samples,
		SourceRFQs:           reg.RFQs,
	}
}

// Result is the merged event list plus the sources that could not be read.
type Result struct {
	Events      []Event  `json:"events"`
	Unavailable []string `json:"unavailable,omitempty"`
}

// Aggregator fans out to every source and merges their records into events.
type Aggregator struct {
	sources map[string]Source
	loc     *time.Location
	log     *zap.Logger
}

// NewAggregator creates an aggregator. Sources missing from the map are
// treated as empty. loc is used for dates without a zone.
func NewAggregator(sources map[string]Source, loc *time.Location, log *zap.Logger) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{sources: sources, loc: loc, log: logging.OrNop(log)}
}

// Location returns the zone used for dates without one.
func (a *Aggregator) Location() *time.Location { return a.loc }

// GetEvents returns the events whose start lies in [start, end], sorted by
// start. A failing source contributes nothing.
func (a *Aggregator) GetEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	res, err := a.Collect(ctx, start, end)
	return res.Events, err
}

// Collect is GetEvents that also reports which sources failed. The only
// error returned is the caller's context error.
func (a *Aggregator) Collect(ctx context.Context, start, end time.Time) (Result, error) {
	records := make([][]models.Record, len(sourceOrder))
	failed := make([]bool, len(sourceOrder))

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for i, name := range sourceOrder {
		src, ok := a.sources[name]
		if !ok || src == nil {
			continue
		}
		eg.Go(func() error {
			recs, err := src.GetAll(egCtx, nil)
			if err != nil {
				a.log.Warn("calendar source unavailable", zap.String("source", name), zap.Error(err))
				metrics.CalendarSourceFailures.WithLabelValues(name).Inc()
				mu.Lock()
				failed[i] = true
				mu.Unlock()
				return nil
			}
			mu.Lock()
			records[i] = recs
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{Events: []Event{}}, err
	}

	res := Result{Events: []Event{}}
	for i, name := range sourceOrder {
		if failed[i] {
			res.Unavailable = append(res.Unavailable, name)
			continue
		}
		for _, ev := range a.normalize(name, records[i]) {
			if inRange(ev.Start, start, end) {
				res.Events = append(res.Events, ev)
			}
		}
	}
	SortEvents(res.Events)
	return res, nil
}

func (a *Aggregator) normalize(source string, recs []models.Record) []Event {
	var out []Event
	for idx, rec := range recs {
		emitted := 0
		var parseErr error
		for _, r := range rules[source] {
			ev, err := r.toEvent(rec, idx, a.loc)
			if err != nil {
				if !errors.Is(err, errNoDate) {
					parseErr = err
				}
				continue
			}
			out = append(out, ev)
			emitted++
		}
		if emitted > 0 && parseErr == nil {
			continue
		}
		reason := errNoDate
		if parseErr != nil {
			reason = parseErr
		}
		a.log.Warn("skipping calendar record",
			zap.String("source", source),
			zap.String("id", recordID(rec)),
			zap.Error(reason))
		metrics.CalendarSkippedRecords.WithLabelValues(source).Inc()
	}
	return out
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// SortEvents orders events by start, then id.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
}
