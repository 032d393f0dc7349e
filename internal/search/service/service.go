// Package service orchestrates the search pipeline: cache lookup, breaker
// guarded registry fetch with a parallel debt lookup, graph building, risk
// analysis, and write-back. Once a request is past the rate limiter it is
// served no matter what: upstream faults degrade to cached or minimal
// results instead of erroring.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"nexus/internal/analytics"
	"nexus/internal/cache"
	"nexus/internal/circuit"
	"nexus/internal/graph"
	platformmw "nexus/internal/platform/middleware"
	"nexus/internal/registry/adapters"
	"nexus/internal/registry/debt"
	"nexus/internal/registry/models"
	"nexus/internal/risk"
	searchmetrics "nexus/internal/search/metrics"
	"nexus/internal/search/store/history"
	dErrors "nexus/pkg/domain-errors"
)

// cacheSourceTag namespaces search results in the layered cache.
const cacheSourceTag = "registry"

// HistoryStore records completed searches.
type HistoryStore interface {
	Insert(ctx context.Context, record history.Record) error
	List(ctx context.Context, limit int, country string) ([]history.Record, error)
	Stats(ctx context.Context) (history.Stats, error)
}

// Meta carries the confidence metadata accompanying a result. Degraded
// results are structurally identical to full ones; these flags are the only
// difference.
type Meta struct {
	CacheHit    bool      `json:"cache_hit"`
	Degraded    bool      `json:"degraded"`
	NotFound    bool      `json:"not_found,omitempty"`
	Source      string    `json:"source"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Result is the pipeline output.
type Result struct {
	Query   string        `json:"query"`
	Country string        `json:"country"`
	Nodes   []*graph.Node `json:"nodes"`
	Edges   []graph.Edge  `json:"edges"`
	Summary risk.Summary  `json:"summary"`
	Meta    Meta          `json:"meta"`
}

// Service wires the pipeline collaborators together.
type Service struct {
	adapters     map[string]adapters.Adapter
	breakers     *circuit.Registry
	cache        *cache.Layered
	debt         debt.Lookup
	engine       *risk.Engine
	historyStore HistoryStore
	publisher    analytics.Publisher

	fetchTimeout time.Duration
	cacheTTL     time.Duration
	logger       *slog.Logger
	metrics      *searchmetrics.Metrics
	tracer       trace.Tracer
	now          func() time.Time
}

type Option func(*Service)

func WithDebtLookup(lookup debt.Lookup) Option {
	return func(s *Service) {
		s.debt = lookup
	}
}

func WithPublisher(publisher analytics.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.fetchTimeout = d
	}
}

func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *searchmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(
	registryAdapters []adapters.Adapter,
	breakers *circuit.Registry,
	layered *cache.Layered,
	engine *risk.Engine,
	historyStore HistoryStore,
	opts ...Option,
) (*Service, error) {
	if len(registryAdapters) == 0 {
		return nil, fmt.Errorf("at least one registry adapter is required")
	}
	if breakers == nil {
		return nil, fmt.Errorf("circuit registry is required")
	}
	if layered == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("risk engine is required")
	}
	if historyStore == nil {
		return nil, fmt.Errorf("history store is required")
	}

	s := &Service{
		adapters:     make(map[string]adapters.Adapter, len(registryAdapters)),
		breakers:     breakers,
		cache:        layered,
		engine:       engine,
		historyStore: historyStore,
		fetchTimeout: 5 * time.Second,
		cacheTTL:     24 * time.Hour,
		logger:       slog.Default(),
		tracer:       otel.Tracer("nexus/search"),
		now:          time.Now,
	}
	for _, adapter := range registryAdapters {
		s.adapters[adapter.Country()] = adapter
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search resolves a company query into a risk-annotated ownership graph.
// forceRefresh bypasses the cache read (the fresh result is still written
// back).
func (s *Service) Search(ctx context.Context, query string, forceRefresh bool) (*Result, error) {
	identifier := adapters.NormalizeIdentifier(query)
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "query is required")
	}
	country := adapters.DetectCountry(identifier)

	ctx, span := s.tracer.Start(ctx, "search.pipeline",
		trace.WithAttributes(
			attribute.String("search.country", country),
			attribute.Bool("search.force_refresh", forceRefresh),
		))
	defer span.End()

	start := s.now()
	key := cache.Key(cacheSourceTag, identifier)

	if !forceRefresh {
		if payload, ok := s.cache.Get(ctx, key); ok {
			var result Result
			if err := json.Unmarshal(payload, &result); err == nil {
				result.Meta.CacheHit = true
				span.SetAttributes(attribute.Bool("search.cache_hit", true))
				s.finish(ctx, &result, start)
				return &result, nil
			}
			// A corrupt entry is dropped and the search continues upstream.
			s.logger.WarnContext(ctx, "corrupt cache entry discarded", "key", key)
			s.cache.Delete(ctx, key)
		}
	}

	record, debtInfo, meta := s.gather(ctx, identifier, country)

	// The root company node is keyed by the record's canonical identifier,
	// which upstreams may normalize away from the query; the debt edge must
	// anchor on the node that actually exists.
	var (
		g         *graph.Graph
		companyID string
	)
	debtRef := identifier
	if record != nil {
		g, companyID = graph.Normalize(*record)
		if record.Identifier != "" {
			debtRef = record.Identifier
		}
	} else {
		g = graph.Minimal(country, identifier)
		companyID = graph.CompanyNodeID(country, identifier)
	}
	if debtInfo != nil {
		graph.AttachDebt(g, companyID, debtRef, *debtInfo)
	}
	if err := g.Validate(); err != nil {
		// Inconsistent graphs are a builder bug; log loudly but keep serving.
		s.logger.ErrorContext(ctx, "graph failed validation", "error", err, "query", identifier)
	}

	summary := s.engine.Analyze(ctx, g)

	meta.RetrievedAt = s.now().UTC()
	result := &Result{
		Query:   identifier,
		Country: country,
		Nodes:   g.Nodes,
		Edges:   g.Edges,
		Summary: summary,
		Meta:    meta,
	}

	// Degraded results are not cached: the next request should retry the
	// upstream instead of pinning the fallback for a day.
	if !meta.Degraded {
		if payload, err := json.Marshal(result); err == nil {
			s.cache.Set(ctx, key, payload, s.cacheTTL)
		}
	}

	if meta.Degraded && s.metrics != nil {
		s.metrics.RecordDegraded(country)
	}
	span.SetAttributes(
		attribute.Bool("search.degraded", meta.Degraded),
		attribute.Float64("search.max_risk_score", summary.MaxRiskScore),
	)

	s.finish(ctx, result, start)
	return result, nil
}

// gather runs the registry fetch and the debt lookup in parallel. Both legs
// are best-effort: the outcome is carried in the returned values, never as
// an error, so one failing upstream cannot cancel the other.
func (s *Service) gather(ctx context.Context, identifier, country string) (*models.RawRecord, *models.DebtInfo, Meta) {
	adapter, ok := s.adapters[country]
	meta := Meta{Source: "none"}
	if !ok {
		s.logger.WarnContext(ctx, "no adapter for country", "country", country)
		meta.Degraded = true
		return nil, nil, meta
	}
	meta.Source = adapter.Name()

	var (
		record   *models.RawRecord
		debtInfo *models.DebtInfo
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := s.breakers.Do(groupCtx, adapter.Name(), func(ctx context.Context) error {
			fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()

			fetched, err := adapter.Fetch(fetchCtx, identifier)
			if err == nil {
				record = fetched
				return nil
			}

			switch {
			case adapters.IsNotFound(err):
				// Valid call, no data: must not count against the breaker.
				meta.NotFound = true
				return nil
			case adapters.IsUpstreamFault(err):
				return err
			default:
				// Malformed payloads are logged and degrade, but a parser
				// mismatch is not an upstream outage.
				s.logger.WarnContext(ctx, "malformed registry record",
					"upstream", adapter.Name(), "error", err)
				meta.Degraded = true
				return nil
			}
		})
		if err != nil {
			meta.Degraded = true
			s.logger.WarnContext(groupCtx, "registry fetch failed, serving degraded result",
				"upstream", adapter.Name(),
				"error", err,
				"retry_in", circuit.RetryIn(err),
			)
		}
		return nil
	})

	if s.debt != nil {
		group.Go(func() error {
			info, err := s.debt.Lookup(groupCtx, identifier, country)
			if err != nil {
				// Best-effort: a debt register outage just means no debt node.
				return nil
			}
			debtInfo = info
			return nil
		})
	}

	_ = group.Wait()
	return record, debtInfo, meta
}

// finish records history, metrics and analytics for a completed search.
func (s *Service) finish(ctx context.Context, result *Result, start time.Time) {
	duration := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.RecordSearch(result.Country, result.Meta.CacheHit, duration)
	}

	client := platformmw.ClientInfoFrom(ctx)
	record := history.Record{
		ID:           uuid.NewString(),
		Query:        result.Query,
		Country:      result.Country,
		NodeCount:    len(result.Nodes),
		EdgeCount:    len(result.Edges),
		MaxRiskScore: result.Summary.MaxRiskScore,
		CacheHit:     result.Meta.CacheHit,
		Degraded:     result.Meta.Degraded,
		DurationMS:   float64(duration.Microseconds()) / 1000,
		UserIP:       client.IP,
		UserAgent:    client.UserAgent,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.historyStore.Insert(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "history insert failed", "error", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(ctx, analytics.NewEvent(analytics.Event{
			Query:              result.Query,
			Country:            result.Country,
			CacheHit:           result.Meta.CacheHit,
			Degraded:           result.Meta.Degraded,
			NodeCount:          len(result.Nodes),
			WhiteHorses:        result.Summary.WhiteHorseCount,
			CircularStructures: result.Summary.CircularStructureCount,
			MaxRiskScore:       result.Summary.MaxRiskScore,
			DurationMS:         record.DurationMS,
			UserIP:             client.IP,
			UserAgent:          client.UserAgent,
		}))
	}
}

// History lists recent searches for the audit endpoint.
func (s *Service) History(ctx context.Context, limit int, country string) ([]history.Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.historyStore.List(ctx, limit, country)
}

// HistoryStats exposes history-backend statistics.
func (s *Service) HistoryStats(ctx context.Context) (history.Stats, error) {
	return s.historyStore.Stats(ctx)
}

// CacheStats exposes layered-cache statistics.
func (s *Service) CacheStats(ctx context.Context) cache.Stats {
	return s.cache.Stats(ctx)
}
