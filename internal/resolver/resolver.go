// Package resolver turns raw upstream stream URLs into verified playable HLS URLs.
//
// A raw URL is rewritten onto each configured CDN host, the rewrites are probed
// with HEAD requests, and the first one answering with an HLS playlist wins.
// Winners are cached by host token. When no candidate qualifies the raw URL is
// probed once as a fallback.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phimkappa/phimkappa/internal/cache"
	"github.com/phimkappa/phimkappa/internal/config"
	"github.com/phimkappa/phimkappa/internal/constants"
	apperrors "github.com/phimkappa/phimkappa/internal/errors"
	"github.com/phimkappa/phimkappa/internal/metrics"
	"github.com/phimkappa/phimkappa/pkg/logger"
)

const tracerName = "github.com/phimkappa/phimkappa/internal/resolver"

// Meta identifies the stream being resolved. It is used for logging only.
type Meta struct {
	ContextKey string
	Episode    string
	Server     string
}

func (m Meta) String() string {
	return fmt.Sprintf("%s/%s/%s", m.ContextKey, m.Server, m.Episode)
}

// Options configures a Resolver.
type Options struct {
	Hosts            []string
	HostPattern      string
	Strategy         string
	ProbeTimeout     time.Duration
	CacheTTL         time.Duration
	AcceptUnverified bool
	// Now is the clock used for cache expiry. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps the resolver settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Hosts:            cfg.ResolverHosts,
		HostPattern:      cfg.ResolverHostPattern,
		Strategy:         cfg.ProbeStrategy,
		ProbeTimeout:     cfg.ProbeTimeout,
		CacheTTL:         cfg.ResolveCacheTTL,
		AcceptUnverified: cfg.AcceptUnverified,
	}
}

// entry is the cached form of a resolution: either a host token or a full URL.
type entry struct {
	Token     string    `json:"token,omitempty"`
	URL       string    `json:"url,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Resolver struct {
	store            cache.Store
	client           *http.Client
	logger           logger.Logger
	pattern          *regexp.Regexp
	hosts            []string
	strategy         string
	probeTimeout     time.Duration
	ttl              time.Duration
	acceptUnverified bool
	now              func() time.Time
	tracer           trace.Tracer
}

// New validates opts and builds a Resolver.
func New(store cache.Store, client *http.Client, log logger.Logger, opts Options) (*Resolver, error) {
	if store == nil {
		return nil, apperrors.NewConfigurationError("resolver requires a cache store", nil)
	}
	if len(opts.Hosts) == 0 {
		return nil, apperrors.NewConfigurationError("resolver requires at least one host", nil)
	}
	if opts.HostPattern == "" {
		opts.HostPattern = constants.DefaultHostPattern
	}
	pattern, err := regexp.Compile(opts.HostPattern)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid host pattern", err)
	}
	if pattern.NumSubexp() != 1 {
		return nil, apperrors.NewConfigurationError("host pattern must have exactly one capture group", nil)
	}

	switch opts.Strategy {
	case "":
		opts.Strategy = constants.ProbeStrategyRace
	case constants.ProbeStrategyRace, constants.ProbeStrategySequential:
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unknown probe strategy %q", opts.Strategy), nil)
	}

	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = constants.ProbeTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = constants.ResolveCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Resolver{
		store:            store,
		client:           client,
		logger:           log,
		pattern:          pattern,
		hosts:            append([]string(nil), opts.Hosts...),
		strategy:         opts.Strategy,
		probeTimeout:     opts.ProbeTimeout,
		ttl:              opts.CacheTTL,
		acceptUnverified: opts.AcceptUnverified,
		now:              opts.Now,
		tracer:           otel.Tracer(tracerName),
	}, nil
}

// Resolve returns a playable URL for rawURL, or ("", false) when nothing is reachable.
// Failures are logged and never returned.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, meta Meta) (string, bool) {
	ctx, span := r.tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(
		attribute.String("stream.context_key", meta.ContextKey),
		attribute.String("stream.server", meta.Server),
		attribute.String("stream.episode", meta.Episode),
	))
	defer span.End()

	resolved, result := r.resolve(ctx, rawURL, meta)

	metrics.ResolvesTotal.WithLabelValues(result).Inc()
	span.SetAttributes(attribute.String("resolver.result", result))
	if result == metrics.ResultFailed {
		span.SetStatus(codes.Error, "no reachable candidate")
		return "", false
	}
	return resolved, true
}

func (r *Resolver) resolve(ctx context.Context, rawURL string, meta Meta) (string, string) {
	if rawURL == "" {
		r.logger.Debugf("[Resolver] empty link for %s", meta)
		return "", metrics.ResultFailed
	}

	key := CacheKey(rawURL)
	if u, ok := r.lookup(ctx, key, rawURL); ok {
		r.logger.Debugf("[Resolver] cache hit for %s: %s", meta, u)
		return u, metrics.ResultCache
	}

	candidates := r.Candidates(rawURL)

	var (
		winner  int
		results []ProbeResult
	)
	if r.strategy == constants.ProbeStrategySequential {
		winner, results = r.probeSequential(ctx, candidates)
	} else {
		winner, results = r.probeRace(ctx, candidates)
	}

	for _, res := range results {
		if res.Outcome == OutcomeUnverified {
			r.logger.Debugf("[Resolver] unverified candidate for %s: %s (status %d, %q)",
				meta, res.Candidate.URL, res.StatusCode, res.ContentType)
		}
	}

	if winner >= 0 {
		c := candidates[winner]
		r.save(ctx, key, entry{Token: c.Token})
		r.logger.Infof("[Resolver] resolved %s via %s", meta, c.Token)
		return c.URL, metrics.ResultCandidate
	}

	if r.acceptUnverified {
		for i, res := range results {
			if res.Outcome == OutcomeUnverified {
				c := candidates[i]
				r.save(ctx, key, entry{Token: c.Token})
				r.logger.Infof("[Resolver] accepting unverified candidate %s for %s", c.Token, meta)
				return c.URL, metrics.ResultUnverified
			}
		}
	}

	if ctx.Err() != nil {
		r.logger.Debugf("[Resolver] resolution of %s abandoned: %v", meta, ctx.Err())
		return "", metrics.ResultFailed
	}

	fallback := r.probe(ctx, Candidate{URL: rawURL})
	if fallback.Reachable() {
		r.save(ctx, key, entry{URL: rawURL})
		r.logger.Infof("[Resolver] no candidate accepted for %s, using original link", meta)
		return rawURL, metrics.ResultFallback
	}

	r.logger.Warnf("[Resolver] %s: %v", meta, apperrors.NewCandidatesExhaustedError(rawURL, len(candidates)))
	return "", metrics.ResultFailed
}

// probeSequential stops at the first accepted candidate.
func (r *Resolver) probeSequential(ctx context.Context, candidates []Candidate) (int, []ProbeResult) {
	results := make([]ProbeResult, len(candidates))
	for i, c := range candidates {
		results[i] = r.probe(ctx, c)
		if results[i].Accepted() {
			return i, results
		}
		if ctx.Err() != nil {
			break
		}
	}
	return -1, results
}

// probeRace probes all candidates at once and returns as soon as one is accepted.
// Remaining probes are cancelled; the buffered channel lets them exit without a reader.
func (r *Resolver) probeRace(ctx context.Context, candidates []Candidate) (int, []ProbeResult) {
	results := make([]ProbeResult, len(candidates))
	if len(candidates) == 0 {
		return -1, results
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type indexed struct {
		i   int
		res ProbeResult
	}
	done := make(chan indexed, len(candidates))
	for i, c := range candidates {
		go func() {
			done <- indexed{i: i, res: r.probe(ctx, c)}
		}()
	}

	for range candidates {
		in := <-done
		results[in.i] = in.res
		if in.res.Accepted() {
			return in.i, results
		}
	}
	return -1, results
}

// lookup returns the cached URL for rawURL if a live entry exists.
func (r *Resolver) lookup(ctx context.Context, key, rawURL string) (string, bool) {
	data, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warnf("[Resolver] cache read failed for %s: %v", key, err)
		return "", false
	}
	if !ok {
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		r.logger.Warnf("[Resolver] discarding corrupt cache entry %s: %v", key, err)
		return "", false
	}
	if !e.ExpiresAt.IsZero() && !r.now().Before(e.ExpiresAt) {
		return "", false
	}

	if e.Token != "" {
		return r.substitute(rawURL, e.Token)
	}
	if e.URL != "" {
		return e.URL, true
	}
	return "", false
}

func (r *Resolver) save(ctx context.Context, key string, e entry) {
	e.ExpiresAt = r.now().Add(r.ttl)
	data, err := json.Marshal(e)
	if err != nil {
		r.logger.Errorf("[Resolver] failed to encode cache entry: %v", err)
		return
	}
	if err := r.store.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warnf("[Resolver] cache write failed for %s: %v", key, err)
	}
}
