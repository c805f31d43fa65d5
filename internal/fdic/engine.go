package fdic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/finquarry/callreport/internal/config"
	"github.com/finquarry/callreport/internal/infra"
	"github.com/finquarry/callreport/pkg/models"
)

// Engine is the financial data retrieval and caching engine. It owns its
// response cache and HTTP client; construct one per application and
// inject it where needed — there is no process-wide instance.
//
// The engine is safe for concurrent callers. Fetches are independent
// (concurrent misses on the same key each fetch; duplicate suppression
// was deliberately left out) and the cache is the only shared mutable
// state.
type Engine struct {
	log     zerolog.Logger
	client  *http.Client
	cache   *responseCache
	limiter *infra.RateLimiter
	norm    normalizer

	baseURL     string
	endpoint    string
	apiKey      string
	providerMax int
}

// New constructs an Engine from configuration. It fails when the field
// catalog references a code missing from the typed field registry, so a
// catalog typo surfaces at startup rather than as a silent no-op.
func New(cfg *config.Config, log zerolog.Logger) (*Engine, error) {
	if err := validateRegistry(); err != nil {
		return nil, fmt.Errorf("field catalog: %w", err)
	}

	providerMax := cfg.Provider.MaxLimit
	if providerMax <= 0 {
		providerMax = 10000
	}
	rate := cfg.Provider.RateLimit
	if rate <= 0 {
		rate = 10
	}

	return &Engine{
		log:         log,
		client:      infra.NewHTTPClient(cfg.Provider.Timeout()),
		cache:       newResponseCache(cfg.Cache.MaxEntries, cfg.Cache.TTL(), cfg.Cache.ErrorTTL()),
		limiter:     infra.NewRateLimiter(rate, time.Second),
		norm:        normalizer{log: log},
		baseURL:     cfg.Provider.BaseURL,
		endpoint:    cfg.Provider.FinancialsEndpoint,
		apiKey:      cfg.Provider.APIKey,
		providerMax: providerMax,
	}, nil
}

// GetFinancialData serves one caller query: build the provider query,
// consult the cache, fetch on a miss, normalize, and store. Callers
// always receive a response object; failures surface as Success=false
// with a populated ErrorMessage, never as a panic.
func (e *Engine) GetFinancialData(ctx context.Context, req Request) *models.APIResponse {
	info := &models.QueryInfo{
		CertID:       req.CertID,
		AnalysisType: req.AnalysisType,
		Quarters:     req.Quarters,
		ReportDate:   req.ReportDate,
		Filters:      req.Filters,
	}

	// Validation errors never reach the network and are not cached.
	if req.CertID != "" && !validCert(req.CertID) {
		return models.ErrorResponse(
			fmt.Sprintf("invalid cert identifier %q: must be numeric, at most 10 characters", req.CertID),
			info)
	}
	if req.AnalysisType != "" {
		if _, known := CatalogFields(req.AnalysisType); !known {
			// Permissive by contract: unknown analysis types fall back to
			// the comprehensive field set instead of failing the call.
			e.log.Warn().Str("analysis_type", req.AnalysisType).
				Msg("unknown analysis type, using comprehensive field set")
		}
	}

	params := buildQuery(req, e.providerMax)
	key := cacheKey(params)

	if cached, ok := e.cache.get(key); ok {
		hit := *cached
		hit.Cached = true
		hit.QueryInfo = info
		return &hit
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return models.ErrorResponse(fmt.Sprintf("transport error: %v", err), info)
	}

	env, apiErr := e.fetch(ctx, params)
	if apiErr != nil {
		resp := models.ErrorResponse(apiErr.Error(), info)
		// Provider and parse failures are fully-formed outcomes worth
		// caching briefly so repeated bad queries don't hammer the
		// provider. Transport failures are not cached.
		if apiErr.Kind == ErrKindProvider || apiErr.Kind == ErrKindParse {
			e.cache.put(key, resp, 0, params)
		}
		return resp
	}

	records, skipped := e.norm.normalize(env.Records)
	resp := &models.APIResponse{
		Success:      true,
		Records:      records,
		Metadata:     env.Metadata,
		QueryInfo:    info,
		SkippedCount: skipped,
	}
	e.cache.put(key, resp, 0, params)
	return resp
}

// HealthCheck issues a minimal bounded query and reports whether the
// provider answered without error. The cache is bypassed so the check
// reflects current connectivity.
func (e *Engine) HealthCheck(ctx context.Context) bool {
	params := map[string]string{
		paramFields:    FieldCert,
		paramSortBy:    FieldReportDate,
		paramSortOrder: "DESC",
		paramLimit:     "1",
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return false
	}
	_, apiErr := e.fetch(ctx, params)
	return apiErr == nil
}

// ClearCache removes all cached responses unconditionally.
func (e *Engine) ClearCache() {
	e.cache.clear()
}

// CacheStats reports cache occupancy for observability.
func (e *Engine) CacheStats() models.CacheStats {
	return e.cache.stats()
}
