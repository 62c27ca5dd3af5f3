package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/phimkappa/phimkappa/internal/cache"
	"github.com/phimkappa/phimkappa/internal/config"
	"github.com/phimkappa/phimkappa/internal/constants"
	apperrors "github.com/phimkappa/phimkappa/internal/errors"
	"github.com/phimkappa/phimkappa/internal/metrics"
	"github.com/phimkappa/phimkappa/internal/models"
	"github.com/phimkappa/phimkappa/pkg/httputil"
	"github.com/phimkappa/phimkappa/pkg/logger"
	"github.com/phimkappa/phimkappa/pkg/ratelimiter"
)

// Upstream catalog paths
const (
	pathCategories = "/the-loai"
	pathCountries  = "/quoc-gia"
	pathNewMovies  = "/danh-sach/phim-moi-cap-nhat"
	pathByCategory = "/v1/api/the-loai/"
	pathByCountry  = "/v1/api/quoc-gia/"
	pathSearch     = "/v1/api/tim-kiem"
	pathDetail     = "/phim/"

	maxBodySize = 8 << 20
)

// PhimAPI is the phimapi.com catalog client.
type PhimAPI struct {
	baseURL     string
	imageCDN    string
	cache       *cache.ResponseCache
	rateLimiter ratelimiter.RateLimiter
	httpClient  *http.Client
	retries     int
	retryDelay  time.Duration
	logger      logger.Logger
}

// NewPhimAPI creates a client for cfg.UpstreamBaseURL sharing responseCache.
func NewPhimAPI(cfg *config.Config, responseCache *cache.ResponseCache, log logger.Logger) *PhimAPI {
	return &PhimAPI{
		baseURL:     strings.TrimSuffix(cfg.UpstreamBaseURL, "/"),
		imageCDN:    strings.TrimSuffix(cfg.ImageCDNURL, "/"),
		cache:       responseCache,
		rateLimiter: ratelimiter.NewTokenBucket(int64(cfg.UpstreamRateBurst), int64(cfg.UpstreamRateLimit)),
		httpClient:  httputil.NewHTTPClient(cfg.UpstreamTimeout),
		retries:     cfg.UpstreamRetries,
		retryDelay:  constants.UpstreamRetryDelay,
		logger:      log,
	}
}

// SetHTTPClient replaces the HTTP client. Used by tests.
func (p *PhimAPI) SetHTTPClient(client *http.Client) {
	p.httpClient = client
}

func (p *PhimAPI) GetCategories(ctx context.Context) ([]models.Taxonomy, error) {
	return p.getTaxonomy(ctx, pathCategories)
}

func (p *PhimAPI) GetCountries(ctx context.Context) ([]models.Taxonomy, error) {
	return p.getTaxonomy(ctx, pathCountries)
}

func (p *PhimAPI) getTaxonomy(ctx context.Context, path string) ([]models.Taxonomy, error) {
	var items []models.Taxonomy
	if err := p.getJSON(ctx, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetNewMovies returns one page of recently updated movies.
func (p *PhimAPI) GetNewMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	var resp models.NewMoviesResponse
	if err := p.getJSON(ctx, pathNewMovies, pageQuery(page), &resp); err != nil {
		return nil, err
	}
	return p.moviePage(resp.Items, resp.Pagination, p.imageCDN), nil
}

func (p *PhimAPI) GetMoviesByCategory(ctx context.Context, slug string, page int) (*models.MoviePage, error) {
	return p.getList(ctx, pathByCategory+url.PathEscape(slug), pageQuery(page))
}

func (p *PhimAPI) GetMoviesByCountry(ctx context.Context, slug string, page int) (*models.MoviePage, error) {
	return p.getList(ctx, pathByCountry+url.PathEscape(slug), pageQuery(page))
}

// SearchMovies searches by keyword; empty filters are not sent.
func (p *PhimAPI) SearchMovies(ctx context.Context, keyword string, params models.SearchParams) (*models.MoviePage, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, apperrors.NewInvalidParameterError("keyword")
	}

	query := pageQuery(params.Page)
	query.Set("keyword", keyword)
	for key, val := range map[string]string{
		"category":  params.Category,
		"country":   params.Country,
		"year":      params.Year,
		"sort_lang": params.SortLang,
	} {
		if val != "" {
			query.Set(key, val)
		}
	}
	return p.getList(ctx, pathSearch, query)
}

func (p *PhimAPI) getList(ctx context.Context, path string, query url.Values) (*models.MoviePage, error) {
	var resp models.ListResponse
	if err := p.getJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}

	cdn := resp.Data.CDNImageDomain
	if cdn == "" {
		cdn = p.imageCDN
	}
	return p.moviePage(resp.Data.Items, resp.Data.Params.Pagination, cdn), nil
}

// GetMovieDetail returns a movie with its episodes grouped by server.
func (p *PhimAPI) GetMovieDetail(ctx context.Context, slug string) (*models.MovieDetail, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, apperrors.NewInvalidParameterError("uid")
	}

	var resp models.DetailResponse
	if err := p.getJSON(ctx, pathDetail+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(resp.Movie)
	if !resp.Status || len(raw) == 0 || raw[0] != '{' {
		return nil, apperrors.NewNotFoundError("movie " + slug)
	}

	var movie models.Movie
	if err := json.Unmarshal(raw, &movie); err != nil {
		return nil, apperrors.NewUpstreamError("failed to decode movie detail", err)
	}
	if movie.Slug == "" {
		return nil, apperrors.NewNotFoundError("movie " + slug)
	}

	movie.PosterURL = absoluteImageURL(p.imageCDN, movie.PosterURL)
	movie.ThumbURL = absoluteImageURL(p.imageCDN, movie.ThumbURL)

	p.logger.Debugf("[PhimAPI] detail %s: %d servers", slug, len(resp.Episodes))
	return &models.MovieDetail{Movie: movie, Servers: resp.Episodes}, nil
}

func (p *PhimAPI) moviePage(items []models.Movie, pagination models.Pagination, cdn string) *models.MoviePage {
	for i := range items {
		items[i].PosterURL = absoluteImageURL(cdn, items[i].PosterURL)
		items[i].ThumbURL = absoluteImageURL(cdn, items[i].ThumbURL)
	}
	return &models.MoviePage{Items: items, Pagination: pagination}
}

func (p *PhimAPI) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := p.fetch(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewUpstreamError(fmt.Sprintf("failed to decode %s", path), err)
	}
	return nil
}

// fetch returns the body for path, from the response cache when possible.
// Network errors and 5xx responses are retried; other failures are not.
func (p *PhimAPI) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := p.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if body, found := p.cache.Get(target); found {
		metrics.UpstreamRequestsTotal.WithLabelValues("cache").Inc()
		return body, nil
	}

	p.logger.Debugf("[PhimAPI] fetching %s", target)

	attempts := p.retries + 1
	if attempts < 1 {
		attempts = 1
	}

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			return p.get(ctx, target, path)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(p.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warnf("[PhimAPI] retry %d for %s: %v", n+1, path, err)
		}),
	)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("error").Inc()
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError(path)
		}
		p.logger.Errorf("[PhimAPI] failed to fetch %s: %v", path, err)
		return nil, apperrors.NewUpstreamError(fmt.Sprintf("failed to fetch %s", path), err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues("network").Inc()
	p.cache.Set(target, body)
	return body, nil
}

func (p *PhimAPI) get(ctx context.Context, target, path string) ([]byte, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, retry.Unrecoverable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Unrecoverable(apperrors.NewNotFoundError(path))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Unrecoverable(fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	return body, nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// absoluteImageURL resolves upstream image paths, which may be relative to the CDN.
func absoluteImageURL(cdn, path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "//"):
		return "https:" + path
	default:
		return strings.TrimSuffix(cdn, "/") + "/" + strings.TrimPrefix(path, "/")
	}
}
