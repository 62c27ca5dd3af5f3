package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phimkappa/phimkappa/internal/config"
	apperrors "github.com/phimkappa/phimkappa/internal/errors"
	"github.com/phimkappa/phimkappa/internal/models"
	"github.com/phimkappa/phimkappa/internal/resolver"
	"github.com/phimkappa/phimkappa/internal/services"
	"github.com/phimkappa/phimkappa/pkg/logger"
)

const baseURL = "https://kappa.example.com"

type fakeCatalog struct {
	categories   []models.Taxonomy
	countries    []models.Taxonomy
	countriesErr error
	page         *models.MoviePage
	pageErr      error
	details      map[string]*models.MovieDetail

	mu         sync.Mutex
	lastSlug   string
	lastPage   int
	lastSearch string
	lastParams models.SearchParams
}

func (f *fakeCatalog) GetCategories(ctx context.Context) ([]models.Taxonomy, error) {
	return f.categories, nil
}

func (f *fakeCatalog) GetCountries(ctx context.Context) ([]models.Taxonomy, error) {
	return f.countries, f.countriesErr
}

func (f *fakeCatalog) GetNewMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	f.record("", page)
	return f.page, f.pageErr
}

func (f *fakeCatalog) GetMoviesByCategory(ctx context.Context, slug string, page int) (*models.MoviePage, error) {
	f.record(slug, page)
	return f.page, f.pageErr
}

func (f *fakeCatalog) GetMoviesByCountry(ctx context.Context, slug string, page int) (*models.MoviePage, error) {
	f.record(slug, page)
	return f.page, f.pageErr
}

func (f *fakeCatalog) SearchMovies(ctx context.Context, keyword string, params models.SearchParams) (*models.MoviePage, error) {
	f.mu.Lock()
	f.lastSearch, f.lastParams = keyword, params
	f.mu.Unlock()
	return f.page, f.pageErr
}

func (f *fakeCatalog) GetMovieDetail(ctx context.Context, slug string) (*models.MovieDetail, error) {
	if d, ok := f.details[slug]; ok {
		return d, nil
	}
	return nil, apperrors.NewNotFoundError("movie " + slug)
}

func (f *fakeCatalog) record(slug string, page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSlug, f.lastPage = slug, page
}

// fakeResolver resolves only the links it knows about.
type fakeResolver struct {
	mu       sync.Mutex
	resolved map[string]string
	calls    []resolver.Meta
}

func (f *fakeResolver) Resolve(ctx context.Context, rawURL string, meta resolver.Meta) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, meta)
	u, ok := f.resolved[rawURL]
	return u, ok
}

func testDetail() *models.MovieDetail {
	return &models.MovieDetail{
		Movie: models.Movie{
			ID:         "a1b2",
			Name:       "Ngôi Trường Xác Sống",
			Slug:       "ngoi-truong-xac-song",
			OriginName: "All of Us Are Dead",
			Content:    "Một trường trung học trở thành điểm bùng phát virus zombie.",
			Type:       "series",
			PosterURL:  "https://phimimg.com/upload/vod/poster.jpg",
		},
		Servers: []models.EpisodeServer{
			{
				ServerName: "#Hà Nội (Vietsub)",
				ServerData: []models.Episode{
					{Name: "Tập 01", Slug: "tap-01", LinkM3U8: "https://s1.example.tv/e1/index.m3u8", LinkEmbed: "https://player.example.tv/e1"},
					{Name: "Tập 02", Slug: "tap-02", LinkM3U8: "https://s1.example.tv/e2/index.m3u8"},
					{Name: "Tập 03", Slug: "tap-03", LinkM3U8: "https://s1.example.tv/e3/index.m3u8", LinkEmbed: "https://player.example.tv/e3"},
				},
			},
			{
				ServerName: "#Hà Nội (Lồng Tiếng)",
				ServerData: []models.Episode{
					{Name: "Tập 01", Slug: "tap-01", LinkEmbed: "https://player.example.tv/l1"},
				},
			},
		},
	}
}

func setupTestRouter(t *testing.T, catalog *fakeCatalog, res *fakeResolver, mutate func(*config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.PublicBaseURL = baseURL
	if mutate != nil {
		mutate(cfg)
	}

	container := &services.Container{
		Catalog:  catalog,
		Resolver: res,
		Logger:   logger.NewWithWriter("error", io.Discard),
	}

	r := gin.New()
	New(container, cfg).RegisterRoutes(r)
	return r
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHome(t *testing.T) {
	catalog := &fakeCatalog{
		categories: []models.Taxonomy{{Name: "Hành Động", Slug: "hanh-dong"}, {Slug: ""}},
		countries:  []models.Taxonomy{{Name: "Hàn Quốc", Slug: "han-quoc"}},
	}
	router := setupTestRouter(t, catalog, &fakeResolver{}, nil)

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)

	home := decode[models.Provider](t, w)
	assert.Equal(t, "phimkappa", home.ID)
	assert.Equal(t, baseURL, home.URL)
	assert.Equal(t, baseURL+"/public/logo.svg", home.Image.URL)
	require.Len(t, home.Sorts, 3)

	assert.Equal(t, "Mới nhất", home.Sorts[0].Text)
	assert.Equal(t, baseURL+"/newest", home.Sorts[0].URL)

	assert.Equal(t, "dropdown", home.Sorts[1].Type)
	require.Len(t, home.Sorts[1].Value, 2)
	assert.Equal(t, baseURL+"/sort/category?uid=hanh-dong", home.Sorts[1].Value[0].URL)
	assert.Equal(t, "Unknown Category", home.Sorts[1].Value[1].Text)
	assert.Equal(t, baseURL+"/sort/category?uid=unknown", home.Sorts[1].Value[1].URL)

	assert.Equal(t, baseURL+"/sort/country?uid=han-quoc", home.Sorts[2].Value[0].URL)

	require.NotNil(t, home.Search)
	assert.Equal(t, baseURL+"/search", home.Search.URL)
}

func TestHomeOmitsFailedDropdown(t *testing.T) {
	catalog := &fakeCatalog{
		categories:   []models.Taxonomy{{Name: "Hành Động", Slug: "hanh-dong"}},
		countriesErr: apperrors.NewUpstreamError("boom", nil),
	}
	router := setupTestRouter(t, catalog, &fakeResolver{}, nil)

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	home := decode[models.Provider](t, w)
	require.Len(t, home.Sorts, 2)
	assert.Equal(t, "Thể loại", home.Sorts[1].Text)
}

func TestNewestMapsChannels(t *testing.T) {
	catalog := &fakeCatalog{page: &models.MoviePage{
		Items: []models.Movie{
			{ID: "1", Name: "Phim Bộ", Slug: "phim-bo", Type: "series", ThumbURL: "https://phimimg.com/t.jpg", Description: "Mô tả"},
			{Slug: "phim-le", Type: "single"},
		},
		Pagination: models.Pagination{CurrentPage: 1, TotalPages: 3, TotalItemsPerPage: 24},
	}}
	router := setupTestRouter(t, catalog, &fakeResolver{}, nil)

	w := get(router, "/newest")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.ChannelList](t, w)
	require.Len(t, list.Channels, 2)

	series := list.Channels[0]
	assert.Equal(t, "1", series.ID)
	assert.Equal(t, "playlist", series.Type)
	assert.Equal(t, "text-below", series.Display)
	assert.True(t, series.EnableDetail)
	assert.Equal(t, "https://phimimg.com/t.jpg", series.Image.URL)
	assert.Equal(t, "cover", series.Image.Type)
	assert.Equal(t, "Mô tả", series.Description)
	assert.Equal(t, baseURL+"/channel-detail?uid=phim-bo", series.RemoteData.URL)
	assert.Equal(t, baseURL+"/share-channel?uid=phim-bo", series.Share.URL)

	single := list.Channels[1]
	assert.True(t, strings.HasPrefix(single.ID, "movie-"))
	assert.Len(t, single.ID, len("movie-")+9)
	assert.Equal(t, "Không tên", single.Name)
	assert.Equal(t, "Không có mô tả", single.Description)
	assert.Equal(t, "single", single.Type)
	assert.Equal(t, "https://via.placeholder.com/150", single.Image.URL)

	require.NotNil(t, list.LoadMore)
	assert.Equal(t, baseURL+"/newest?page=2", list.LoadMore.RemoteData.URL)
	assert.Equal(t, 24, list.LoadMore.Paging.PageSize)
	assert.Equal(t, 1, catalog.lastPage)
}

func TestListingLastPageHasNoLoadMore(t *testing.T) {
	catalog := &fakeCatalog{page: &models.MoviePage{
		Items:      []models.Movie{{ID: "1", Slug: "a"}},
		Pagination: models.Pagination{CurrentPage: 3, TotalPages: 3},
	}}
	router := setupTestRouter(t, catalog, &fakeResolver{}, nil)

	w := get(router, "/sort/category?uid=hanh-dong&page=3")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.ChannelList](t, w)
	assert.Nil(t, list.LoadMore)
	assert.Equal(t, "hanh-dong", catalog.lastSlug)
	assert.Equal(t, 3, catalog.lastPage)
}

func TestCountryListing(t *testing.T) {
	catalog := &fakeCatalog{page: &models.MoviePage{
		Items:      []models.Movie{{ID: "1", Slug: "a"}},
		Pagination: models.Pagination{CurrentPage: 1, TotalPages: 2},
	}}
	router := setupTestRouter(t, catalog, &fakeResolver{}, nil)

	w := get(router, "/sort/country?uid=han-quoc")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.ChannelList](t, w)
	require.NotNil(t, list.LoadMore)
	assert.Equal(t, baseURL+"/sort/country?page=2&uid=han-quoc", list.LoadMore.RemoteData.URL)
	assert.Equal(t, "han-quoc", catalog.lastSlug)
}

func TestSearchPassesFilters(t *testing.T) {
	catalog := &fakeCatalog{page: &models.MoviePage{}}
	router := setupTestRouter(t, catalog, &fakeResolver{}, nil)

	w := get(router, "/search?keyword=x%C3%A1c+s%E1%BB%91ng&country=han-quoc&year=2022&sort_lang=vietsub")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"channels":[]}`, w.Body.String())

	assert.Equal(t, "xác sống", catalog.lastSearch)
	assert.Equal(t, models.SearchParams{Country: "han-quoc", Year: "2022", SortLang: "vietsub", Page: 1}, catalog.lastParams)
}

func TestMissingParameters(t *testing.T) {
	router := setupTestRouter(t, &fakeCatalog{}, &fakeResolver{}, nil)

	for _, target := range []string{
		"/sort/category",
		"/sort/country?uid=",
		"/search",
		"/channel-detail",
		"/stream-detail?uid=abc",
		"/share-channel",
	} {
		t.Run(target, func(t *testing.T) {
			w := get(router, target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Missing")
		})
	}
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	catalog := &fakeCatalog{pageErr: apperrors.NewUpstreamError("failed to fetch /danh-sach/phim-moi-cap-nhat", nil)}
	router := setupTestRouter(t, catalog, &fakeResolver{}, nil)

	w := get(router, "/newest")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"failed to fetch /danh-sach/phim-moi-cap-nhat"}`, w.Body.String())
}

func TestChannelDetailNotFound(t *testing.T) {
	router := setupTestRouter(t, &fakeCatalog{}, &fakeResolver{}, nil)

	w := get(router, "/channel-detail?uid=missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChannelDetailKeepsUnresolvedLinks(t *testing.T) {
	catalog := &fakeCatalog{details: map[string]*models.MovieDetail{"ngoi-truong-xac-song": testDetail()}}
	res := &fakeResolver{resolved: map[string]string{
		"https://s1.example.tv/e1/index.m3u8": "https://s3.example.tv/e1/index.m3u8",
	}}
	router := setupTestRouter(t, catalog, res, nil)

	w := get(router, "/channel-detail?uid=ngoi-truong-xac-song")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.ChannelDetail](t, w)

	assert.Equal(t, "a1b2", detail.ID)
	assert.Equal(t, "playlist", detail.Type)
	assert.Equal(t, "All of Us Are Dead", detail.Subtitle)
	require.Len(t, detail.Sources, 2)

	streams := detail.Sources[0].Contents[0].Streams
	require.Len(t, streams, 3)

	first := streams[0]
	assert.Equal(t, "ngoi-truong-xac-song-0-tap-01", first.ID)
	require.Len(t, first.StreamLinks, 2)
	assert.Equal(t, "hls", first.StreamLinks[0].Type)
	assert.Equal(t, "https://s3.example.tv/e1/index.m3u8", first.StreamLinks[0].URL)
	assert.True(t, first.StreamLinks[0].Default)
	assert.Equal(t, "embed", first.StreamLinks[1].Type)
	assert.False(t, first.StreamLinks[1].Default)

	assert.Equal(t, "https://s1.example.tv/e2/index.m3u8", streams[1].StreamLinks[0].URL, "unresolved link is kept as is")

	dubbed := detail.Sources[1].Contents[0].Streams
	require.Len(t, dubbed, 1)
	assert.Equal(t, "embed", dubbed[0].StreamLinks[0].Type)
	assert.True(t, dubbed[0].StreamLinks[0].Default)

	require.Len(t, detail.Episodes, 4)
	assert.Equal(t, models.EpisodeLink{Name: "Tập 01", URL: "https://s3.example.tv/e1/index.m3u8"}, detail.Episodes[0])

	assert.Len(t, res.calls, 3, "only HLS links are resolved")
}

func TestChannelDetailDropsUnresolvedLinks(t *testing.T) {
	catalog := &fakeCatalog{details: map[string]*models.MovieDetail{"ngoi-truong-xac-song": testDetail()}}
	res := &fakeResolver{resolved: map[string]string{
		"https://s1.example.tv/e1/index.m3u8": "https://s3.example.tv/e1/index.m3u8",
	}}
	router := setupTestRouter(t, catalog, res, func(c *config.Config) {
		c.DropUnresolved = true
		c.ResolveConcurrency = 2
	})

	w := get(router, "/channel-detail?uid=ngoi-truong-xac-song")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.ChannelDetail](t, w)

	streams := detail.Sources[0].Contents[0].Streams
	require.Len(t, streams, 2, "episode 2 has no embed and no resolved link")
	assert.Equal(t, "Tập 01", streams[0].Name)
	assert.Equal(t, "Tập 03", streams[1].Name)
	require.Len(t, streams[1].StreamLinks, 1)
	assert.Equal(t, "embed", streams[1].StreamLinks[0].Type)
}

func TestStreamDetail(t *testing.T) {
	catalog := &fakeCatalog{details: map[string]*models.MovieDetail{"ngoi-truong-xac-song": testDetail()}}
	res := &fakeResolver{resolved: map[string]string{
		"https://s1.example.tv/e1/index.m3u8": "https://s3.example.tv/e1/index.m3u8",
	}}
	router := setupTestRouter(t, catalog, res, nil)

	w := get(router, "/stream-detail?uid=ngoi-truong-xac-song&server=0&episode=tap-01")
	require.Equal(t, http.StatusOK, w.Code)
	stream := decode[models.Stream](t, w)
	assert.Equal(t, "https://s3.example.tv/e1/index.m3u8", stream.StreamLinks[0].URL)
	require.Len(t, res.calls, 1)
	assert.Equal(t, resolver.Meta{ContextKey: "ngoi-truong-xac-song", Episode: "Tập 01", Server: "#Hà Nội (Vietsub)"}, res.calls[0])

	tests := map[string]int{
		"/stream-detail?uid=ngoi-truong-xac-song&episode=tap-02":          http.StatusNotFound,
		"/stream-detail?uid=ngoi-truong-xac-song&episode=tap-09":          http.StatusNotFound,
		"/stream-detail?uid=ngoi-truong-xac-song&server=5&episode=tap-01": http.StatusNotFound,
		"/stream-detail?uid=ngoi-truong-xac-song&server=x&episode=tap-01": http.StatusBadRequest,
		"/stream-detail?uid=missing&episode=tap-01":                       http.StatusNotFound,
	}
	for target, status := range tests {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, status, get(router, target).Code)
		})
	}
}

func TestStreamDetailFallsBackToEmbed(t *testing.T) {
	catalog := &fakeCatalog{details: map[string]*models.MovieDetail{"ngoi-truong-xac-song": testDetail()}}
	res := &fakeResolver{}
	router := setupTestRouter(t, catalog, res, nil)

	w := get(router, "/stream-detail?uid=ngoi-truong-xac-song&server=1&episode=tap-01")
	require.Equal(t, http.StatusOK, w.Code)
	stream := decode[models.Stream](t, w)
	assert.Equal(t, "ngoi-truong-xac-song-1-tap-01", stream.ID)
	require.Len(t, stream.StreamLinks, 1)
	assert.Equal(t, "embed", stream.StreamLinks[0].Type)
	assert.True(t, stream.StreamLinks[0].Default)
	assert.Empty(t, res.calls, "embed-only episodes are not resolved")

	w = get(router, "/stream-detail?uid=ngoi-truong-xac-song&episode=tap-03")
	require.Equal(t, http.StatusOK, w.Code)
	stream = decode[models.Stream](t, w)
	require.Len(t, stream.StreamLinks, 1, "unresolved HLS link is left out")
	assert.Equal(t, "embed", stream.StreamLinks[0].Type)
	assert.Equal(t, "https://player.example.tv/e3", stream.StreamLinks[0].URL)
}

func TestChannelDetailTrimsLinksBeforeResolving(t *testing.T) {
	detail := testDetail()
	detail.Servers[0].ServerData[0].LinkM3U8 = "  https://s1.example.tv/e1/index.m3u8\n"
	catalog := &fakeCatalog{details: map[string]*models.MovieDetail{"ngoi-truong-xac-song": detail}}
	res := &fakeResolver{resolved: map[string]string{
		"https://s1.example.tv/e1/index.m3u8": "https://s3.example.tv/e1/index.m3u8",
	}}
	router := setupTestRouter(t, catalog, res, func(c *config.Config) {
		c.ResolveConcurrency = 0
	})

	w := get(router, "/channel-detail?uid=ngoi-truong-xac-song")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.ChannelDetail](t, w)

	streams := got.Sources[0].Contents[0].Streams
	require.Len(t, streams, 3)
	assert.Equal(t, "https://s3.example.tv/e1/index.m3u8", streams[0].StreamLinks[0].URL)
	assert.Equal(t, "https://s1.example.tv/e2/index.m3u8", streams[1].StreamLinks[0].URL)
	assert.Len(t, res.calls, 3)
}

func TestShareChannel(t *testing.T) {
	router := setupTestRouter(t, &fakeCatalog{}, &fakeResolver{}, nil)

	w := get(router, "/share-channel?uid=phim-bo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"`+baseURL+`/share-channel?uid=phim-bo"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(t, &fakeCatalog{}, &fakeResolver{}, nil)

	w := get(router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}
