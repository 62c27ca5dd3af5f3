package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phimkappa/phimkappa/internal/constants"
	"github.com/phimkappa/phimkappa/internal/models"
)

func (h *Handler) handleNewest(c *gin.Context) {
	page, err := h.services.Catalog.GetNewMovies(c.Request.Context(), pageParam(c))
	if err != nil {
		h.respondError(c, "NewestHandler", err)
		return
	}
	h.writeChannels(c, page)
}

func (h *Handler) handleCategory(c *gin.Context) {
	uid, ok := requireQuery(c, "uid")
	if !ok {
		return
	}
	page, err := h.services.Catalog.GetMoviesByCategory(c.Request.Context(), uid, pageParam(c))
	if err != nil {
		h.respondError(c, "CategoryHandler", err)
		return
	}
	h.writeChannels(c, page)
}

func (h *Handler) handleCountry(c *gin.Context) {
	uid, ok := requireQuery(c, "uid")
	if !ok {
		return
	}
	page, err := h.services.Catalog.GetMoviesByCountry(c.Request.Context(), uid, pageParam(c))
	if err != nil {
		h.respondError(c, "CountryHandler", err)
		return
	}
	h.writeChannels(c, page)
}

func (h *Handler) handleSearch(c *gin.Context) {
	keyword, ok := requireQuery(c, "keyword")
	if !ok {
		return
	}

	params := models.SearchParams{
		Category: c.Query("category"),
		Country:  c.Query("country"),
		Year:     c.Query("year"),
		SortLang: c.Query("sort_lang"),
		Page:     pageParam(c),
	}

	h.services.Logger.Debugf("[SearchHandler] searching %q page %d", keyword, params.Page)

	page, err := h.services.Catalog.SearchMovies(c.Request.Context(), keyword, params)
	if err != nil {
		h.respondError(c, "SearchHandler", err)
		return
	}
	h.writeChannels(c, page)
}

// writeChannels renders a movie page, adding load_more when another page exists.
func (h *Handler) writeChannels(c *gin.Context, page *models.MoviePage) {
	resp := models.ChannelList{Channels: h.mapToChannels(page.Items)}

	if page.Pagination.HasNext() {
		query := c.Request.URL.Query()
		query.Set("page", strconv.Itoa(page.Pagination.CurrentPage+1))

		pageSize := page.Pagination.TotalItemsPerPage
		if pageSize <= 0 {
			pageSize = constants.ListingPageSize
		}
		resp.LoadMore = &models.LoadMore{
			RemoteData: models.Link{URL: h.publicURL(c.Request.URL.Path, query)},
			Paging:     models.Paging{PageKey: "page", PageSize: pageSize},
		}
	}

	c.JSON(http.StatusOK, resp)
}
