package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/phimkappa/phimkappa/internal/constants"
	"github.com/phimkappa/phimkappa/internal/models"
)

// handleHome serves the provider document. Category and country lists are
// fetched concurrently; a failed list leaves its dropdown out.
func (h *Handler) handleHome(c *gin.Context) {
	ctx := c.Request.Context()

	var categories, countries []models.Taxonomy
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if categories, err = h.services.Catalog.GetCategories(ctx); err != nil {
			h.services.Logger.Warnf("[HomeHandler] failed to load categories: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if countries, err = h.services.Catalog.GetCountries(ctx); err != nil {
			h.services.Logger.Warnf("[HomeHandler] failed to load countries: %v", err)
		}
		return nil
	})
	g.Wait()

	sorts := []models.Sort{{
		Text: constants.NewestSortLabel,
		Type: "radio",
		URL:  h.publicURL("/newest", nil),
	}}
	if len(categories) > 0 {
		sorts = append(sorts, models.Sort{
			Text:  constants.GenreSortLabel,
			Type:  "dropdown",
			Value: h.sortOptions(categories, "/sort/category"),
		})
	}
	if len(countries) > 0 {
		sorts = append(sorts, models.Sort{
			Text:  constants.CountrySortLabel,
			Type:  "dropdown",
			Value: h.sortOptions(countries, "/sort/country"),
		})
	}

	base := h.publicURL("", nil)
	c.JSON(http.StatusOK, models.Provider{
		Name:  constants.ProviderName,
		ID:    constants.ProviderID,
		URL:   base,
		Color: constants.ProviderColor,
		Image: models.Image{
			URL:  h.publicURL(constants.ProviderLogoPath, nil),
			Type: models.ImageTypeCover,
		},
		Description: constants.ProviderDescription,
		Share:       models.Link{URL: base},
		Sorts:       sorts,
		Search: &models.Search{
			URL:       h.publicURL("/search", nil),
			SearchKey: "keyword",
		},
	})
}

func (h *Handler) sortOptions(items []models.Taxonomy, path string) []models.SortOption {
	options := make([]models.SortOption, 0, len(items))
	for _, item := range items {
		slug := firstNonEmpty(item.Slug, "unknown")
		options = append(options, models.SortOption{
			Text: firstNonEmpty(item.Name, constants.UnknownCategory),
			Type: "radio",
			URL:  h.publicURL(path, url.Values{"uid": {slug}}),
		})
	}
	return options
}
