package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/phimkappa/phimkappa/internal/errors"
)

// publicURL builds an absolute URL on this service.
func (h *Handler) publicURL(path string, query url.Values) string {
	u := strings.TrimSuffix(h.config.PublicBaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// respondError maps an error to its HTTP status and writes {"error": ...}.
func (h *Handler) respondError(c *gin.Context, component string, err error) {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsType(err, apperrors.ErrorTypeInvalidParameter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.services.Logger.Errorf("[%s] upstream request failed: %v", component, err)
		msg := "upstream catalog unavailable"
		var se *apperrors.StreamError
		if errors.As(err, &se) && se.Type == apperrors.ErrorTypeUpstreamFailure {
			msg = se.Message
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	}
}

// requireQuery returns the trimmed query parameter or writes a 400.
func requireQuery(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + name + " parameter"})
		return "", false
	}
	return v, true
}

// pageParam parses ?page=, defaulting to 1.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
