package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/phimkappa/phimkappa/internal/models"
)

func (h *Handler) handleShareChannel(c *gin.Context) {
	uid, ok := requireQuery(c, "uid")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.Link{URL: h.publicURL("/share-channel", url.Values{"uid": {uid}})})
}
