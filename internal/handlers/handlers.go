// Package handlers implements the HTTP routes consumed by the media player.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phimkappa/phimkappa/internal/config"
	"github.com/phimkappa/phimkappa/internal/services"
)

// Handler handles HTTP requests for the player API.
type Handler struct {
	services *services.Container
	config   *config.Config
}

// New creates a new Handler with the provided services and configuration.
func New(services *services.Container, config *config.Config) *Handler {
	return &Handler{
		services: services,
		config:   config,
	}
}

// RegisterRoutes registers all player routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// Provider home
	r.GET("/", h.handleHome)

	// Listings
	r.GET("/newest", h.handleNewest)
	r.GET("/sort/category", h.handleCategory)
	r.GET("/sort/country", h.handleCountry)
	r.GET("/search", h.handleSearch)

	// Detail
	r.GET("/channel-detail", h.handleChannelDetail)
	r.GET("/stream-detail", h.handleStreamDetail)
	r.GET("/share-channel", h.handleShareChannel)

	r.GET("/healthz", h.handleHealth)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
