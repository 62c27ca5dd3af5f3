// Package services provides the upstream catalog client and the dependency injection container.
package services

import (
	"context"

	"github.com/phimkappa/phimkappa/internal/cache"
	"github.com/phimkappa/phimkappa/internal/models"
	"github.com/phimkappa/phimkappa/internal/resolver"
	"github.com/phimkappa/phimkappa/pkg/logger"
)

// Container holds all application services for dependency injection.
type Container struct {
	Catalog  CatalogService
	Resolver LinkResolver
	Store    cache.Store
	Cleanup  *CleanupService
	Logger   logger.Logger
}

// CatalogService defines the upstream catalog operations.
type CatalogService interface {
	GetCategories(ctx context.Context) ([]models.Taxonomy, error)
	GetCountries(ctx context.Context) ([]models.Taxonomy, error)
	GetNewMovies(ctx context.Context, page int) (*models.MoviePage, error)
	GetMoviesByCategory(ctx context.Context, slug string, page int) (*models.MoviePage, error)
	GetMoviesByCountry(ctx context.Context, slug string, page int) (*models.MoviePage, error)
	SearchMovies(ctx context.Context, keyword string, params models.SearchParams) (*models.MoviePage, error)
	GetMovieDetail(ctx context.Context, slug string) (*models.MovieDetail, error)
}

// LinkResolver turns a raw stream link into a playable one, or reports failure.
type LinkResolver interface {
	Resolve(ctx context.Context, rawURL string, meta resolver.Meta) (string, bool)
}
