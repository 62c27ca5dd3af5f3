// Package models defines data structures for upstream catalog responses
// and the channel documents served to the player.
package models

import "encoding/json"

// Taxonomy is a category or country entry from /the-loai and /quoc-gia.
type Taxonomy struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TaxonomyRef is the category/country reference embedded in movie records.
type TaxonomyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Pagination struct {
	TotalItems        int `json:"totalItems"`
	TotalItemsPerPage int `json:"totalItemsPerPage"`
	CurrentPage       int `json:"currentPage"`
	TotalPages        int `json:"totalPages"`
}

// HasNext reports whether a page after CurrentPage exists.
func (p Pagination) HasNext() bool {
	return p.CurrentPage > 0 && p.CurrentPage < p.TotalPages
}

// Movie is a catalog record. Listing endpoints fill the summary fields;
// /phim/{slug} fills the rest.
type Movie struct {
	ID             string        `json:"_id"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	OriginName     string        `json:"origin_name"`
	Type           string        `json:"type"`
	PosterURL      string        `json:"poster_url"`
	ThumbURL       string        `json:"thumb_url"`
	Description    string        `json:"description,omitempty"`
	Content        string        `json:"content,omitempty"`
	Year           int           `json:"year"`
	Time           string        `json:"time,omitempty"`
	EpisodeCurrent string        `json:"episode_current,omitempty"`
	EpisodeTotal   string        `json:"episode_total,omitempty"`
	Quality        string        `json:"quality,omitempty"`
	Lang           string        `json:"lang,omitempty"`
	TrailerURL     string        `json:"trailer_url,omitempty"`
	Actor          []string      `json:"actor,omitempty"`
	Director       []string      `json:"director,omitempty"`
	Category       []TaxonomyRef `json:"category,omitempty"`
	Country        []TaxonomyRef `json:"country,omitempty"`
}

// NewMoviesResponse is the body of /danh-sach/phim-moi-cap-nhat.
type NewMoviesResponse struct {
	Items      []Movie    `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ListResponse is the body of the /v1/api listing and search endpoints.
type ListResponse struct {
	Msg  string   `json:"msg"`
	Data ListData `json:"data"`
}

type ListData struct {
	TitlePage      string     `json:"titlePage"`
	Items          []Movie    `json:"items"`
	Params         ListParams `json:"params"`
	CDNImageDomain string     `json:"APP_DOMAIN_CDN_IMAGE"`
}

type ListParams struct {
	Pagination Pagination `json:"pagination"`
}

// DetailResponse is the body of /phim/{slug}. Movie is kept raw because
// the upstream sends an empty array instead of an object for unknown slugs.
type DetailResponse struct {
	Status   bool            `json:"status"`
	Msg      string          `json:"msg"`
	Movie    json.RawMessage `json:"movie"`
	Episodes []EpisodeServer `json:"episodes"`
}

// EpisodeServer groups the episodes published by one upstream server.
type EpisodeServer struct {
	ServerName string    `json:"server_name"`
	ServerData []Episode `json:"server_data"`
}

type Episode struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Filename  string `json:"filename"`
	LinkEmbed string `json:"link_embed"`
	LinkM3U8  string `json:"link_m3u8"`
}

// MoviePage is one page of movies with absolute image URLs.
type MoviePage struct {
	Items      []Movie
	Pagination Pagination
}

// MovieDetail is a movie with its episodes grouped by server.
type MovieDetail struct {
	Movie   Movie
	Servers []EpisodeServer
}

// SearchParams are the optional filters of /v1/api/tim-kiem.
type SearchParams struct {
	Category string
	Country  string
	Year     string
	SortLang string
	Page     int
}
