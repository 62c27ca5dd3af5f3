package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/phimkappa/phimkappa/internal/constants"
	apperrors "github.com/phimkappa/phimkappa/internal/errors"
	"github.com/phimkappa/phimkappa/internal/models"
	"github.com/phimkappa/phimkappa/internal/resolver"
)

// resolution is the outcome of resolving one episode's HLS link.
type resolution struct {
	url string
	ok  bool
}

func (h *Handler) handleChannelDetail(c *gin.Context) {
	uid, ok := requireQuery(c, "uid")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.DetailRequestTimeout)
	defer cancel()

	detail, err := h.services.Catalog.GetMovieDetail(ctx, uid)
	if err != nil {
		h.respondError(c, "DetailHandler", err)
		return
	}

	resolved := h.resolveAll(ctx, uid, detail.Servers)

	movie := detail.Movie
	slug := firstNonEmpty(movie.Slug, uid)
	resp := models.ChannelDetail{
		ID:          firstNonEmpty(movie.ID, uid),
		Name:        firstNonEmpty(movie.Name, constants.UntitledMovie),
		Subtitle:    movie.OriginName,
		Description: firstNonEmpty(movie.Content, movie.Description, constants.NoDescription),
		Image:       coverImage(movie),
		Type:        channelType(movie.Type),
		Sources:     []models.Source{},
		Episodes:    []models.EpisodeLink{},
		Share:       models.Link{URL: h.publicURL("/share-channel", url.Values{"uid": {slug}})},
	}

	for si, server := range detail.Servers {
		serverName := firstNonEmpty(server.ServerName, fmt.Sprintf("Server %d", si+1))
		streams := make([]models.Stream, 0, len(server.ServerData))
		for ei, ep := range server.ServerData {
			stream, ok := buildStream(slug, si, ep, resolved[si][ei], !h.config.DropUnresolved)
			if !ok {
				continue
			}
			streams = append(streams, stream)
			resp.Episodes = append(resp.Episodes, models.EpisodeLink{
				Name: stream.Name,
				URL:  stream.StreamLinks[0].URL,
			})
		}
		if len(streams) == 0 {
			continue
		}
		resp.Sources = append(resp.Sources, models.Source{
			ID:   fmt.Sprintf("%s-%d", slug, si),
			Name: serverName,
			Contents: []models.Content{{
				ID:      fmt.Sprintf("%s-%d-content", slug, si),
				Name:    serverName,
				Streams: streams,
			}},
		})
	}

	h.services.Logger.Infof("[DetailHandler] %s: %d sources, %d episodes", uid, len(resp.Sources), len(resp.Episodes))
	c.JSON(http.StatusOK, resp)
}

// handleStreamDetail resolves a single episode. An HLS link that cannot be resolved
// is left out; the episode is 404 when nothing playable remains.
func (h *Handler) handleStreamDetail(c *gin.Context) {
	uid, ok := requireQuery(c, "uid")
	if !ok {
		return
	}
	episode, ok := requireQuery(c, "episode")
	if !ok {
		return
	}
	serverIdx, err := strconv.Atoi(c.DefaultQuery("server", "0"))
	if err != nil || serverIdx < 0 {
		h.respondError(c, "StreamHandler", apperrors.NewInvalidParameterError("server"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.DetailRequestTimeout)
	defer cancel()

	detail, err := h.services.Catalog.GetMovieDetail(ctx, uid)
	if err != nil {
		h.respondError(c, "StreamHandler", err)
		return
	}
	if serverIdx >= len(detail.Servers) {
		h.respondError(c, "StreamHandler", apperrors.NewNotFoundError("server "+strconv.Itoa(serverIdx)))
		return
	}

	server := detail.Servers[serverIdx]
	for _, ep := range server.ServerData {
		if ep.Slug != episode && !strings.EqualFold(ep.Name, episode) {
			continue
		}

		var res resolution
		if link := strings.TrimSpace(ep.LinkM3U8); link != "" {
			res.url, res.ok = h.services.Resolver.Resolve(ctx, link, resolver.Meta{
				ContextKey: uid,
				Episode:    ep.Name,
				Server:     server.ServerName,
			})
		}

		stream, ok := buildStream(firstNonEmpty(detail.Movie.Slug, uid), serverIdx, ep, res, false)
		if !ok {
			h.respondError(c, "StreamHandler", apperrors.NewNotFoundError("playable link for "+episode))
			return
		}
		c.JSON(http.StatusOK, stream)
		return
	}

	h.respondError(c, "StreamHandler", apperrors.NewNotFoundError("episode "+episode))
}

// resolveAll resolves every HLS link concurrently, bounded by ResolveConcurrency.
// The result is indexed [server][episode].
func (h *Handler) resolveAll(ctx context.Context, uid string, servers []models.EpisodeServer) [][]resolution {
	results := make([][]resolution, len(servers))

	var g errgroup.Group
	g.SetLimit(max(1, h.config.ResolveConcurrency))

	for si, server := range servers {
		results[si] = make([]resolution, len(server.ServerData))
		for ei, ep := range server.ServerData {
			link := strings.TrimSpace(ep.LinkM3U8)
			if link == "" {
				continue
			}
			g.Go(func() error {
				u, ok := h.services.Resolver.Resolve(ctx, link, resolver.Meta{
					ContextKey: uid,
					Episode:    ep.Name,
					Server:     server.ServerName,
				})
				results[si][ei] = resolution{url: u, ok: ok}
				return nil
			})
		}
	}
	// resolution failures are reported as ok == false, never as errors
	_ = g.Wait()

	return results
}

// buildStream assembles the links of one episode. keepRaw keeps an unresolved
// HLS link as is. It reports false when the episode has nothing playable left.
func buildStream(slug string, serverIdx int, ep models.Episode, res resolution, keepRaw bool) (models.Stream, bool) {
	epSlug := firstNonEmpty(ep.Slug, ep.Filename, ep.Name)
	id := fmt.Sprintf("%s-%d-%s", slug, serverIdx, epSlug)
	stream := models.Stream{
		ID:          id,
		Name:        firstNonEmpty(ep.Name, constants.UntitledEpisode),
		StreamLinks: []models.StreamLink{},
	}

	hlsURL := ""
	switch {
	case res.ok:
		hlsURL = res.url
	case keepRaw:
		hlsURL = strings.TrimSpace(ep.LinkM3U8)
	}

	if hlsURL != "" {
		stream.StreamLinks = append(stream.StreamLinks, models.StreamLink{
			ID:      id + "-hls",
			Name:    "HLS",
			Type:    models.StreamLinkHLS,
			Default: true,
			URL:     hlsURL,
		})
	}
	if ep.LinkEmbed != "" {
		stream.StreamLinks = append(stream.StreamLinks, models.StreamLink{
			ID:      id + "-embed",
			Name:    "Embed",
			Type:    models.StreamLinkEmbed,
			Default: hlsURL == "",
			URL:     ep.LinkEmbed,
		})
	}

	return stream, len(stream.StreamLinks) > 0
}
