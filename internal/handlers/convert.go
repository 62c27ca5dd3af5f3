package handlers

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/phimkappa/phimkappa/internal/constants"
	"github.com/phimkappa/phimkappa/internal/models"
)

// mapToChannels converts catalog movies into player channels.
func (h *Handler) mapToChannels(movies []models.Movie) []models.Channel {
	channels := make([]models.Channel, 0, len(movies))
	for _, movie := range movies {
		channels = append(channels, h.movieToChannel(movie))
	}
	return channels
}

func (h *Handler) movieToChannel(movie models.Movie) models.Channel {
	id := movie.ID
	if id == "" {
		id = "movie-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	}
	slug := movie.Slug
	if slug == "" {
		slug = id
	}

	description := firstNonEmpty(movie.Description, movie.Content, constants.NoDescription)

	return models.Channel{
		ID:           id,
		Name:         firstNonEmpty(movie.Name, constants.UntitledMovie),
		Description:  description,
		Image:        coverImage(movie),
		Type:         channelType(movie.Type),
		Display:      models.DisplayTextBelow,
		EnableDetail: true,
		RemoteData:   models.Link{URL: h.publicURL("/channel-detail", url.Values{"uid": {slug}})},
		Share:        models.Link{URL: h.publicURL("/share-channel", url.Values{"uid": {slug}})},
	}
}

func coverImage(movie models.Movie) models.Image {
	return models.Image{
		URL:  firstNonEmpty(movie.PosterURL, movie.ThumbURL, constants.PlaceholderImageURL),
		Type: models.ImageTypeCover,
	}
}

// channelType maps upstream series to playlists; everything else plays as a single item.
func channelType(upstreamType string) string {
	if upstreamType == "series" {
		return models.ChannelTypePlaylist
	}
	return models.ChannelTypeSingle
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
