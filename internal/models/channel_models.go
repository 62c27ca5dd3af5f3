package models

// Image types understood by the player
const (
	ImageTypeCover  = "cover"
	ImageTypeBanner = "banner"
)

// Channel types and display modes
const (
	ChannelTypePlaylist = "playlist"
	ChannelTypeSingle   = "single"
	DisplayTextBelow    = "text-below"
)

// Stream link types
const (
	StreamLinkHLS   = "hls"
	StreamLinkEmbed = "embed"
)

type Image struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Link wraps a URL the player fetches or shares.
type Link struct {
	URL string `json:"url"`
}

// Provider is the document served at / describing the catalog and its sorts.
type Provider struct {
	Name        string  `json:"name"`
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Color       string  `json:"color"`
	Image       Image   `json:"image"`
	Description string  `json:"description"`
	Share       Link    `json:"share"`
	Sorts       []Sort  `json:"sorts"`
	Search      *Search `json:"search,omitempty"`
}

// Sort is either a radio entry with a URL or a dropdown with options.
type Sort struct {
	Text  string       `json:"text"`
	Type  string       `json:"type"`
	URL   string       `json:"url,omitempty"`
	Value []SortOption `json:"value,omitempty"`
}

type SortOption struct {
	Text string `json:"text"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Search struct {
	URL       string `json:"url"`
	SearchKey string `json:"search_key"`
}

type Channel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        Image  `json:"image"`
	Type         string `json:"type"`
	Display      string `json:"display"`
	EnableDetail bool   `json:"enable_detail"`
	RemoteData   Link   `json:"remote_data"`
	Share        Link   `json:"share"`
}

// ChannelList is the response of every listing route.
type ChannelList struct {
	Channels []Channel `json:"channels"`
	LoadMore *LoadMore `json:"load_more,omitempty"`
}

// LoadMore points the player at the next listing page.
type LoadMore struct {
	RemoteData Link   `json:"remote_data"`
	Paging     Paging `json:"paging"`
}

type Paging struct {
	PageKey  string `json:"page_key"`
	PageSize int    `json:"page_size"`
}

// ChannelDetail is the response of /channel-detail.
type ChannelDetail struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Subtitle    string        `json:"subtitle,omitempty"`
	Description string        `json:"description"`
	Image       Image         `json:"image"`
	Type        string        `json:"type"`
	Sources     []Source      `json:"sources"`
	Episodes    []EpisodeLink `json:"episodes"`
	Share       Link          `json:"share"`
}

// Source is one upstream server.
type Source struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Contents []Content `json:"contents"`
}

type Content struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Streams []Stream `json:"streams"`
}

// Stream is one episode with its playable links.
type Stream struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	StreamLinks []StreamLink `json:"stream_links"`
}

type StreamLink struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default bool   `json:"default"`
	URL     string `json:"url"`
}

// EpisodeLink is the flat episode entry kept for older players.
type EpisodeLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
