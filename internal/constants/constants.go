// Package constants defines application-wide constants and default values.
package constants

const (
	// Provider metadata shown on the player's home screen
	ProviderID          = "phimkappa"
	ProviderName        = "Phim Kappa"
	ProviderColor       = "#0f172a"
	ProviderDescription = "Phim Kappa là nơi tập hợp các bộ phim hay nhất, mới nhất, hot nhất, mang đến trải nghiệm xem phim mượt mà và chất lượng cao."
	ProviderLogoPath    = "/public/logo.svg"

	// Default configuration values
	DefaultPort          = "3000"
	DefaultPublicBaseURL = "http://localhost:3000"
	DefaultLogLevel      = "info"
	DefaultServiceName   = "phimkappa"

	// Upstream provider
	DefaultUpstreamBaseURL = "https://phimapi.com"
	DefaultImageCDNURL     = "https://phimimg.com"
	UpstreamRateLimit      = 10 // requests per second
	UpstreamRateBurst      = 5  // burst capacity
	UpstreamRetries        = 2

	// Response cache settings
	DefaultResponseCacheSize = 1000

	// Resolution cache backends
	CacheBackendMemory = "memory"
	CacheBackendBolt   = "bolt"
	CacheBackendRedis  = "redis"

	DefaultDatabasePath = "./data/resolver.db"
	DefaultRedisAddr    = "localhost:6379"

	// Probe strategies
	ProbeStrategySequential = "sequential"
	ProbeStrategyRace       = "race"

	// DefaultHostPattern captures the first label of a dotted host name.
	DefaultHostPattern = `^https?://([A-Za-z0-9-]+)\.[^/]+`

	// Placeholder artwork when the upstream has none
	PlaceholderImageURL = "https://via.placeholder.com/150"

	// Fallback display strings
	UnknownCategory  = "Unknown Category"
	UntitledMovie    = "Không tên"
	NoDescription    = "Không có mô tả"
	UntitledEpisode  = "Tập mới"
	NewestSortLabel  = "Mới nhất"
	GenreSortLabel   = "Thể loại"
	CountrySortLabel = "Quốc gia"
)

// DefaultResolverHosts lists the CDN subdomains tried in place of a stream's original host.
var DefaultResolverHosts = []string{"s1", "s2", "s3", "s4", "s5", "s6"}

// HLSContentTypes are the content types accepted as a playable media playlist.
var HLSContentTypes = []string{
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
}
