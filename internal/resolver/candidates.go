package resolver

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const cacheKeyPrefix = "resolve:"

// Candidate is one substitution of a host token into a raw stream URL.
type Candidate struct {
	Token string
	URL   string
}

// CacheKey derives the resolution cache key for a raw stream URL.
func CacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Candidates lists the URLs to probe for rawURL, in configured host order.
// A URL the host pattern does not match yields no candidates.
func (r *Resolver) Candidates(rawURL string) []Candidate {
	out := make([]Candidate, 0, len(r.hosts))
	seen := make(map[string]struct{}, len(r.hosts))
	for _, token := range r.hosts {
		u, ok := r.substitute(rawURL, token)
		if !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, Candidate{Token: token, URL: u})
	}
	return out
}

// substitute places token into the host of rawURL.
// A dotted token replaces the whole host, otherwise only the captured segment.
func (r *Resolver) substitute(rawURL, token string) (string, bool) {
	loc := r.pattern.FindStringSubmatchIndex(rawURL)
	if loc == nil || len(loc) < 4 || loc[2] < 0 {
		return "", false
	}

	if strings.Contains(token, ".") {
		start, end, ok := hostSpan(rawURL)
		if !ok {
			return "", false
		}
		return rawURL[:start] + token + rawURL[end:], true
	}

	return rawURL[:loc[2]] + token + rawURL[loc[3]:], true
}

// hostSpan returns the byte range of the authority section of rawURL.
func hostSpan(rawURL string) (int, int, bool) {
	i := strings.Index(rawURL, "://")
	if i < 0 {
		return 0, 0, false
	}
	start := i + len("://")
	end := strings.IndexAny(rawURL[start:], "/?#")
	if end < 0 {
		end = len(rawURL)
	} else {
		end += start
	}
	if end == start {
		return 0, 0, false
	}
	return start, end, true
}
