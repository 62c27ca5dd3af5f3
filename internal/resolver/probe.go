package resolver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/phimkappa/phimkappa/internal/constants"
	apperrors "github.com/phimkappa/phimkappa/internal/errors"
	"github.com/phimkappa/phimkappa/internal/metrics"
	"github.com/phimkappa/phimkappa/pkg/httputil"
)

// Outcome classifies a single probe.
type Outcome string

const (
	OutcomeAccepted   Outcome = "accepted"
	OutcomeUnverified Outcome = "unverified"
	OutcomeRejected   Outcome = "rejected"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeError      Outcome = "error"
	// Probe abandoned because another candidate already won.
	OutcomeCancelled Outcome = "cancelled"
)

// ProbeResult is the outcome of one HEAD check against a candidate.
type ProbeResult struct {
	Candidate   Candidate
	Outcome     Outcome
	StatusCode  int
	ContentType string
	Err         error
}

// Accepted reports whether the candidate answered with an HLS playlist.
func (p ProbeResult) Accepted() bool {
	return p.Outcome == OutcomeAccepted
}

// Reachable reports whether the target answered below 400, whatever its content type.
func (p ProbeResult) Reachable() bool {
	return p.Outcome == OutcomeAccepted || p.Outcome == OutcomeUnverified
}

// probe issues a HEAD request bounded by the per-probe timeout.
func (r *Resolver) probe(ctx context.Context, c Candidate) ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	res := ProbeResult{Candidate: c}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, c.URL, nil)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = apperrors.NewProbeNetworkError(c.URL, err)
		return r.record(res)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			res.Outcome = OutcomeCancelled
			res.Err = ctx.Err()
		case isTimeout(probeCtx, err):
			res.Outcome = OutcomeTimeout
			res.Err = apperrors.NewProbeTimeoutError(c.URL, err)
		default:
			res.Outcome = OutcomeError
			res.Err = apperrors.NewProbeNetworkError(c.URL, err)
		}
		return r.record(res)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.ContentType = resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode >= 400:
		res.Outcome = OutcomeRejected
		res.Err = apperrors.NewProbeRejectedError(c.URL, resp.StatusCode, res.ContentType)
	case resp.StatusCode >= 200 && resp.StatusCode < 300 && isHLS(res.ContentType):
		res.Outcome = OutcomeAccepted
	default:
		res.Outcome = OutcomeUnverified
		res.Err = apperrors.NewProbeRejectedError(c.URL, resp.StatusCode, res.ContentType)
	}
	return r.record(res)
}

func (r *Resolver) record(res ProbeResult) ProbeResult {
	if res.Outcome != OutcomeCancelled {
		metrics.ProbesTotal.WithLabelValues(string(res.Outcome)).Inc()
	}
	return res
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isHLS matches the media type against the HLS playlist types, ignoring case and parameters.
func isHLS(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(mediaType)
	for _, t := range constants.HLSContentTypes {
		if strings.EqualFold(mediaType, t) {
			return true
		}
	}
	return false
}
