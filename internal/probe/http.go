package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/textdecode"
)

var (
	HTTPUserAgent = "argus health check"
)

const (
	HTTP_REDIRECT_MAX = 10

	// httpBodyLimit caps how much of the response body is fetched for
	// content matching.
	httpBodyLimit = 1 << 20
)

var (
	ErrRedirectLoopDetected = errors.New("redirect loop detected")
	httpClient              = &http.Client{
		Transport: &http.Transport{
			DisableKeepAlives:     true,
			ResponseHeaderTimeout: 10 * time.Minute,
		},
		CheckRedirect: checkHTTPRedirect,
	}
)

func checkHTTPRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > HTTP_REDIRECT_MAX {
		return ErrRedirectLoopDetected
	}
	return nil
}

// HTTPProbe checks that a URL answers with the expected status and, when
// configured, that the body contains an expected substring.
type HTTPProbe struct {
	ep      monitor.Endpoint
	expect  int
	content string
	request *http.Request
}

func NewHTTPProbe(ep monitor.Endpoint) (HTTPProbe, error) {
	u, err := url.Parse(ep.URL)
	if err != nil {
		return HTTPProbe{}, err
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	expect := ep.ExpectStatus
	if expect == 0 {
		expect = http.StatusOK
	}

	return HTTPProbe{
		ep:      ep,
		expect:  expect,
		content: ep.ExpectContent,
		request: &http.Request{
			Method: http.MethodGet,
			URL:    u,
			Header: http.Header{
				"User-Agent": {HTTPUserAgent},
			},
		},
	}, nil
}

func (p HTTPProbe) Endpoint() monitor.Endpoint {
	return p.ep
}

func (p HTTPProbe) Check(ctx context.Context) monitor.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.ep.TimeoutDuration())
	defer cancel()

	req := p.request.Clone(ctx)

	st := time.Now()
	resp, err := httpClient.Do(req)
	d := time.Since(st)

	rec := p.responseToResult(resp, err)
	rec.Latency = d
	rec.LatencyMS = float64(d.Microseconds()) / 1000
	rec.CheckedAt = st

	return timeoutOr(ctx, rec)
}

func (p HTTPProbe) responseToResult(resp *http.Response, err error) monitor.CheckResult {
	if err != nil {
		message := err.Error()

		var dnsErr *net.DNSError
		var opErr *net.OpError

		if errors.As(err, &dnsErr) {
			message = dnsErrorToMessage(dnsErr)
		} else if errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Addr != nil {
			message = fmt.Sprintf("%s: connection refused", opErr.Addr)
		}

		return monitor.CheckResult{
			EndpointID: p.ep.ID,
			Status:     monitor.StatusDown,
			Message:    message,
		}
	}
	defer resp.Body.Close()

	rec := monitor.CheckResult{
		EndpointID: p.ep.ID,
		Extra:      p.makeExtra(resp),
	}

	if resp.StatusCode != p.expect {
		rec.Status = monitor.StatusDown
		rec.Message = fmt.Sprintf("status %s (expected %d)", strings.ReplaceAll(resp.Status, " ", "_"), p.expect)
		return rec
	}

	if p.content != "" {
		body, err := io.ReadAll(io.LimitReader(resp.Body, httpBodyLimit))
		if err != nil {
			rec.Status = monitor.StatusDown
			rec.Message = fmt.Sprintf("failed to read response body: %s", err)
			return rec
		}
		text, err := textdecode.HTTPBody(body, resp.Header.Get("Content-Type"))
		if err != nil || !strings.Contains(text, p.content) {
			rec.Status = monitor.StatusDown
			rec.Message = "response body does not contain expected content"
			return rec
		}
	}

	rec.Status = monitor.StatusUp
	rec.Message = fmt.Sprintf("proto=%s length=%d status=%s", resp.Proto, resp.ContentLength, strings.ReplaceAll(resp.Status, " ", "_"))
	return rec
}

// makeExtra collects response metadata. For HTTPS it adds the certificate
// validity window; a missing certificate just means no metadata, never a
// failed check.
func (p HTTPProbe) makeExtra(resp *http.Response) map[string]any {
	extra := map[string]any{
		"proto":       resp.Proto,
		"status_code": resp.StatusCode,
	}

	if resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		cert := resp.TLS.PeerCertificates[0]
		extra["cert_not_before"] = cert.NotBefore.Format(time.RFC3339)
		extra["cert_not_after"] = cert.NotAfter.Format(time.RFC3339)
		extra["cert_days_remaining"] = int(time.Until(cert.NotAfter).Hours() / 24)
	}

	return extra
}
