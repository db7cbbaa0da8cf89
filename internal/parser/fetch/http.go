package fetch

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
)

const maxBodyBytes = 8 << 20

// HTTPConfig configures an HTTPFetcher.
type HTTPConfig struct {
	Timeout     time.Duration
	UserAgent   string
	InsecureTLS bool
}

// HTTPFetcher reads pages without executing scripts. Cheaper than Chrome, blind to
// client-rendered content.
type HTTPFetcher struct {
	client    *resty.Client
	userAgent string
}

func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetDoNotParseResponse(true)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9,de;q=0.8")
	client.SetHeader("Accept-Encoding", "gzip, br, zstd")
	if cfg.InsecureTLS {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	return &HTTPFetcher{client: client, userAgent: cfg.UserAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, opts Options) (*Document, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	userAgent := f.userAgent
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, &BlockedError{URL: url, Status: resp.StatusCode(), Reason: "unexpected status"}
	}

	markup, err := decodeBody(resp.Header().Get("Content-Encoding"), io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return NewDocument(url, resp.StatusCode(), markup)
}

// decodeBody reads body and decompresses it based on Content-Encoding (gzip, br, zstd).
func decodeBody(contentEncoding string, body io.Reader) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(contentEncoding))
	switch {
	case strings.Contains(enc, "br"):
		return io.ReadAll(brotli.NewReader(body))
	case strings.Contains(enc, "zstd"):
		r, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.Contains(enc, "gzip"):
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return io.ReadAll(body)
	}
}
