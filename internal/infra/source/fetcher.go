package source

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	"digestly/internal/domain/entity"
	"digestly/internal/observability/logging"
	"digestly/internal/resilience/circuitbreaker"
	"digestly/internal/resilience/retry"
)

// Fetcher downloads source pages and turns them into SourceText.
// It is safe for concurrent use.
type Fetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

type page struct {
	body        []byte
	url         *url.URL
	contentType string
}

// NewFetcher creates a Fetcher. Redirect targets are validated like the original URL.
func NewFetcher(cfg Config) *Fetcher {
	f := &Fetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.SourceFetchConfig()),
		retryConfig:    retry.SourceFetchConfig(),
		config:         cfg,
	}
	f.client = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if _, err := validateURL(req.Context(), req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target rejected: %w", err)
			}
			return nil
		},
	}
	return f
}

// Resolve fetches rawURL. YouTube links yield video metadata, anything else
// is treated as a readable document.
func (f *Fetcher) Resolve(ctx context.Context, rawURL string) (entity.SourceText, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return entity.SourceText{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if id := videoID(u); id != "" {
		return f.FetchVideo(ctx, watchURL(id))
	}
	return f.FetchDocument(ctx, rawURL)
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (*page, error) {
	u, err := validateURL(ctx, rawURL, f.config.DenyPrivateIPs)
	if err != nil {
		return nil, err
	}

	logger := logging.WithRequestID(ctx, slog.Default()).With(slog.String("url", u.Redacted()))
	start := time.Now()

	p, err := retry.Do(ctx, f.retryConfig, func() (*page, error) {
		res, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.get(ctx, u)
		})
		if err != nil {
			return nil, err
		}
		return res.(*page), nil
	})
	if err != nil {
		logger.Warn("source download failed",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return nil, err
	}

	logger.Debug("source downloaded",
		slog.Int("bytes", len(p.body)),
		slog.Duration("duration", time.Since(start)))
	return p, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (*page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")
	req.Header.Set("Accept-Language", "en;q=0.9,*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: exceeded %v", ErrTimeout, f.config.Timeout)
		}
		return nil, fmt.Errorf("get %s: %w", u.Redacted(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	final := u
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return &page{body: body, url: final, contentType: mediaType}, nil
}
