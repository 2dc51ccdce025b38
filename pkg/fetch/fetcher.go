package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/olympedia-scraper/pkg/config"
	"github.com/Sriram-PR/olympedia-scraper/pkg/metrics"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// Page is a successfully fetched entity document
type Page struct {
	ID   int
	URL  string
	Body []byte            // Raw document bytes, kept for content hashing
	Doc  *goquery.Document // Parsed document
}

// Fetcher retrieves entity documents with a small retry budget, using an underlying http.Client
type Fetcher struct {
	client  *http.Client
	cfg     *config.AppConfig // Base URL, headers, retry settings, size cap
	limiter *RequestLimiter   // Optional global rate limit, may be nil
	log     *logrus.Entry
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, cfg *config.AppConfig, limiter *RequestLimiter, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		client:  client,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
}

// EntityURL builds the document URL for an identifier
func (f *Fetcher) EntityURL(id int) string {
	return f.cfg.EntityURL(id)
}

// FetchEntity downloads and parses the document for one identifier.
//
// The body of a 200 response is read inside the retry loop, so a connection lost
// mid-download is retried like any other network error. A non-200 response yields
// utils.ErrNotFound; exhausted network retries yield utils.ErrRetryFailed. Both are
// misses for the caller. Context errors are returned as-is.
func (f *Fetcher) FetchEntity(ctx context.Context, id int) (*Page, error) {
	pageURL := f.EntityURL(id)
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", utils.ErrRequestCreation, pageURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)

	var statusCode int
	var body []byte
	err = f.retry(ctx, req, func(resp *http.Response) error {
		defer resp.Body.Close()
		statusCode = resp.StatusCode
		if statusCode != http.StatusOK {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
			return nil
		}
		b, err := f.readBody(resp)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrNotFound, statusCode, pageURL)
	}
	metrics.ObserveBytes(len(body))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", utils.ErrParsing, pageURL, err)
	}

	return &Page{ID: id, URL: pageURL, Body: body, Doc: doc}, nil
}

// permanentError ends the retry loop immediately
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// readBody reads the response body up to the configured size cap. Exceeding the cap
// is permanent; a failed read is a network error and may be retried.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	limit := f.cfg.MaxPageSizeBytes
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, &permanentError{err: fmt.Errorf("%w: body exceeds %d bytes", utils.ErrResponseBodyRead, limit)}
	}
	return body, nil
}

// FetchWithRetry performs an HTTP request associated with the provided context.
// Only network-level errors are retried; any response, whatever its status, is returned
// immediately and the caller must close its body. Before each retry it sleeps a uniform
// random delay in [RetryDelayMin, RetryDelayMax).
func (f *Fetcher) FetchWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var out *http.Response
	err := f.retry(ctx, req, func(resp *http.Response) error {
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// retry sends req until handle accepts a response. Transport errors and errors
// returned by handle are retried, except permanentError and cancellation of ctx.
// handle owns the response body.
func (f *Fetcher) retry(ctx context.Context, req *http.Request, handle func(resp *http.Response) error) error {
	var lastErr error

	reqLog := f.log.WithField("url", req.URL.String())
	maxRetries := f.cfg.MaxRetries

	// Initial attempt + maxRetries retries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("context cancelled (%v) during retry after error: %w", err, lastErr)
			}
			return err
		}

		if attempt > 0 {
			delay := retryDelay(f.cfg.RetryDelayMin, f.cfg.RetryDelayMax)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_retries": maxRetries, "delay": delay}).Warn("Retrying request...")
			metrics.ObserveRetry()

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("context cancelled (%v) during retry delay after error: %w", ctx.Err(), lastErr)
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		resp, err := f.client.Do(req.WithContext(ctx))
		if err == nil {
			metrics.ObserveFetch(resp.StatusCode, time.Since(start))
			reqLog.WithFields(logrus.Fields{"status_code": resp.StatusCode, "attempt": attempt}).Debug("Fetched")
			err = handle(resp)
			if err == nil {
				return nil
			}
		} else {
			metrics.ObserveFetch(0, time.Since(start))
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		// Cancellation of the run is not a network failure
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return err
		}

		lastErr = err
		reqLog.WithField("attempt", attempt).Debugf("Network error: %v", err)
	}

	reqLog.Warnf("All %d fetch attempts failed. Last error: %v", maxRetries+1, lastErr)
	return fmt.Errorf("%w: %w", utils.ErrRetryFailed, lastErr)
}

// retryDelay returns a uniform random duration in [lo, hi), or lo when the range is empty
func retryDelay(lo, hi time.Duration) time.Duration {
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}
