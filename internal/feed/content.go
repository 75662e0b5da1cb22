package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

// ContentClient downloads the raw markdown body for a proposal.
//
// The primary source is the raw-content host. When the raw URL answers 404
// (proposals occasionally move before the feed catches up) the client falls
// back to the rendered page for the same link and extracts the readable text.
type ContentClient struct {
	baseURL string
	pageURL string
	client  *http.Client
}

// NewContentClient creates a content client.
//   - baseURL: raw-content base, e.g. "https://raw.githubusercontent.com/swiftlang/swift-evolution/main/proposals"
//   - pageURL: rendered-page base used for the 404 fallback; empty disables it
func NewContentClient(baseURL, pageURL string, timeout time.Duration) *ContentClient {
	return &ContentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		pageURL: strings.TrimRight(pageURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ResolveURL derives the raw-content URL for a proposal link. The derivation
// depends on nothing but the link itself.
func (c *ContentClient) ResolveURL(link string) string {
	return c.baseURL + "/" + strings.TrimLeft(link, "/")
}

// FetchText downloads the body for the given link and returns the resolved
// URL alongside the sanitized text. Bytes that are not valid UTF-8 yield an
// empty string rather than an error; single quotes are escaped on every path.
func (c *ContentClient) FetchText(ctx context.Context, link string) (string, string, error) {
	url := c.ResolveURL(link)
	body, err := c.get(ctx, url)
	if err == nil {
		return url, sanitize(decodeUTF8(body)), nil
	}

	var se *StatusError
	if c.pageURL == "" || !errors.As(err, &se) || se.Code != http.StatusNotFound {
		return url, "", err
	}

	text, fallbackErr := c.extractPage(ctx, c.pageURL+"/"+strings.TrimLeft(link, "/"))
	if fallbackErr != nil {
		// Report the original miss, not the fallback's failure mode.
		return url, "", err
	}
	return url, sanitize(text), nil
}

func (c *ContentClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// extractPage fetches an HTML page and pulls the readable text out of it.
func (c *ContentClient) extractPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, URL: url}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	parsedURL, _ := nurl.Parse(url)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return article.TextContent, nil
}

// decodeUTF8 interprets the bytes as UTF-8 text; invalid encodings collapse
// to an empty string instead of erroring.
func decodeUTF8(b []byte) string {
	if !utf8.Valid(b) {
		return ""
	}
	return string(b)
}

// sanitize escapes single quotes, matching the fixed rule applied to every
// stored body.
func sanitize(text string) string {
	return strings.ReplaceAll(text, "'", `\'`)
}
