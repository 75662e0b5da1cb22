// Package feed talks to the remote evolution endpoints: the JSON list feed
// and the raw markdown host.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ymatsu/evosync/internal/model"
)

// maxBodySize is the maximum HTTP response body size (5MB).
const maxBodySize = 5 * 1024 * 1024

// StatusError reports a non-200 response from a remote endpoint.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Code, e.URL)
}

// Client fetches the evolution proposal feed.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a feed client for the given feed URL.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// feedDocument is the top-level shape of evolution.json.
type feedDocument struct {
	Proposals []proposalDTO `json:"proposals"`
}

type proposalDTO struct {
	ID     string    `json:"id"`
	Link   string    `json:"link"`
	Title  string    `json:"title"`
	Status statusDTO `json:"status"`
}

type statusDTO struct {
	State   string `json:"state"`
	Version string `json:"version"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// FetchProposals downloads and decodes the feed. Transport and decode
// failures both surface as errors; nothing is written anywhere from here.
func (c *Client) FetchProposals(ctx context.Context) ([]model.Proposal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: c.url}
	}

	var doc feedDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	proposals := make([]model.Proposal, 0, len(doc.Proposals))
	for _, dto := range doc.Proposals {
		proposals = append(proposals, model.NewProposal(dto.ID, dto.Link, dto.Title, model.Status{
			State:   model.ParseState(dto.Status.State),
			Version: dto.Status.Version,
			Start:   dto.Status.Start,
			End:     dto.Status.End,
		}))
	}
	return proposals, nil
}
