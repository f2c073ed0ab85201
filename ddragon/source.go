/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ddragon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// championFull.json is a few megabytes; anything far beyond that is not
// Data Dragon.
const maxBodySize = 64 << 20

// Source reads a file from the Data Dragon layout, e.g. api/versions.json.
type Source interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// HTTPSource reads from the public CDN or any mirror served over HTTP.
type HTTPSource struct {
	client  *http.Client
	baseURL string
}

func NewHTTPSource(client *http.Client, baseURL string) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
	}
}

func (s *HTTPSource) Get(ctx context.Context, path string) ([]byte, error) {
	url := s.baseURL + strings.TrimPrefix(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}

	return body, nil
}
