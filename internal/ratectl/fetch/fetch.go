// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fetch is the external logged request helper the controller sits
// behind: a keep-alive tuned HTTP client plus the word-to-URL join that
// turns a wordlist entry into a request target.
package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps an *http.Client configured with connection reuse, matching
// the transport tuning a high-concurrency scanner needs: enough idle
// connections per host that workers don't repeatedly pay handshake cost.
type Client struct {
	http *http.Client
}

// Config controls the underlying transport's connection pool.
type Config struct {
	Timeout             time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

// DefaultConfig returns tuning suitable for a single scan's worker pool.
func DefaultConfig() Config {
	return Config{
		Timeout:             10 * time.Second,
		IdleConnTimeout:     30 * time.Second,
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 256,
	}
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
	return &Client{http: &http.Client{Transport: tr, Timeout: cfg.Timeout}}
}

// Get issues a GET against target and returns the raw response. The caller
// is responsible for closing resp.Body.
func (c *Client) Get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// Close releases idle connections held by the client's transport.
func (c *Client) Close() {
	if tr, ok := c.http.Transport.(*http.Transport); ok {
		tr.CloseIdleConnections()
	}
}

// BuildURL joins a base target URL with a wordlist entry, matching the
// trailing-slash-insensitive join a directory-discovery scanner needs.
func BuildURL(targetURL, word string) string {
	base := strings.TrimRight(targetURL, "/")
	return base + "/" + url.PathEscape(word)
}
