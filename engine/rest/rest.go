/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package rest is the HTTP transport engine for real store endpoints.
// Requests are signed with the account's shared key and sent over an
// OpenTelemetry-instrumented client.
package rest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/suparena/docstore/engine"
)

// Authorization scheme headers.
const (
	headerDate     = "x-ds-date"
	authScheme     = "DS1-KeyAuth"
	defaultTimeout = 30 * time.Second
)

// Engine sends wire requests to a store endpoint over HTTP.
type Engine struct {
	endpoint   string
	key        []byte
	httpClient *http.Client
	logger     *zap.Logger
	debug      bool
	now        func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithHTTPClient replaces the default HTTP client. The replacement keeps
// its own transport; wrap it with otelhttp.NewTransport to retain traces.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = c
	}
}

// WithLogger attaches a logger for debug dumps of failed exchanges.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Debug enables dumping failed exchanges to the logger.
func Debug(enabled bool) Option {
	return func(e *Engine) {
		e.debug = enabled
	}
}

// New creates an engine for the given endpoint and shared account key.
func New(endpoint, key string, opts ...Option) (*Engine, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: must be an absolute http(s) URL", endpoint)
	}
	if key == "" {
		return nil, fmt.Errorf("an account key is required")
	}

	e := &Engine{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      []byte(key),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Do sends one wire request to the endpoint. The error return reports
// failures of the exchange itself; store rejections travel back in the
// response status.
func (e *Engine) Do(ctx context.Context, req *engine.Request) (*engine.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, e.endpoint+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	e.sign(httpReq)

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if e.debug && httpResp.StatusCode >= http.StatusBadRequest {
		// Expected rejections are not worth a dump
		if httpResp.StatusCode != http.StatusNotFound && httpResp.StatusCode != http.StatusUnauthorized {
			reqBytes, _ := httputil.DumpRequestOut(httpReq, false)
			respBytes, _ := httputil.DumpResponse(httpResp, false)
			e.logger.Error("request failed",
				zap.String("request", string(reqBytes)),
				zap.String("response", string(respBytes)),
			)
		}
	}

	resp := &engine.Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
	}
	if etag := httpResp.Header.Get(engine.HeaderETag); etag != "" {
		resp.Headers = map[string]string{engine.HeaderETag: etag}
	}
	return resp, nil
}

// sign authorizes the request with an HMAC-SHA256 signature over the verb,
// the resource path, and the request date.
func (e *Engine) sign(req *http.Request) {
	date := e.now().UTC().Format(http.TimeFormat)
	req.Header.Set(headerDate, date)

	mac := hmac.New(sha256.New, e.key)
	fmt.Fprintf(mac, "%s\n%s\n%s",
		strings.ToLower(req.Method),
		req.URL.EscapedPath(),
		strings.ToLower(date),
	)
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	req.Header.Set("Authorization", fmt.Sprintf("%s sig=%s", authScheme, sig))
}
