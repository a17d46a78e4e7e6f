/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/engine/rest"
	"github.com/suparena/docstore/errors"
)

var tracer = otel.Tracer("github.com/suparena/docstore")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Client is the entry point to a document store account. Its configuration
// is immutable after construction; a single Client is safe for concurrent
// use when its engine is.
type Client struct {
	engine engine.Engine
}

// NewClient connects to the store endpoint with a shared account key.
func NewClient(endpoint, key string, opts ...rest.Option) (*Client, error) {
	e, err := rest.New(endpoint, key, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{engine: e}, nil
}

// NewClientFromEnv connects using the DOCSTORE_ENDPOINT and DOCSTORE_KEY
// environment variables.
func NewClientFromEnv(opts ...rest.Option) (*Client, error) {
	endpoint := os.Getenv("DOCSTORE_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("DOCSTORE_ENDPOINT environment variable not set")
	}
	key := os.Getenv("DOCSTORE_KEY")
	if key == "" {
		return nil, fmt.Errorf("DOCSTORE_KEY environment variable not set")
	}
	return NewClient(endpoint, key, opts...)
}

// NewClientWithEngine runs the client over a caller-supplied engine. This
// is how the in-memory emulator and the DynamoDB backend are plugged in.
func NewClientWithEngine(e engine.Engine) *Client {
	return &Client{engine: e}
}

// CreateDatabase creates a database and returns its proxy. Creating a
// database whose id already exists fails with a conflict error.
func (c *Client) CreateDatabase(ctx context.Context, id string) (db *Database, err error) {
	ctx, span := tracer.Start(ctx, "create-database")
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, errors.NewValidationError("id", "database id must not be empty")
	}

	payload, err := json.Marshal(DatabaseProperties{ID: id})
	if err != nil {
		return nil, errors.NewValidationError("", err.Error())
	}

	req := &engine.Request{
		Method: http.MethodPost,
		Path:   engine.DatabasesPath(),
		Body:   payload,
	}
	req.SetHeader(engine.HeaderContentType, engine.ContentTypeJSON)

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create database: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return &Database{engine: c.engine, id: id}, nil
}

// Database returns a proxy for a database without checking that it exists.
// Operations through a missing database fail with a not-found error.
func (c *Client) Database(id string) *Database {
	return &Database{engine: c.engine, id: id}
}

// DeleteDatabase removes a database, its containers, and their documents.
func (c *Client) DeleteDatabase(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "delete-database")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodDelete,
		Path:   engine.DatabasePath(id),
	}
	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	if !resp.IsSuccess() {
		return errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}

// ListDatabases returns the properties of every database in the account.
// The order of the result is not significant; an empty account yields an
// empty slice.
func (c *Client) ListDatabases(ctx context.Context) (databases []DatabaseProperties, err error) {
	ctx, span := tracer.Start(ctx, "list-databases")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodGet,
		Path:   engine.DatabasesPath(),
	}
	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}

	var body engine.DatabasesBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, errors.NewValidationError("", "store returned a malformed database list: "+err.Error())
	}
	databases = make([]DatabaseProperties, 0, len(body.Databases))
	for _, raw := range body.Databases {
		var props DatabaseProperties
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, errors.NewValidationError("", "store returned malformed database properties: "+err.Error())
		}
		databases = append(databases, props)
	}
	return databases, nil
}
