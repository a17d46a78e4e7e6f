/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package async

import (
	"context"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/engine/rest"
)

// Client mirrors docstore.Client with operations that run in the
// background and resolve through futures.
type Client struct {
	sync *docstore.Client
}

// Wrap lifts a synchronous client into the asynchronous API.
func Wrap(c *docstore.Client) *Client {
	return &Client{sync: c}
}

// NewClient connects to the store endpoint with a shared account key.
func NewClient(endpoint, key string, opts ...rest.Option) (*Client, error) {
	c, err := docstore.NewClient(endpoint, key, opts...)
	if err != nil {
		return nil, err
	}
	return Wrap(c), nil
}

// NewClientFromEnv connects using the DOCSTORE_ENDPOINT and DOCSTORE_KEY
// environment variables.
func NewClientFromEnv(opts ...rest.Option) (*Client, error) {
	c, err := docstore.NewClientFromEnv(opts...)
	if err != nil {
		return nil, err
	}
	return Wrap(c), nil
}

// NewClientWithEngine runs the client over a caller-supplied engine.
func NewClientWithEngine(e engine.Engine) *Client {
	return Wrap(docstore.NewClientWithEngine(e))
}

// Sync returns the underlying synchronous client.
func (c *Client) Sync() *docstore.Client {
	return c.sync
}

// CreateDatabase creates a database and resolves to its proxy.
func (c *Client) CreateDatabase(ctx context.Context, id string) *Future[*Database] {
	return Go(func() (*Database, error) {
		db, err := c.sync.CreateDatabase(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Database{sync: db}, nil
	})
}

// Database returns a proxy for a database without checking that it exists.
func (c *Client) Database(id string) *Database {
	return &Database{sync: c.sync.Database(id)}
}

// DeleteDatabase removes a database, its containers, and their documents.
func (c *Client) DeleteDatabase(ctx context.Context, id string) *Future[struct{}] {
	return Do(func() error {
		return c.sync.DeleteDatabase(ctx, id)
	})
}

// ListDatabases resolves to the properties of every database in the
// account.
func (c *Client) ListDatabases(ctx context.Context) *Future[[]docstore.DatabaseProperties] {
	return Go(func() ([]docstore.DatabaseProperties, error) {
		return c.sync.ListDatabases(ctx)
	})
}
