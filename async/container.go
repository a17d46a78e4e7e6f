/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package async

import (
	"context"

	"github.com/suparena/docstore"
)

// Container mirrors docstore.Container with future-returning operations.
type Container struct {
	sync *docstore.Container
}

// Sync returns the underlying synchronous container proxy.
func (c *Container) Sync() *docstore.Container {
	return c.sync
}

// ID returns the container's identifier.
func (c *Container) ID() string {
	return c.sync.ID()
}

// CreateItem stores a new document.
func (c *Container) CreateItem(ctx context.Context, body docstore.DocumentBody, opts ...docstore.ItemOption) *Future[docstore.Document] {
	return Go(func() (docstore.Document, error) {
		return c.sync.CreateItem(ctx, body, opts...)
	})
}

// UpsertItem stores a document, replacing any existing document with the
// same id in the target partition.
func (c *Container) UpsertItem(ctx context.Context, body docstore.DocumentBody, opts ...docstore.ItemOption) *Future[docstore.Document] {
	return Go(func() (docstore.Document, error) {
		return c.sync.UpsertItem(ctx, body, opts...)
	})
}

// ReadItem retrieves the document with the given id from the partition
// addressed by partitionKey.
func (c *Container) ReadItem(ctx context.Context, id string, partitionKey any) *Future[docstore.Document] {
	return Go(func() (docstore.Document, error) {
		return c.sync.ReadItem(ctx, id, partitionKey)
	})
}

// ReplaceItem replaces the document with the given id.
func (c *Container) ReplaceItem(ctx context.Context, id string, body docstore.DocumentBody, opts ...docstore.ItemOption) *Future[docstore.Document] {
	return Go(func() (docstore.Document, error) {
		return c.sync.ReplaceItem(ctx, id, body, opts...)
	})
}

// PatchItem applies an ordered list of partial-update operations to the
// document with the given id.
func (c *Container) PatchItem(ctx context.Context, id string, partitionKey any, ops []docstore.PatchOperation, opts ...docstore.ItemOption) *Future[docstore.Document] {
	return Go(func() (docstore.Document, error) {
		return c.sync.PatchItem(ctx, id, partitionKey, ops, opts...)
	})
}

// DeleteItem removes the document with the given id from the partition
// addressed by partitionKey.
func (c *Container) DeleteItem(ctx context.Context, id string, partitionKey any, opts ...docstore.ItemOption) *Future[struct{}] {
	return Do(func() error {
		return c.sync.DeleteItem(ctx, id, partitionKey, opts...)
	})
}

// QueryItems executes a query against the container's documents.
func (c *Container) QueryItems(ctx context.Context, query string, opts ...docstore.ItemOption) *Future[[]docstore.Document] {
	return Go(func() ([]docstore.Document, error) {
		return c.sync.QueryItems(ctx, query, opts...)
	})
}

// Read resolves to the container's properties.
func (c *Container) Read(ctx context.Context) *Future[*docstore.ContainerProperties] {
	return Go(func() (*docstore.ContainerProperties, error) {
		return c.sync.Read(ctx)
	})
}

// Delete removes the container and all documents in it.
func (c *Container) Delete(ctx context.Context) *Future[struct{}] {
	return Do(func() error {
		return c.sync.Delete(ctx)
	})
}
