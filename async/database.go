/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package async

import (
	"context"

	"github.com/suparena/docstore"
)

// Database mirrors docstore.Database with future-returning operations.
type Database struct {
	sync *docstore.Database
}

// Sync returns the underlying synchronous database proxy.
func (d *Database) Sync() *docstore.Database {
	return d.sync
}

// ID returns the database's identifier.
func (d *Database) ID() string {
	return d.sync.ID()
}

// CreateContainer creates a container and resolves to its proxy.
func (d *Database) CreateContainer(ctx context.Context, properties docstore.ContainerProperties) *Future[*Container] {
	return Go(func() (*Container, error) {
		coll, err := d.sync.CreateContainer(ctx, properties)
		if err != nil {
			return nil, err
		}
		return &Container{sync: coll}, nil
	})
}

// Container returns a proxy for a container without checking that it
// exists.
func (d *Database) Container(id string) *Container {
	return &Container{sync: d.sync.Container(id)}
}

// DeleteContainer removes a container and all documents in it.
func (d *Database) DeleteContainer(ctx context.Context, id string) *Future[struct{}] {
	return Do(func() error {
		return d.sync.DeleteContainer(ctx, id)
	})
}

// ListContainers resolves to the properties of every container in the
// database.
func (d *Database) ListContainers(ctx context.Context) *Future[[]docstore.ContainerProperties] {
	return Go(func() ([]docstore.ContainerProperties, error) {
		return d.sync.ListContainers(ctx)
	})
}

// Read resolves to the database's properties.
func (d *Database) Read(ctx context.Context) *Future[*docstore.DatabaseProperties] {
	return Go(func() (*docstore.DatabaseProperties, error) {
		return d.sync.Read(ctx)
	})
}

// Delete removes the database, its containers, and their documents.
func (d *Database) Delete(ctx context.Context) *Future[struct{}] {
	return Do(func() error {
		return d.sync.Delete(ctx)
	})
}
