/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/errors"
)

// DatabaseProperties describes a database resource.
type DatabaseProperties struct {
	ID string `json:"id"`
}

// Database is a proxy for one database. Obtaining it performs no request;
// it is a handle for container lifecycle operations.
type Database struct {
	engine engine.Engine
	id     string
}

// ID returns the database's identifier.
func (d *Database) ID() string {
	return d.id
}

// CreateContainer creates a container in this database. When the given
// properties carry no partition key paths, the container routes documents
// on their id field. Creating a container whose id already exists fails
// with a conflict error.
func (d *Database) CreateContainer(ctx context.Context, properties ContainerProperties) (container *Container, err error) {
	ctx, span := tracer.Start(ctx, "create-container")
	defer func() { endSpan(span, err) }()

	if properties.ID == "" {
		return nil, errors.NewValidationError("id", "container id must not be empty")
	}
	if len(properties.PartitionKey.Paths) == 0 {
		properties.PartitionKey = DefaultPartitionKeyDefinition()
	}
	if properties.PartitionKey.Kind == "" {
		properties.PartitionKey.Kind = PartitionKeyKindHash
	}
	if properties.PartitionKey.Kind != PartitionKeyKindHash {
		return nil, errors.NewValidationError("partitionKey",
			fmt.Sprintf("unsupported partition key kind %q", properties.PartitionKey.Kind))
	}

	payload, err := json.Marshal(properties)
	if err != nil {
		return nil, errors.NewValidationError("", err.Error())
	}

	req := &engine.Request{
		Method: http.MethodPost,
		Path:   engine.ContainersPath(d.id),
		Body:   payload,
	}
	req.SetHeader(engine.HeaderContentType, engine.ContentTypeJSON)

	resp, err := d.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}

	def := properties.PartitionKey
	return newContainer(d.engine, d.id, properties.ID, &def), nil
}

// Container returns a proxy for a container without checking that it
// exists. Operations on a missing container fail with a not-found error.
func (d *Database) Container(id string) *Container {
	return newContainer(d.engine, d.id, id, nil)
}

// DeleteContainer removes a container and all documents in it.
func (d *Database) DeleteContainer(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "delete-container")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodDelete,
		Path:   engine.ContainerPath(d.id, id),
	}
	resp, err := d.engine.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	if !resp.IsSuccess() {
		return errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}

// ListContainers returns the properties of every container in the
// database. The order of the result is not significant; a database without
// containers yields an empty slice.
func (d *Database) ListContainers(ctx context.Context) (containers []ContainerProperties, err error) {
	ctx, span := tracer.Start(ctx, "list-containers")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodGet,
		Path:   engine.ContainersPath(d.id),
	}
	resp, err := d.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}

	var body engine.ContainersBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, errors.NewValidationError("", "store returned a malformed container list: "+err.Error())
	}
	containers = make([]ContainerProperties, 0, len(body.Containers))
	for _, raw := range body.Containers {
		var props ContainerProperties
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, errors.NewValidationError("", "store returned malformed container properties: "+err.Error())
		}
		containers = append(containers, props)
	}
	return containers, nil
}

// Read retrieves the database's properties.
func (d *Database) Read(ctx context.Context) (props *DatabaseProperties, err error) {
	ctx, span := tracer.Start(ctx, "read-database")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodGet,
		Path:   engine.DatabasePath(d.id),
	}
	resp, err := d.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}

	props = &DatabaseProperties{}
	if err := json.Unmarshal(resp.Body, props); err != nil {
		return nil, errors.NewValidationError("", "store returned malformed database properties: "+err.Error())
	}
	return props, nil
}

// Delete removes the database, its containers, and their documents.
func (d *Database) Delete(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "delete-database")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodDelete,
		Path:   engine.DatabasePath(d.id),
	}
	resp, err := d.engine.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	if !resp.IsSuccess() {
		return errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}
