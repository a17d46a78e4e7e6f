/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/errors"
)

// ContainerProperties describes a container resource.
type ContainerProperties struct {
	ID           string                 `json:"id"`
	PartitionKey PartitionKeyDefinition `json:"partitionKey"`
}

// Container is a proxy for one container. It holds no state between calls
// beyond its identity and, once known, the container's partition key
// definition, which it uses for routing. A Container is safe for concurrent
// use when its engine is.
type Container struct {
	engine engine.Engine
	db     string
	id     string

	mu    sync.RWMutex
	pkDef *PartitionKeyDefinition
}

func newContainer(e engine.Engine, db, id string, def *PartitionKeyDefinition) *Container {
	return &Container{engine: e, db: db, id: id, pkDef: def}
}

// ID returns the container's identifier.
func (c *Container) ID() string {
	return c.id
}

// CreateItem stores a new document. The document's partition key is taken
// from WithPartitionKey when given, otherwise extracted from a structured
// document at the container's configured key path. Creating a document
// whose id already exists in the target partition fails with a conflict
// error.
func (c *Container) CreateItem(ctx context.Context, body DocumentBody, opts ...ItemOption) (doc Document, err error) {
	ctx, span := tracer.Start(ctx, "create-item")
	defer func() { endSpan(span, err) }()

	return c.writeItem(ctx, body, newItemOptions(opts), false)
}

// UpsertItem stores a document, replacing any existing document with the
// same id in the target partition. Upserts never fail with a conflict.
func (c *Container) UpsertItem(ctx context.Context, body DocumentBody, opts ...ItemOption) (doc Document, err error) {
	ctx, span := tracer.Start(ctx, "upsert-item")
	defer func() { endSpan(span, err) }()

	return c.writeItem(ctx, body, newItemOptions(opts), true)
}

func (c *Container) writeItem(ctx context.Context, body DocumentBody, o *itemOptions, upsert bool) (Document, error) {
	payload, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	pk, err := c.resolveKey(ctx, body, o)
	if err != nil {
		return nil, err
	}

	req := &engine.Request{
		Method: http.MethodPost,
		Path:   engine.DocumentsPath(c.db, c.id),
		Body:   payload,
	}
	req.SetHeader(engine.HeaderContentType, engine.ContentTypeJSON)
	req.SetHeader(engine.HeaderPartitionKey, pk)
	if upsert {
		req.SetHeader(engine.HeaderIsUpsert, "true")
	}

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("write item: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return decodeDocument(resp.Body)
}

// ReadItem retrieves the document with the given id from the partition
// addressed by partitionKey. A document that exists under a different
// partition key is not visible to this read.
func (c *Container) ReadItem(ctx context.Context, id string, partitionKey any) (doc Document, err error) {
	ctx, span := tracer.Start(ctx, "read-item")
	defer func() { endSpan(span, err) }()

	pk, err := encodePartitionKey(partitionKey)
	if err != nil {
		return nil, err
	}

	req := &engine.Request{
		Method: http.MethodGet,
		Path:   engine.DocumentPath(c.db, c.id, id),
	}
	req.SetHeader(engine.HeaderPartitionKey, pk)

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("read item: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return decodeDocument(resp.Body)
}

// ReplaceItem replaces the document with the given id. The operation never
// creates: replacing an absent document fails with a not-found error. Use
// WithETag to fail the replace when the stored document has changed since
// it was read.
func (c *Container) ReplaceItem(ctx context.Context, id string, body DocumentBody, opts ...ItemOption) (doc Document, err error) {
	ctx, span := tracer.Start(ctx, "replace-item")
	defer func() { endSpan(span, err) }()

	o := newItemOptions(opts)
	payload, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	pk, err := c.resolveKey(ctx, body, o)
	if err != nil {
		return nil, err
	}

	req := &engine.Request{
		Method: http.MethodPut,
		Path:   engine.DocumentPath(c.db, c.id, id),
		Body:   payload,
	}
	req.SetHeader(engine.HeaderContentType, engine.ContentTypeJSON)
	req.SetHeader(engine.HeaderPartitionKey, pk)
	if o.etag != "" {
		req.SetHeader(engine.HeaderIfMatch, o.etag)
	}

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("replace item: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return decodeDocument(resp.Body)
}

// PatchItem applies an ordered list of partial-update operations to the
// document with the given id. The list is forwarded verbatim and applied
// atomically by the store; on any failing operation the document is left
// unchanged. Use WithETag to make the patch conditional.
func (c *Container) PatchItem(ctx context.Context, id string, partitionKey any, ops []PatchOperation, opts ...ItemOption) (doc Document, err error) {
	ctx, span := tracer.Start(ctx, "patch-item")
	defer func() { endSpan(span, err) }()

	o := newItemOptions(opts)
	pk, err := encodePartitionKey(partitionKey)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(struct {
		Operations []PatchOperation `json:"operations"`
	}{Operations: ops})
	if err != nil {
		return nil, errors.NewValidationError("operations", err.Error())
	}

	req := &engine.Request{
		Method: http.MethodPatch,
		Path:   engine.DocumentPath(c.db, c.id, id),
		Body:   payload,
	}
	req.SetHeader(engine.HeaderContentType, engine.ContentTypeJSON)
	req.SetHeader(engine.HeaderPartitionKey, pk)
	if o.etag != "" {
		req.SetHeader(engine.HeaderIfMatch, o.etag)
	}

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("patch item: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return decodeDocument(resp.Body)
}

// DeleteItem removes the document with the given id from the partition
// addressed by partitionKey. Deleting an absent document fails with a
// not-found error.
func (c *Container) DeleteItem(ctx context.Context, id string, partitionKey any, opts ...ItemOption) (err error) {
	ctx, span := tracer.Start(ctx, "delete-item")
	defer func() { endSpan(span, err) }()

	o := newItemOptions(opts)
	pk, err := encodePartitionKey(partitionKey)
	if err != nil {
		return err
	}

	req := &engine.Request{
		Method: http.MethodDelete,
		Path:   engine.DocumentPath(c.db, c.id, id),
	}
	req.SetHeader(engine.HeaderPartitionKey, pk)
	if o.etag != "" {
		req.SetHeader(engine.HeaderIfMatch, o.etag)
	}

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if !resp.IsSuccess() {
		return errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}

// QueryItems executes a query against the container's documents. The query
// text is passed to the store verbatim; the client neither parses nor
// validates it. With WithPartitionKey the query runs against a single
// partition, otherwise the store fans it out across all of them. Documents
// written as RawDocument come back as regular structured documents.
func (c *Container) QueryItems(ctx context.Context, query string, opts ...ItemOption) (docs []Document, err error) {
	ctx, span := tracer.Start(ctx, "query-items")
	defer func() { endSpan(span, err) }()

	o := newItemOptions(opts)
	payload, err := json.Marshal(engine.QueryBody{Query: query})
	if err != nil {
		return nil, errors.NewValidationError("query", err.Error())
	}

	req := &engine.Request{
		Method: http.MethodPost,
		Path:   engine.DocumentsPath(c.db, c.id),
		Body:   payload,
	}
	req.SetHeader(engine.HeaderContentType, engine.ContentTypeQuery)
	req.SetHeader(engine.HeaderIsQuery, "true")
	if o.hasPartitionKey {
		pk, err := encodePartitionKey(o.partitionKey)
		if err != nil {
			return nil, err
		}
		req.SetHeader(engine.HeaderPartitionKey, pk)
	}

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}

	var body engine.DocumentsBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, errors.NewValidationError("", "store returned a malformed result set: "+err.Error())
	}
	docs = make([]Document, 0, len(body.Documents))
	for _, raw := range body.Documents {
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Read retrieves the container's properties and refreshes the cached
// partition key definition.
func (c *Container) Read(ctx context.Context) (props *ContainerProperties, err error) {
	ctx, span := tracer.Start(ctx, "read-container")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodGet,
		Path:   engine.ContainerPath(c.db, c.id),
	}
	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.FromResponse(resp.StatusCode, resp.Body)
	}

	props = &ContainerProperties{}
	if err := json.Unmarshal(resp.Body, props); err != nil {
		return nil, errors.NewValidationError("", "store returned malformed container properties: "+err.Error())
	}

	c.mu.Lock()
	def := props.PartitionKey
	c.pkDef = &def
	c.mu.Unlock()
	return props, nil
}

// Delete removes the container and all documents in it.
func (c *Container) Delete(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "delete-container")
	defer func() { endSpan(span, err) }()

	req := &engine.Request{
		Method: http.MethodDelete,
		Path:   engine.ContainerPath(c.db, c.id),
	}
	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	if !resp.IsSuccess() {
		return errors.FromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}

// resolveKey determines the routing key for a write without fetching the
// key definition unless it is actually needed.
func (c *Container) resolveKey(ctx context.Context, body DocumentBody, o *itemOptions) (string, error) {
	if o.hasPartitionKey {
		return encodePartitionKey(o.partitionKey)
	}
	if _, ok := body.(Document); !ok {
		// Raw bodies are never decoded, so nothing can be extracted.
		// This must fail before any request is dispatched.
		return "", errors.NewValidationError("partitionKey", "Partition key must be provided")
	}
	def, err := c.definition(ctx)
	if err != nil {
		return "", err
	}
	return resolvePartitionKey(body, o, def)
}

// definition returns the container's partition key definition, looking it
// up through the engine on first use.
func (c *Container) definition(ctx context.Context) (PartitionKeyDefinition, error) {
	c.mu.RLock()
	def := c.pkDef
	c.mu.RUnlock()
	if def != nil {
		return *def, nil
	}

	props, err := c.Read(ctx)
	if err != nil {
		return PartitionKeyDefinition{}, err
	}
	return props.PartitionKey, nil
}
