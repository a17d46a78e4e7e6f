/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory implements the full store wire contract in process. It is
// the reference engine: tests run against it, and the emulator binary
// serves it over HTTP. Documents live in guarded maps keyed by database,
// container, partition, and id.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/internal/patch"
	"github.com/suparena/docstore/internal/query"
)

// Engine is an in-process document store. The zero value is not usable;
// construct with New. An Engine is safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	dbs    map[string]*database
	logger *zap.Logger
}

type database struct {
	id         string
	containers map[string]*container
}

type container struct {
	id    string
	pkDef keyDefinition
	// partition key wire form -> document id -> document
	partitions map[string]map[string]map[string]any
}

type keyDefinition struct {
	Paths []string `json:"paths"`
	Kind  string   `json:"kind"`
}

type containerProperties struct {
	ID           string        `json:"id"`
	PartitionKey keyDefinition `json:"partitionKey"`
}

type databaseProperties struct {
	ID string `json:"id"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger; every handled request is logged at debug
// level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an empty in-memory engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		dbs:    make(map[string]*database),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do routes one wire request to the in-memory store.
func (e *Engine) Do(ctx context.Context, req *engine.Request) (*engine.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	segs, err := splitPath(req.Path)
	if err != nil {
		return e.logged(req, problem(http.StatusBadRequest, err.Error())), nil
	}

	resp := e.route(req, segs)
	return e.logged(req, resp), nil
}

func (e *Engine) logged(req *engine.Request, resp *engine.Response) *engine.Response {
	e.logger.Debug("handled request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
	)
	return resp
}

func (e *Engine) route(req *engine.Request, segs []string) *engine.Response {
	switch {
	case len(segs) == 1 && segs[0] == "dbs":
		switch req.Method {
		case http.MethodGet:
			return e.listDatabases()
		case http.MethodPost:
			return e.createDatabase(req.Body)
		}
	case len(segs) == 2 && segs[0] == "dbs":
		switch req.Method {
		case http.MethodGet:
			return e.readDatabase(segs[1])
		case http.MethodDelete:
			return e.deleteDatabase(segs[1])
		}
	case len(segs) == 3 && segs[0] == "dbs" && segs[2] == "colls":
		switch req.Method {
		case http.MethodGet:
			return e.listContainers(segs[1])
		case http.MethodPost:
			return e.createContainer(segs[1], req.Body)
		}
	case len(segs) == 4 && segs[0] == "dbs" && segs[2] == "colls":
		switch req.Method {
		case http.MethodGet:
			return e.readContainer(segs[1], segs[3])
		case http.MethodDelete:
			return e.deleteContainer(segs[1], segs[3])
		}
	case len(segs) == 5 && segs[0] == "dbs" && segs[2] == "colls" && segs[4] == "docs":
		if req.Method == http.MethodPost {
			if req.Header(engine.HeaderIsQuery) == "true" {
				return e.queryDocuments(segs[1], segs[3], req)
			}
			return e.writeDocument(segs[1], segs[3], req)
		}
	case len(segs) == 6 && segs[0] == "dbs" && segs[2] == "colls" && segs[4] == "docs":
		switch req.Method {
		case http.MethodGet:
			return e.readDocument(segs[1], segs[3], segs[5], req)
		case http.MethodPut:
			return e.replaceDocument(segs[1], segs[3], segs[5], req)
		case http.MethodPatch:
			return e.patchDocument(segs[1], segs[3], segs[5], req)
		case http.MethodDelete:
			return e.deleteDocument(segs[1], segs[3], segs[5], req)
		}
	default:
		return problem(http.StatusBadRequest, fmt.Sprintf("unsupported resource path %q", req.Path))
	}
	return problem(http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed here", req.Method))
}

// Databases

func (e *Engine) createDatabase(body []byte) *engine.Response {
	var props databaseProperties
	if err := json.Unmarshal(body, &props); err != nil || props.ID == "" {
		return problem(http.StatusBadRequest, "database id must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.dbs[props.ID]; exists {
		return problem(http.StatusConflict, fmt.Sprintf("database with id %q already exists", props.ID))
	}
	e.dbs[props.ID] = &database{id: props.ID, containers: make(map[string]*container)}
	return jsonResponse(http.StatusCreated, props)
}

func (e *Engine) readDatabase(id string) *engine.Response {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, exists := e.dbs[id]; !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", id))
	}
	return jsonResponse(http.StatusOK, databaseProperties{ID: id})
}

func (e *Engine) deleteDatabase(id string) *engine.Response {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.dbs[id]; !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", id))
	}
	delete(e.dbs, id)
	return &engine.Response{StatusCode: http.StatusNoContent}
}

func (e *Engine) listDatabases() *engine.Response {
	e.mu.RLock()
	defer e.mu.RUnlock()

	body := engine.DatabasesBody{Databases: make([]json.RawMessage, 0, len(e.dbs))}
	for id := range e.dbs {
		raw, err := json.Marshal(databaseProperties{ID: id})
		if err != nil {
			return problem(http.StatusInternalServerError, err.Error())
		}
		body.Databases = append(body.Databases, raw)
	}
	body.Count = len(body.Databases)
	return jsonResponse(http.StatusOK, body)
}

// Containers

func (e *Engine) createContainer(db string, body []byte) *engine.Response {
	var props containerProperties
	if err := json.Unmarshal(body, &props); err != nil || props.ID == "" {
		return problem(http.StatusBadRequest, "container id must not be empty")
	}
	if len(props.PartitionKey.Paths) == 0 {
		props.PartitionKey.Paths = []string{"/id"}
	}
	if props.PartitionKey.Kind == "" {
		props.PartitionKey.Kind = "Hash"
	}
	if props.PartitionKey.Kind != "Hash" {
		return problem(http.StatusBadRequest, fmt.Sprintf("unsupported partition key kind %q", props.PartitionKey.Kind))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d, exists := e.dbs[db]
	if !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", db))
	}
	if _, exists := d.containers[props.ID]; exists {
		return problem(http.StatusConflict, fmt.Sprintf("container with id %q already exists", props.ID))
	}
	d.containers[props.ID] = &container{
		id:         props.ID,
		pkDef:      props.PartitionKey,
		partitions: make(map[string]map[string]map[string]any),
	}
	return jsonResponse(http.StatusCreated, props)
}

func (e *Engine) readContainer(db, id string) *engine.Response {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, resp := e.container(db, id)
	if resp != nil {
		return resp
	}
	return jsonResponse(http.StatusOK, containerProperties{ID: c.id, PartitionKey: c.pkDef})
}

func (e *Engine) deleteContainer(db, id string) *engine.Response {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, exists := e.dbs[db]
	if !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", db))
	}
	if _, exists := d.containers[id]; !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("container with id %q does not exist", id))
	}
	delete(d.containers, id)
	return &engine.Response{StatusCode: http.StatusNoContent}
}

func (e *Engine) listContainers(db string) *engine.Response {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d, exists := e.dbs[db]
	if !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", db))
	}
	body := engine.ContainersBody{Containers: make([]json.RawMessage, 0, len(d.containers))}
	for _, c := range d.containers {
		raw, err := json.Marshal(containerProperties{ID: c.id, PartitionKey: c.pkDef})
		if err != nil {
			return problem(http.StatusInternalServerError, err.Error())
		}
		body.Containers = append(body.Containers, raw)
	}
	body.Count = len(body.Containers)
	return jsonResponse(http.StatusOK, body)
}

// Documents

func (e *Engine) writeDocument(db, coll string, req *engine.Request) *engine.Response {
	doc, resp := decodeDocument(req.Body)
	if resp != nil {
		return resp
	}
	id, resp := documentID(doc)
	if resp != nil {
		return resp
	}
	pk, resp := partitionKeyOf(req)
	if resp != nil {
		return resp
	}
	upsert := req.Header(engine.HeaderIsUpsert) == "true"

	e.mu.Lock()
	defer e.mu.Unlock()

	c, errResp := e.container(db, coll)
	if errResp != nil {
		return errResp
	}

	partition := c.partitions[pk]
	_, exists := partition[id]
	if exists && !upsert {
		return problem(http.StatusConflict, fmt.Sprintf("document with id %q already exists", id))
	}
	if partition == nil {
		partition = make(map[string]map[string]any)
		c.partitions[pk] = partition
	}

	stamp(doc)
	partition[id] = doc

	status := http.StatusCreated
	if exists {
		status = http.StatusOK
	}
	return documentResponse(status, doc)
}

func (e *Engine) readDocument(db, coll, id string, req *engine.Request) *engine.Response {
	pk, resp := partitionKeyOf(req)
	if resp != nil {
		return resp
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	c, errResp := e.container(db, coll)
	if errResp != nil {
		return errResp
	}
	doc, exists := c.partitions[pk][id]
	if !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("document with id %q does not exist", id))
	}
	return documentResponse(http.StatusOK, doc)
}

func (e *Engine) replaceDocument(db, coll, id string, req *engine.Request) *engine.Response {
	doc, resp := decodeDocument(req.Body)
	if resp != nil {
		return resp
	}
	bodyID, resp := documentID(doc)
	if resp != nil {
		return resp
	}
	if bodyID != id {
		return problem(http.StatusBadRequest, "document id does not match the request path")
	}
	pk, resp := partitionKeyOf(req)
	if resp != nil {
		return resp
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, errResp := e.container(db, coll)
	if errResp != nil {
		return errResp
	}
	current, exists := c.partitions[pk][id]
	if !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("document with id %q does not exist", id))
	}
	if resp := checkETag(current, req); resp != nil {
		return resp
	}

	stamp(doc)
	c.partitions[pk][id] = doc
	return documentResponse(http.StatusOK, doc)
}

func (e *Engine) patchDocument(db, coll, id string, req *engine.Request) *engine.Response {
	var body struct {
		Operations []patch.Operation `json:"operations"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return problem(http.StatusBadRequest, "Invalid JSON")
	}
	pk, resp := partitionKeyOf(req)
	if resp != nil {
		return resp
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, errResp := e.container(db, coll)
	if errResp != nil {
		return errResp
	}
	current, exists := c.partitions[pk][id]
	if !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("document with id %q does not exist", id))
	}
	if resp := checkETag(current, req); resp != nil {
		return resp
	}

	patched, err := patch.Apply(current, body.Operations)
	if err != nil {
		return problem(http.StatusBadRequest, err.Error())
	}

	stamp(patched)
	c.partitions[pk][id] = patched
	return documentResponse(http.StatusOK, patched)
}

func (e *Engine) deleteDocument(db, coll, id string, req *engine.Request) *engine.Response {
	pk, resp := partitionKeyOf(req)
	if resp != nil {
		return resp
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, errResp := e.container(db, coll)
	if errResp != nil {
		return errResp
	}
	current, exists := c.partitions[pk][id]
	if !exists {
		return problem(http.StatusNotFound, fmt.Sprintf("document with id %q does not exist", id))
	}
	if resp := checkETag(current, req); resp != nil {
		return resp
	}

	delete(c.partitions[pk], id)
	if len(c.partitions[pk]) == 0 {
		delete(c.partitions, pk)
	}
	return &engine.Response{StatusCode: http.StatusNoContent}
}

func (e *Engine) queryDocuments(db, coll string, req *engine.Request) *engine.Response {
	var body engine.QueryBody
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return problem(http.StatusBadRequest, "Invalid JSON")
	}
	q, err := query.Parse(body.Query)
	if err != nil {
		return problem(http.StatusBadRequest, err.Error())
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	c, errResp := e.container(db, coll)
	if errResp != nil {
		return errResp
	}

	// Scoped to one partition when the key header is present, fanned out
	// across all partitions otherwise.
	var scope []map[string]map[string]any
	if wire := req.Header(engine.HeaderPartitionKey); wire != "" {
		pk, resp := normalizeKey(wire)
		if resp != nil {
			return resp
		}
		if partition, exists := c.partitions[pk]; exists {
			scope = append(scope, partition)
		}
	} else {
		for _, partition := range c.partitions {
			scope = append(scope, partition)
		}
	}

	result := engine.DocumentsBody{Documents: make([]json.RawMessage, 0)}
	for _, partition := range scope {
		for _, doc := range partition {
			if !q.Matches(doc) {
				continue
			}
			raw, err := json.Marshal(doc)
			if err != nil {
				return problem(http.StatusInternalServerError, err.Error())
			}
			result.Documents = append(result.Documents, raw)
		}
	}
	result.Count = len(result.Documents)
	return jsonResponse(http.StatusOK, result)
}

// container resolves a container under the engine lock. The returned
// response is non-nil when the database or container is missing.
func (e *Engine) container(db, coll string) (*container, *engine.Response) {
	d, exists := e.dbs[db]
	if !exists {
		return nil, problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", db))
	}
	c, exists := d.containers[coll]
	if !exists {
		return nil, problem(http.StatusNotFound, fmt.Sprintf("container with id %q does not exist", coll))
	}
	return c, nil
}

// Helpers

func splitPath(path string) ([]string, error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("unsupported resource path %q", path)
	}
	parts := strings.Split(trimmed, "/")
	segs := make([]string, 0, len(parts))
	for _, part := range parts {
		seg, err := url.PathUnescape(part)
		if err != nil || seg == "" {
			return nil, fmt.Errorf("unsupported resource path %q", path)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func decodeDocument(body []byte) (map[string]any, *engine.Response) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, problem(http.StatusBadRequest, "Invalid JSON")
	}
	return doc, nil
}

func documentID(doc map[string]any) (string, *engine.Response) {
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return "", problem(http.StatusBadRequest, "document is missing the required id field")
	}
	return id, nil
}

func partitionKeyOf(req *engine.Request) (string, *engine.Response) {
	wire := req.Header(engine.HeaderPartitionKey)
	if wire == "" {
		return "", problem(http.StatusBadRequest, "Partition key must be provided")
	}
	return normalizeKey(wire)
}

// normalizeKey canonicalizes the JSON encoding of a partition key scalar so
// equal values always address the same partition.
func normalizeKey(wire string) (string, *engine.Response) {
	var v any
	if err := json.Unmarshal([]byte(wire), &v); err != nil {
		return "", problem(http.StatusBadRequest, "malformed partition key")
	}
	switch v.(type) {
	case string, float64, bool:
	default:
		return "", problem(http.StatusBadRequest, "partition key must be a string, number, or boolean")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", problem(http.StatusInternalServerError, err.Error())
	}
	return string(out), nil
}

// stamp refreshes the document's system properties on every write.
func stamp(doc map[string]any) {
	doc["_etag"] = uuid.NewString()
	doc["_ts"] = float64(time.Now().Unix())
}

func checkETag(current map[string]any, req *engine.Request) *engine.Response {
	ifMatch := req.Header(engine.HeaderIfMatch)
	if ifMatch == "" {
		return nil
	}
	etag, _ := current["_etag"].(string)
	if etag != ifMatch {
		return problem(http.StatusPreconditionFailed, "the etag given does not match the current document")
	}
	return nil
}

func documentResponse(status int, doc map[string]any) *engine.Response {
	resp := jsonResponse(status, doc)
	if etag, ok := doc["_etag"].(string); ok {
		resp.Headers = map[string]string{engine.HeaderETag: etag}
	}
	return resp
}

func jsonResponse(status int, v any) *engine.Response {
	body, err := json.Marshal(v)
	if err != nil {
		return problem(http.StatusInternalServerError, err.Error())
	}
	return &engine.Response{StatusCode: status, Body: body}
}

func problem(status int, message string) *engine.Response {
	body, _ := json.Marshal(errors.NewProblem(status, message))
	return &engine.Response{StatusCode: status, Body: body}
}
