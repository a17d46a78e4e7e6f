/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package engine

import (
	"context"
	"encoding/json"
	"net/url"
)

// Engine executes one store exchange. Implementations are transports: they
// move requests to a store (over the network, to a durable backend, or to an
// in-process emulator) and report the outcome verbatim. An Engine never maps
// store failures into Go errors; a non-success StatusCode on the Response is
// the failure. The error return is reserved for the exchange itself failing.
type Engine interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request is one store operation in wire form.
type Request struct {
	Method  string
	Path    string
	Body    []byte
	Headers map[string]string
}

// Response is the store's answer to a Request.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Header returns the named request header, or "" when unset.
func (r *Request) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[name]
}

// SetHeader sets a request header, allocating the map on first use.
func (r *Request) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
}

// Header returns the named response header, or "" when unset.
func (r *Response) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[name]
}

// IsSuccess reports whether the response carries a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Request headers understood by every engine.
const (
	// HeaderPartitionKey carries the JSON encoding of the partition key
	// scalar the operation targets.
	HeaderPartitionKey = "x-ds-partition-key"

	// HeaderIsUpsert marks a document POST as create-or-replace.
	HeaderIsUpsert = "x-ds-is-upsert"

	// HeaderIsQuery marks a document POST as a query execution.
	HeaderIsQuery = "x-ds-query"

	// HeaderIfMatch makes a write conditional on the document's current etag.
	HeaderIfMatch = "If-Match"

	// HeaderETag carries the stored document's etag on responses.
	HeaderETag = "ETag"

	// HeaderContentType declares the request body media type.
	HeaderContentType = "Content-Type"
)

// Body media types.
const (
	ContentTypeJSON  = "application/json"
	ContentTypeQuery = "application/query+json"
)

// QueryBody is the body of a query request.
type QueryBody struct {
	Query string `json:"query"`
}

// DocumentsBody is the body of a query response.
type DocumentsBody struct {
	Documents []json.RawMessage `json:"Documents"`
	Count     int               `json:"_count"`
}

// DatabasesBody is the body of a database list response.
type DatabasesBody struct {
	Databases []json.RawMessage `json:"Databases"`
	Count     int               `json:"_count"`
}

// ContainersBody is the body of a container list response.
type ContainersBody struct {
	Containers []json.RawMessage `json:"Containers"`
	Count      int               `json:"_count"`
}

// Resource path builders. Identifiers are escaped so they cannot alter the
// path shape.

// DatabasesPath is the collection path for databases.
func DatabasesPath() string {
	return "/dbs"
}

// DatabasePath is the path of one database.
func DatabasePath(db string) string {
	return "/dbs/" + url.PathEscape(db)
}

// ContainersPath is the collection path for containers in a database.
func ContainersPath(db string) string {
	return DatabasePath(db) + "/colls"
}

// ContainerPath is the path of one container.
func ContainerPath(db, container string) string {
	return ContainersPath(db) + "/" + url.PathEscape(container)
}

// DocumentsPath is the collection path for documents in a container.
func DocumentsPath(db, container string) string {
	return ContainerPath(db, container) + "/docs"
}

// DocumentPath is the path of one document.
func DocumentPath(db, container, id string) string {
	return DocumentsPath(db, container) + "/" + url.PathEscape(id)
}
