/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"encoding/json"

	"github.com/suparena/docstore/errors"
)

// DocumentBody is the input to every document write. Exactly two
// implementations exist: Document, a structured field map, and RawDocument,
// a pre-serialized JSON text. The interface is sealed so the codec can
// branch on the representation without reflection.
type DocumentBody interface {
	documentBody()
}

// Document is a schemaless document as a field map. Documents written to a
// container must carry a non-empty string field "id".
type Document map[string]any

func (Document) documentBody() {}

// ID returns the document's id field, or "" when absent or not a string.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// ETag returns the document's _etag system property, or "" when absent.
func (d Document) ETag() string {
	etag, _ := d["_etag"].(string)
	return etag
}

// RawDocument is a document the caller has already serialized. The bytes
// are forwarded verbatim: the library checks that they are syntactically
// valid JSON but never decodes them, so a partition key must always be
// supplied explicitly alongside a RawDocument.
type RawDocument []byte

func (RawDocument) documentBody() {}

// marshalBody produces the request payload for a document body. Structured
// documents are validated for a usable id and marshaled; raw documents are
// syntax-checked and passed through untouched.
func marshalBody(body DocumentBody) ([]byte, error) {
	switch b := body.(type) {
	case RawDocument:
		if !json.Valid(b) {
			return nil, errors.NewValidationError("", "Invalid JSON")
		}
		return b, nil
	case Document:
		if err := validateDocumentID(b); err != nil {
			return nil, err
		}
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, errors.NewValidationError("", err.Error())
		}
		return payload, nil
	case nil:
		return nil, errors.NewValidationError("body", "a document body is required")
	}
	// The interface is sealed; no other implementation can exist.
	return nil, errors.NewValidationError("body", "unsupported document body type")
}

func validateDocumentID(d Document) error {
	v, exists := d["id"]
	if !exists {
		return errors.NewValidationError("id", "document is missing the required id field")
	}
	id, ok := v.(string)
	if !ok {
		return errors.NewValidationError("id", "document id must be a string")
	}
	if id == "" {
		return errors.NewValidationError("id", "document id must not be empty")
	}
	return nil
}

// decodeDocument turns a response body back into a Document.
func decodeDocument(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.NewValidationError("", "store returned a malformed document: "+err.Error())
	}
	return doc, nil
}
