/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"encoding/json"
	"fmt"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/internal/keypath"
)

// PartitionKeyKindHash is the only partitioning scheme the store supports.
const PartitionKeyKindHash = "Hash"

// PartitionKeyDefinition declares how a container routes its documents.
// Paths name the document fields the key is read from; only the first path
// is consulted.
type PartitionKeyDefinition struct {
	Paths []string `json:"paths"`
	Kind  string   `json:"kind"`
}

// DefaultPartitionKeyDefinition routes documents on their id field. It is
// applied when a container is created without an explicit definition.
func DefaultPartitionKeyDefinition() PartitionKeyDefinition {
	return PartitionKeyDefinition{Paths: []string{"/id"}, Kind: PartitionKeyKindHash}
}

func (d PartitionKeyDefinition) path() string {
	if len(d.Paths) == 0 {
		return "/id"
	}
	return d.Paths[0]
}

// encodePartitionKey validates that v is a legal partition key scalar and
// returns its wire form, the plain JSON encoding of the value. Strings,
// booleans, and all numeric kinds are legal; numbers travel as JSON
// numbers, so every numeric kind normalizes to float64. No other coercion
// is applied.
func encodePartitionKey(v any) (string, error) {
	switch t := v.(type) {
	case string, bool, float64:
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int8:
		v = float64(t)
	case int16:
		v = float64(t)
	case int32:
		v = float64(t)
	case int64:
		v = float64(t)
	case uint:
		v = float64(t)
	case uint8:
		v = float64(t)
	case uint16:
		v = float64(t)
	case uint32:
		v = float64(t)
	case uint64:
		v = float64(t)
	default:
		return "", errors.NewValidationError("partitionKey",
			fmt.Sprintf("partition key must be a string, number, or boolean, got %T", v))
	}
	wire, err := json.Marshal(v)
	if err != nil {
		return "", errors.NewValidationError("partitionKey", err.Error())
	}
	return string(wire), nil
}

// resolvePartitionKey determines the routing key for a document write. An
// explicitly supplied key always wins. Otherwise the key is extracted from
// a structured document at the container's configured path. Raw documents
// are never decoded, so without an explicit key they cannot be routed.
func resolvePartitionKey(body DocumentBody, opts *itemOptions, def PartitionKeyDefinition) (string, error) {
	if opts.hasPartitionKey {
		return encodePartitionKey(opts.partitionKey)
	}

	doc, ok := body.(Document)
	if !ok {
		return "", errors.NewValidationError("partitionKey", "Partition key must be provided")
	}

	v, found := keypath.Get(doc, def.path())
	if !found {
		return "", errors.NewValidationError("partitionKey", "Partition key must be provided")
	}
	return encodePartitionKey(v)
}
