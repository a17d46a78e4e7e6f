/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package patch applies partial-update operations to documents on behalf
// of the emulator engines. An operation list is atomic: either every
// operation applies in order, or the document is left untouched.
package patch

import (
	"fmt"

	"github.com/suparena/docstore/internal/keypath"
)

// Operation describes one mutation in a patch request.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Supported operation names.
const (
	OpAdd       = "add"
	OpSet       = "set"
	OpReplace   = "replace"
	OpRemove    = "remove"
	OpIncrement = "incr"
)

// Apply runs ops against doc in order and returns the patched document.
// The input document is never modified. Any failing operation fails the
// whole patch.
func Apply(doc map[string]any, ops []Operation) (map[string]any, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("patch must contain at least one operation")
	}

	out := clone(doc).(map[string]any)
	for i, op := range ops {
		if err := apply(out, op); err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	return out, nil
}

func apply(doc map[string]any, op Operation) error {
	segs := keypath.Split(op.Path)
	if len(segs) == 0 {
		return fmt.Errorf("empty path")
	}
	name := segs[len(segs)-1]

	switch op.Op {
	case OpAdd, OpSet:
		parent, err := walkParent(doc, segs, true)
		if err != nil {
			return err
		}
		parent[name] = op.Value
	case OpReplace:
		parent, err := walkParent(doc, segs, false)
		if err != nil {
			return err
		}
		if _, exists := parent[name]; !exists {
			return fmt.Errorf("path does not exist")
		}
		parent[name] = op.Value
	case OpRemove:
		parent, err := walkParent(doc, segs, false)
		if err != nil {
			return err
		}
		if _, exists := parent[name]; !exists {
			return fmt.Errorf("path does not exist")
		}
		delete(parent, name)
	case OpIncrement:
		delta, ok := toNumber(op.Value)
		if !ok {
			return fmt.Errorf("increment value must be a number")
		}
		parent, err := walkParent(doc, segs, true)
		if err != nil {
			return err
		}
		current, exists := parent[name]
		if !exists {
			parent[name] = delta
			return nil
		}
		base, ok := toNumber(current)
		if !ok {
			return fmt.Errorf("existing value is not a number")
		}
		parent[name] = base + delta
	default:
		return fmt.Errorf("unknown operation %q", op.Op)
	}
	return nil
}

// walkParent returns the map holding the path's final segment, creating
// intermediate objects when create is set.
func walkParent(doc map[string]any, segs []string, create bool) (map[string]any, error) {
	cur := doc
	for _, seg := range segs[:len(segs)-1] {
		next, exists := cur[seg]
		if !exists {
			if !create {
				return nil, fmt.Errorf("path does not exist")
			}
			m := make(map[string]any)
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path traverses a non-object value")
		}
		cur = m
	}
	return cur, nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = clone(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = clone(val)
		}
		return s
	default:
		return v
	}
}
