/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

// PatchOperation is one step of a partial document update. The list handed
// to PatchItem is forwarded to the store in order and applied atomically;
// the client never interprets the operations or their paths.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// PatchAdd sets the value at path, creating it when absent.
func PatchAdd(path string, value any) PatchOperation {
	return PatchOperation{Op: "add", Path: path, Value: value}
}

// PatchSet sets the value at path, creating it when absent.
func PatchSet(path string, value any) PatchOperation {
	return PatchOperation{Op: "set", Path: path, Value: value}
}

// PatchReplace replaces the value at an existing path. The patch fails when
// the path is absent.
func PatchReplace(path string, value any) PatchOperation {
	return PatchOperation{Op: "replace", Path: path, Value: value}
}

// PatchRemove deletes the value at an existing path. The patch fails when
// the path is absent.
func PatchRemove(path string) PatchOperation {
	return PatchOperation{Op: "remove", Path: path}
}

// PatchIncrement adds delta to the numeric value at path. An absent path is
// created holding delta; a non-numeric value fails the patch.
func PatchIncrement(path string, delta float64) PatchOperation {
	return PatchOperation{Op: "incr", Path: path, Value: delta}
}
