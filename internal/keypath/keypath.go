/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package keypath walks document fields addressed by partition key paths,
// patch paths, and query property references.
//
// Two spellings address the same field: the slash form used by key and
// patch paths ("/address/zip") and the dotted form used inside query text
// ("address.zip"). Paths starting with "/" split on slashes, anything else
// splits on dots.
package keypath

import "strings"

// Split normalizes a field path into its segments.
func Split(path string) []string {
	if strings.HasPrefix(path, "/") {
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			return nil
		}
		return strings.Split(path, "/")
	}
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get walks doc along path and reports the value found there. The second
// return is false when any segment is absent or a non-object intervenes.
func Get(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range Split(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
