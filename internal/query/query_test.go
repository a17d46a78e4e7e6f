/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"testing"
)

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "missing star", text: "SELECT id FROM c"},
		{name: "missing from", text: "SELECT *"},
		{name: "keyword alias", text: "SELECT * FROM WHERE"},
		{name: "trailing garbage", text: "SELECT * FROM c WHERE c.x = 1 extra"},
		{name: "wrong alias in filter", text: "SELECT * FROM c WHERE d.x = 1"},
		{name: "bare alias", text: "SELECT * FROM c WHERE c = 1"},
		{name: "unterminated string", text: "SELECT * FROM c WHERE c.x = 'abc"},
		{name: "unclosed paren", text: "SELECT * FROM c WHERE (c.x = 1"},
		{name: "dangling operator", text: "SELECT * FROM c WHERE c.x ="},
		{name: "lone bang", text: "SELECT * FROM c WHERE c.x ! 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); err == nil {
				t.Errorf("Parse(%q) should fail", tt.text)
			}
		})
	}
}

func TestMatchAll(t *testing.T) {
	q, err := Parse("SELECT * FROM c")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !q.Matches(map[string]any{"id": "1"}) {
		t.Error("query without WHERE should match every document")
	}
	if !q.Matches(map[string]any{}) {
		t.Error("query without WHERE should match the empty document")
	}
}

func TestComparisons(t *testing.T) {
	doc := map[string]any{
		"id":     "order-1",
		"value":  float64(7),
		"name":   "widget",
		"active": true,
		"note":   nil,
		"address": map[string]any{
			"zip": "90210",
		},
	}

	tests := []struct {
		name  string
		text  string
		match bool
	}{
		{name: "number gt", text: "SELECT * FROM c WHERE c.value > 5", match: true},
		{name: "number gt excluded", text: "SELECT * FROM c WHERE c.value > 7", match: false},
		{name: "number gte", text: "SELECT * FROM c WHERE c.value >= 7", match: true},
		{name: "number lt", text: "SELECT * FROM c WHERE c.value < 10", match: true},
		{name: "number lte", text: "SELECT * FROM c WHERE c.value <= 6", match: false},
		{name: "number eq", text: "SELECT * FROM c WHERE c.value = 7", match: true},
		{name: "number neq", text: "SELECT * FROM c WHERE c.value != 7", match: false},
		{name: "number neq alt", text: "SELECT * FROM c WHERE c.value <> 6", match: true},
		{name: "negative literal", text: "SELECT * FROM c WHERE c.value > -1", match: true},
		{name: "string eq single quotes", text: "SELECT * FROM c WHERE c.name = 'widget'", match: true},
		{name: "string eq double quotes", text: `SELECT * FROM c WHERE c.name = "widget"`, match: true},
		{name: "string ordering", text: "SELECT * FROM c WHERE c.name < 'zzz'", match: true},
		{name: "bool eq", text: "SELECT * FROM c WHERE c.active = true", match: true},
		{name: "bool neq", text: "SELECT * FROM c WHERE c.active != false", match: true},
		{name: "null eq", text: "SELECT * FROM c WHERE c.note = null", match: true},
		{name: "null neq", text: "SELECT * FROM c WHERE c.note != null", match: false},
		{name: "nested path", text: "SELECT * FROM c WHERE c.address.zip = '90210'", match: true},
		{name: "bare bool property", text: "SELECT * FROM c WHERE c.active", match: true},
		{name: "case-insensitive keywords", text: "select * from c where c.value = 7", match: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.text, err)
			}
			if got := q.Matches(doc); got != tt.match {
				t.Errorf("Matches = %v, want %v", got, tt.match)
			}
		})
	}
}

func TestUndefinedSemantics(t *testing.T) {
	doc := map[string]any{
		"id":    "1",
		"value": float64(7),
	}

	tests := []struct {
		name  string
		text  string
		match bool
	}{
		{name: "missing property never matches", text: "SELECT * FROM c WHERE c.missing = 1", match: false},
		{name: "missing property neq never matches", text: "SELECT * FROM c WHERE c.missing != 1", match: false},
		{name: "missing is not null", text: "SELECT * FROM c WHERE c.missing = null", match: false},
		{name: "type mismatch never matches", text: "SELECT * FROM c WHERE c.value = '7'", match: false},
		{name: "type mismatch neq never matches", text: "SELECT * FROM c WHERE c.value != '7'", match: false},
		{name: "not of undefined is undefined", text: "SELECT * FROM c WHERE NOT c.missing = 1", match: false},
		{name: "undefined or true is true", text: "SELECT * FROM c WHERE c.missing = 1 OR c.value = 7", match: true},
		{name: "undefined and false is false", text: "SELECT * FROM c WHERE NOT (c.missing = 1 AND c.value = 0)", match: true},
		{name: "undefined and true is undefined", text: "SELECT * FROM c WHERE c.missing = 1 AND c.value = 7", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.text, err)
			}
			if got := q.Matches(doc); got != tt.match {
				t.Errorf("Matches = %v, want %v", got, tt.match)
			}
		})
	}
}

func TestLogicalOperators(t *testing.T) {
	docs := []map[string]any{
		{"id": "a", "value": float64(2), "kind": "x"},
		{"id": "b", "value": float64(6), "kind": "x"},
		{"id": "c", "value": float64(6), "kind": "y"},
	}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "and", text: "SELECT * FROM c WHERE c.value > 5 AND c.kind = 'x'", want: []string{"b"}},
		{name: "or", text: "SELECT * FROM c WHERE c.value < 5 OR c.kind = 'y'", want: []string{"a", "c"}},
		{name: "not", text: "SELECT * FROM c WHERE NOT c.kind = 'x'", want: []string{"c"}},
		{name: "parens change binding", text: "SELECT * FROM c WHERE c.kind = 'y' OR (c.kind = 'x' AND c.value > 5)", want: []string{"b", "c"}},
		{name: "precedence and before or", text: "SELECT * FROM c WHERE c.kind = 'y' OR c.kind = 'x' AND c.value > 5", want: []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.text, err)
			}
			var got []string
			for _, doc := range docs {
				if q.Matches(doc) {
					got = append(got, doc["id"].(string))
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("matched %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("matched %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestRangeScan(t *testing.T) {
	// Ten documents with values 0..9, filter > 5
	q, err := Parse("SELECT * FROM c WHERE c.value > 5")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	matched := make(map[float64]bool)
	for i := 0; i < 10; i++ {
		doc := map[string]any{"id": "doc", "value": float64(i)}
		if q.Matches(doc) {
			matched[float64(i)] = true
		}
	}

	if len(matched) != 4 {
		t.Fatalf("matched %d documents, want 4", len(matched))
	}
	for _, v := range []float64{6, 7, 8, 9} {
		if !matched[v] {
			t.Errorf("value %v should match", v)
		}
	}
}
