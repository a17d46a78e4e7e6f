/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package patch

import (
	"reflect"
	"testing"
)

func baseDoc() map[string]any {
	return map[string]any{
		"id":       "order-1",
		"quantity": float64(3),
		"status":   "open",
		"address": map[string]any{
			"zip": "90210",
		},
	}
}

func TestApplyOperations(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
		want map[string]any
	}{
		{
			name: "add new field",
			ops:  []Operation{{Op: OpAdd, Path: "/priority", Value: float64(1)}},
			want: map[string]any{
				"id": "order-1", "quantity": float64(3), "status": "open",
				"address":  map[string]any{"zip": "90210"},
				"priority": float64(1),
			},
		},
		{
			name: "set existing field",
			ops:  []Operation{{Op: OpSet, Path: "/status", Value: "closed"}},
			want: map[string]any{
				"id": "order-1", "quantity": float64(3), "status": "closed",
				"address": map[string]any{"zip": "90210"},
			},
		},
		{
			name: "set nested creates intermediates",
			ops:  []Operation{{Op: OpSet, Path: "/shipping/carrier", Value: "dhl"}},
			want: map[string]any{
				"id": "order-1", "quantity": float64(3), "status": "open",
				"address":  map[string]any{"zip": "90210"},
				"shipping": map[string]any{"carrier": "dhl"},
			},
		},
		{
			name: "replace existing",
			ops:  []Operation{{Op: OpReplace, Path: "/address/zip", Value: "10001"}},
			want: map[string]any{
				"id": "order-1", "quantity": float64(3), "status": "open",
				"address": map[string]any{"zip": "10001"},
			},
		},
		{
			name: "remove field",
			ops:  []Operation{{Op: OpRemove, Path: "/status"}},
			want: map[string]any{
				"id": "order-1", "quantity": float64(3),
				"address": map[string]any{"zip": "90210"},
			},
		},
		{
			name: "increment existing",
			ops:  []Operation{{Op: OpIncrement, Path: "/quantity", Value: float64(2)}},
			want: map[string]any{
				"id": "order-1", "quantity": float64(5), "status": "open",
				"address": map[string]any{"zip": "90210"},
			},
		},
		{
			name: "increment absent creates field",
			ops:  []Operation{{Op: OpIncrement, Path: "/retries", Value: float64(1)}},
			want: map[string]any{
				"id": "order-1", "quantity": float64(3), "status": "open",
				"address": map[string]any{"zip": "90210"},
				"retries": float64(1),
			},
		},
		{
			name: "operations apply in order",
			ops: []Operation{
				{Op: OpSet, Path: "/status", Value: "packing"},
				{Op: OpReplace, Path: "/status", Value: "shipped"},
				{Op: OpIncrement, Path: "/quantity", Value: float64(-1)},
			},
			want: map[string]any{
				"id": "order-1", "quantity": float64(2), "status": "shipped",
				"address": map[string]any{"zip": "90210"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(baseDoc(), tt.ops)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
	}{
		{name: "empty list", ops: nil},
		{name: "unknown op", ops: []Operation{{Op: "merge", Path: "/x", Value: 1}}},
		{name: "empty path", ops: []Operation{{Op: OpSet, Path: "", Value: 1}}},
		{name: "replace missing", ops: []Operation{{Op: OpReplace, Path: "/missing", Value: 1}}},
		{name: "remove missing", ops: []Operation{{Op: OpRemove, Path: "/missing"}}},
		{name: "remove under missing parent", ops: []Operation{{Op: OpRemove, Path: "/nope/zip"}}},
		{name: "increment non-number value", ops: []Operation{{Op: OpIncrement, Path: "/quantity", Value: "2"}}},
		{name: "increment non-number field", ops: []Operation{{Op: OpIncrement, Path: "/status", Value: float64(1)}}},
		{name: "traverse scalar", ops: []Operation{{Op: OpSet, Path: "/status/inner", Value: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Apply(baseDoc(), tt.ops); err == nil {
				t.Errorf("Apply should fail")
			}
		})
	}
}

func TestAtomicity(t *testing.T) {
	doc := baseDoc()
	ops := []Operation{
		{Op: OpSet, Path: "/status", Value: "closed"},
		{Op: OpReplace, Path: "/missing", Value: 1},
	}

	if _, err := Apply(doc, ops); err == nil {
		t.Fatal("Apply should fail on the second operation")
	}

	// A failing list must leave the input untouched
	if doc["status"] != "open" {
		t.Errorf("input document was modified: status = %v", doc["status"])
	}
}

func TestInputNeverModified(t *testing.T) {
	doc := baseDoc()
	patched, err := Apply(doc, []Operation{
		{Op: OpSet, Path: "/address/zip", Value: "10001"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if doc["address"].(map[string]any)["zip"] != "90210" {
		t.Error("nested map of the input document was modified")
	}
	if patched["address"].(map[string]any)["zip"] != "10001" {
		t.Error("patched copy missing the update")
	}
}
