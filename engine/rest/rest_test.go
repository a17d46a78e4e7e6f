/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/engine/memory"
	"github.com/suparena/docstore/engine/rest"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/server"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		key      string
	}{
		{name: "empty endpoint", endpoint: "", key: "k"},
		{name: "relative endpoint", endpoint: "/dbs", key: "k"},
		{name: "wrong scheme", endpoint: "ftp://host", key: "k"},
		{name: "missing key", endpoint: "http://host", key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := rest.New(tt.endpoint, tt.key); err == nil {
				t.Errorf("New(%q, %q) should fail", tt.endpoint, tt.key)
			}
		})
	}
}

func TestRequestSigning(t *testing.T) {
	var gotAuth, gotDate string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDate = r.Header.Get("x-ds-date")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Databases":[],"_count":0}`))
	}))
	defer ts.Close()

	e, err := rest.New(ts.URL, "secret", rest.WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := e.Do(context.Background(), &engine.Request{
		Method: http.MethodGet,
		Path:   engine.DatabasesPath(),
	}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if !strings.HasPrefix(gotAuth, "DS1-KeyAuth sig=") {
		t.Errorf("Authorization = %q, want DS1-KeyAuth scheme", gotAuth)
	}
	if gotDate == "" {
		t.Error("x-ds-date header missing")
	}
}

func TestExchangeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close() // connection refused from here on

	e, err := rest.New(url, "secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := e.Do(context.Background(), &engine.Request{
		Method: http.MethodGet,
		Path:   engine.DatabasesPath(),
	}); err == nil {
		t.Fatal("Do against a closed server should fail")
	}
}

// TestFullStackRoundtrip drives the whole stack: client core -> rest
// engine -> HTTP -> server handler -> in-memory engine.
func TestFullStackRoundtrip(t *testing.T) {
	ts := httptest.NewServer(server.New(memory.New()))
	defer ts.Close()

	e, err := rest.New(ts.URL, "secret", rest.WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	client := docstore.NewClientWithEngine(e)
	ctx := context.Background()

	db, err := client.CreateDatabase(ctx, "shop")
	if err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}
	orders, err := db.CreateContainer(ctx, docstore.ContainerProperties{
		ID:           "orders",
		PartitionKey: docstore.PartitionKeyDefinition{Paths: []string{"/category"}, Kind: "Hash"},
	})
	if err != nil {
		t.Fatalf("CreateContainer failed: %v", err)
	}

	created, err := orders.CreateItem(ctx, docstore.Document{
		"id": "1", "category": "book", "title": "Dune",
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if created.ETag() == "" {
		t.Error("created document missing _etag")
	}

	read, err := orders.ReadItem(ctx, "1", "book")
	if err != nil {
		t.Fatalf("ReadItem failed: %v", err)
	}
	if read["title"] != "Dune" {
		t.Errorf("title = %v, want Dune", read["title"])
	}

	// Error taxonomy must survive the HTTP hop
	if _, err := orders.ReadItem(ctx, "1", "films"); !errors.IsNotFound(err) {
		t.Errorf("read from wrong partition: err = %v, want NotFound", err)
	}
	if _, err := orders.CreateItem(ctx, docstore.Document{"id": "1", "category": "book"}); !errors.IsConflict(err) {
		t.Errorf("duplicate create: err = %v, want Conflict", err)
	}

	// Conditional replace through the wire
	if _, err := orders.ReplaceItem(ctx, "1", docstore.Document{
		"id": "1", "category": "book", "title": "Dune II",
	}, docstore.WithETag("stale")); !errors.IsPreconditionFailed(err) {
		t.Errorf("stale etag replace: err = %v, want PreconditionFailed", err)
	}

	docs, err := orders.QueryItems(ctx, "SELECT * FROM c WHERE c.category = 'book'")
	if err != nil {
		t.Fatalf("QueryItems failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("query returned %d documents, want 1", len(docs))
	}

	if err := orders.DeleteItem(ctx, "1", "book"); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if err := client.DeleteDatabase(ctx, "shop"); err != nil {
		t.Fatalf("DeleteDatabase failed: %v", err)
	}
}
