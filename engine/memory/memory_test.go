/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/suparena/docstore/engine"
)

func do(t *testing.T, e *Engine, method, path string, body []byte, headers map[string]string) *engine.Response {
	t.Helper()
	resp, err := e.Do(context.Background(), &engine.Request{
		Method:  method,
		Path:    path,
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		t.Fatalf("Do(%s %s) failed: %v", method, path, err)
	}
	return resp
}

// seed creates db "d" and container "c" partitioned on /category.
func seed(t *testing.T, e *Engine) {
	t.Helper()
	resp := do(t, e, http.MethodPost, "/dbs", []byte(`{"id":"d"}`), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create database status = %d", resp.StatusCode)
	}
	resp = do(t, e, http.MethodPost, "/dbs/d/colls",
		[]byte(`{"id":"c","partitionKey":{"paths":["/category"],"kind":"Hash"}}`), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create container status = %d", resp.StatusCode)
	}
}

func pkHeader(wire string) map[string]string {
	return map[string]string{engine.HeaderPartitionKey: wire}
}

func TestDatabaseLifecycle(t *testing.T) {
	e := New()

	t.Run("create and read", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, "/dbs", []byte(`{"id":"shop"}`), nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status = %d", resp.StatusCode)
		}
		resp = do(t, e, http.MethodGet, "/dbs/shop", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("read status = %d", resp.StatusCode)
		}
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, "/dbs", []byte(`{"id":"shop"}`), nil)
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("duplicate create status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("list", func(t *testing.T) {
		resp := do(t, e, http.MethodGet, "/dbs", nil, nil)
		var body engine.DatabasesBody
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			t.Fatalf("unmarshal list: %v", err)
		}
		if body.Count != 1 || len(body.Databases) != 1 {
			t.Fatalf("list count = %d, want 1", body.Count)
		}
	})

	t.Run("delete then read is 404", func(t *testing.T) {
		resp := do(t, e, http.MethodDelete, "/dbs/shop", nil, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete status = %d", resp.StatusCode)
		}
		resp = do(t, e, http.MethodGet, "/dbs/shop", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("read after delete status = %d, want 404", resp.StatusCode)
		}
		resp = do(t, e, http.MethodDelete, "/dbs/shop", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("double delete status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestContainerLifecycle(t *testing.T) {
	e := New()
	do(t, e, http.MethodPost, "/dbs", []byte(`{"id":"d"}`), nil)

	t.Run("create applies defaults", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, "/dbs/d/colls", []byte(`{"id":"plain"}`), nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status = %d", resp.StatusCode)
		}
		var props struct {
			ID           string `json:"id"`
			PartitionKey struct {
				Paths []string `json:"paths"`
				Kind  string   `json:"kind"`
			} `json:"partitionKey"`
		}
		if err := json.Unmarshal(resp.Body, &props); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(props.PartitionKey.Paths) != 1 || props.PartitionKey.Paths[0] != "/id" {
			t.Errorf("default paths = %v, want [/id]", props.PartitionKey.Paths)
		}
		if props.PartitionKey.Kind != "Hash" {
			t.Errorf("default kind = %q, want Hash", props.PartitionKey.Kind)
		}
	})

	t.Run("unsupported kind rejected", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, "/dbs/d/colls",
			[]byte(`{"id":"x","partitionKey":{"paths":["/id"],"kind":"Range"}}`), nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("duplicate conflicts", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, "/dbs/d/colls", []byte(`{"id":"plain"}`), nil)
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("container in missing database", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, "/dbs/nope/colls", []byte(`{"id":"x"}`), nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestDocumentWriteAndRead(t *testing.T) {
	e := New()
	seed(t, e)

	docs := "/dbs/d/colls/c/docs"

	t.Run("create stamps system properties", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, docs,
			[]byte(`{"id":"1","category":"book","title":"Dune"}`), pkHeader(`"book"`))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status = %d", resp.StatusCode)
		}
		var doc map[string]any
		if err := json.Unmarshal(resp.Body, &doc); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if doc["_etag"] == nil || doc["_ts"] == nil {
			t.Errorf("stored document missing system properties: %v", doc)
		}
		if resp.Header(engine.HeaderETag) == "" {
			t.Error("response missing ETag header")
		}
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, docs,
			[]byte(`{"id":"1","category":"book"}`), pkHeader(`"book"`))
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("same id in another partition is distinct", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, docs,
			[]byte(`{"id":"1","category":"music"}`), pkHeader(`"music"`))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
	})

	t.Run("read from wrong partition is 404", func(t *testing.T) {
		resp := do(t, e, http.MethodGet, docs+"/1", nil, pkHeader(`"films"`))
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("read returns the stored document", func(t *testing.T) {
		resp := do(t, e, http.MethodGet, docs+"/1", nil, pkHeader(`"book"`))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var doc map[string]any
		if err := json.Unmarshal(resp.Body, &doc); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if doc["title"] != "Dune" {
			t.Errorf("title = %v, want Dune", doc["title"])
		}
	})

	t.Run("upsert never conflicts", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, docs,
			[]byte(`{"id":"1","category":"book","title":"Dune II"}`),
			map[string]string{
				engine.HeaderPartitionKey: `"book"`,
				engine.HeaderIsUpsert:     "true",
			})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("upsert existing status = %d, want 200", resp.StatusCode)
		}
		resp = do(t, e, http.MethodPost, docs,
			[]byte(`{"id":"9","category":"book"}`),
			map[string]string{
				engine.HeaderPartitionKey: `"book"`,
				engine.HeaderIsUpsert:     "true",
			})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("upsert new status = %d, want 201", resp.StatusCode)
		}
	})

	t.Run("missing id rejected", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, docs, []byte(`{"category":"book"}`), pkHeader(`"book"`))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("missing partition key rejected", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, docs, []byte(`{"id":"z","category":"book"}`), nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("number and boolean keys route distinctly", func(t *testing.T) {
		resp := do(t, e, http.MethodPost, docs, []byte(`{"id":"n1","category":5}`), pkHeader("5"))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("number key create status = %d", resp.StatusCode)
		}
		resp = do(t, e, http.MethodPost, docs, []byte(`{"id":"b1","category":true}`), pkHeader("true"))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("boolean key create status = %d", resp.StatusCode)
		}
		// The string "5" is a different partition from the number 5
		resp = do(t, e, http.MethodGet, docs+"/n1", nil, pkHeader(`"5"`))
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("string-keyed read of number-keyed doc status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestReplaceDocument(t *testing.T) {
	e := New()
	seed(t, e)
	docs := "/dbs/d/colls/c/docs"

	do(t, e, http.MethodPost, docs, []byte(`{"id":"1","category":"book","v":1}`), pkHeader(`"book"`))

	t.Run("replace rewrites the document", func(t *testing.T) {
		resp := do(t, e, http.MethodPut, docs+"/1",
			[]byte(`{"id":"1","category":"book","v":2}`), pkHeader(`"book"`))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var doc map[string]any
		json.Unmarshal(resp.Body, &doc)
		if doc["v"] != float64(2) {
			t.Errorf("v = %v, want 2", doc["v"])
		}
	})

	t.Run("replace absent is 404", func(t *testing.T) {
		resp := do(t, e, http.MethodPut, docs+"/missing",
			[]byte(`{"id":"missing","category":"book"}`), pkHeader(`"book"`))
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("id mismatch rejected", func(t *testing.T) {
		resp := do(t, e, http.MethodPut, docs+"/1",
			[]byte(`{"id":"other","category":"book"}`), pkHeader(`"book"`))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("stale etag is 412, fresh etag wins", func(t *testing.T) {
		read := do(t, e, http.MethodGet, docs+"/1", nil, pkHeader(`"book"`))
		var doc map[string]any
		json.Unmarshal(read.Body, &doc)
		etag := doc["_etag"].(string)

		headers := map[string]string{
			engine.HeaderPartitionKey: `"book"`,
			engine.HeaderIfMatch:      "stale-etag",
		}
		resp := do(t, e, http.MethodPut, docs+"/1",
			[]byte(`{"id":"1","category":"book","v":3}`), headers)
		if resp.StatusCode != http.StatusPreconditionFailed {
			t.Fatalf("stale etag status = %d, want 412", resp.StatusCode)
		}

		headers[engine.HeaderIfMatch] = etag
		resp = do(t, e, http.MethodPut, docs+"/1",
			[]byte(`{"id":"1","category":"book","v":3}`), headers)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("fresh etag status = %d, want 200", resp.StatusCode)
		}

		// The winning replace rotated the etag
		var after map[string]any
		json.Unmarshal(resp.Body, &after)
		if after["_etag"] == etag {
			t.Error("etag should change on every write")
		}
	})
}

func TestPatchDocument(t *testing.T) {
	e := New()
	seed(t, e)
	docs := "/dbs/d/colls/c/docs"

	do(t, e, http.MethodPost, docs,
		[]byte(`{"id":"1","category":"book","quantity":3}`), pkHeader(`"book"`))

	t.Run("operations apply in order", func(t *testing.T) {
		body := []byte(`{"operations":[
			{"op":"set","path":"/status","value":"packed"},
			{"op":"incr","path":"/quantity","value":2}
		]}`)
		resp := do(t, e, http.MethodPatch, docs+"/1", body, pkHeader(`"book"`))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, resp.Body)
		}
		var doc map[string]any
		json.Unmarshal(resp.Body, &doc)
		if doc["status"] != "packed" || doc["quantity"] != float64(5) {
			t.Errorf("patched doc = %v", doc)
		}
	})

	t.Run("failing operation leaves document untouched", func(t *testing.T) {
		body := []byte(`{"operations":[
			{"op":"set","path":"/status","value":"shipped"},
			{"op":"remove","path":"/missing"}
		]}`)
		resp := do(t, e, http.MethodPatch, docs+"/1", body, pkHeader(`"book"`))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}

		read := do(t, e, http.MethodGet, docs+"/1", nil, pkHeader(`"book"`))
		var doc map[string]any
		json.Unmarshal(read.Body, &doc)
		if doc["status"] != "packed" {
			t.Errorf("status = %v, want packed (patch must be atomic)", doc["status"])
		}
	})

	t.Run("patch absent is 404", func(t *testing.T) {
		body := []byte(`{"operations":[{"op":"set","path":"/x","value":1}]}`)
		resp := do(t, e, http.MethodPatch, docs+"/nope", body, pkHeader(`"book"`))
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("empty operation list rejected", func(t *testing.T) {
		resp := do(t, e, http.MethodPatch, docs+"/1", []byte(`{"operations":[]}`), pkHeader(`"book"`))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestQueryDocuments(t *testing.T) {
	e := New()
	seed(t, e)
	docs := "/dbs/d/colls/c/docs"

	for i := 0; i < 10; i++ {
		category := "even"
		if i%2 == 1 {
			category = "odd"
		}
		body := []byte(fmt.Sprintf(`{"id":"doc-%d","category":%q,"value":%d}`, i, category, i))
		resp := do(t, e, http.MethodPost, docs, body, pkHeader(fmt.Sprintf("%q", category)))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed create status = %d", resp.StatusCode)
		}
	}

	runQuery := func(t *testing.T, q string, headers map[string]string) engine.DocumentsBody {
		t.Helper()
		body, _ := json.Marshal(engine.QueryBody{Query: q})
		if headers == nil {
			headers = map[string]string{}
		}
		headers[engine.HeaderIsQuery] = "true"
		headers[engine.HeaderContentType] = engine.ContentTypeQuery
		resp := do(t, e, http.MethodPost, docs, body, headers)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("query status = %d: %s", resp.StatusCode, resp.Body)
		}
		var result engine.DocumentsBody
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			t.Fatalf("unmarshal result: %v", err)
		}
		return result
	}

	t.Run("fan-out range filter", func(t *testing.T) {
		result := runQuery(t, "SELECT * FROM c WHERE c.value > 5", nil)
		values := make(map[float64]bool)
		for _, raw := range result.Documents {
			var doc map[string]any
			json.Unmarshal(raw, &doc)
			values[doc["value"].(float64)] = true
		}
		if len(values) != 4 {
			t.Fatalf("matched %d values, want 4", len(values))
		}
		for _, v := range []float64{6, 7, 8, 9} {
			if !values[v] {
				t.Errorf("value %v missing from result", v)
			}
		}
	})

	t.Run("partition-scoped query", func(t *testing.T) {
		result := runQuery(t, "SELECT * FROM c", pkHeader(`"even"`))
		if result.Count != 5 {
			t.Fatalf("scoped count = %d, want 5", result.Count)
		}
	})

	t.Run("scoped to absent partition is empty", func(t *testing.T) {
		result := runQuery(t, "SELECT * FROM c", pkHeader(`"nope"`))
		if result.Count != 0 {
			t.Fatalf("count = %d, want 0", result.Count)
		}
	})

	t.Run("invalid query text is 400", func(t *testing.T) {
		body, _ := json.Marshal(engine.QueryBody{Query: "DROP TABLE c"})
		resp := do(t, e, http.MethodPost, docs, body, map[string]string{
			engine.HeaderIsQuery: "true",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestDeleteCleansUp(t *testing.T) {
	e := New()
	seed(t, e)
	docs := "/dbs/d/colls/c/docs"

	do(t, e, http.MethodPost, docs, []byte(`{"id":"1","category":"book"}`), pkHeader(`"book"`))

	// Recreating a deleted container must not resurrect its documents
	do(t, e, http.MethodDelete, "/dbs/d/colls/c", nil, nil)
	do(t, e, http.MethodPost, "/dbs/d/colls",
		[]byte(`{"id":"c","partitionKey":{"paths":["/category"],"kind":"Hash"}}`), nil)

	resp := do(t, e, http.MethodGet, docs+"/1", nil, pkHeader(`"book"`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("document survived container recreation: status = %d", resp.StatusCode)
	}
}

func TestContextCancellation(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Do(ctx, &engine.Request{Method: http.MethodGet, Path: "/dbs"})
	if err == nil {
		t.Fatal("Do with cancelled context should fail")
	}
}

func TestConcurrentWrites(t *testing.T) {
	e := New()
	seed(t, e)
	docs := "/dbs/d/colls/c/docs"

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := []byte(fmt.Sprintf(`{"id":"doc-%d","category":"x"}`, i))
			resp, err := e.Do(context.Background(), &engine.Request{
				Method:  http.MethodPost,
				Path:    docs,
				Body:    body,
				Headers: pkHeader(`"x"`),
			})
			if err != nil {
				t.Errorf("concurrent create %d: %v", i, err)
				return
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("concurrent create %d status = %d", i, resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()

	body, _ := json.Marshal(engine.QueryBody{Query: "SELECT * FROM c"})
	resp := do(t, e, http.MethodPost, docs, body, map[string]string{engine.HeaderIsQuery: "true"})
	var result engine.DocumentsBody
	json.Unmarshal(resp.Body, &result)
	if result.Count != 20 {
		t.Fatalf("count after concurrent writes = %d, want 20", result.Count)
	}
}
