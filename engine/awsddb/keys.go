/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package awsddb

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/engine"
)

// Single-table key layout. Database and container ids are escaped so they
// cannot collide with the separator.
//
//	PK "META#DBS"                   SK <database id>
//	PK "META#DB#<db>"               SK <container id>   KeyDef
//	PK "DOC#<db>#<coll>#<scalar>"   SK <document id>    Doc ETag Ts
const (
	databasesKey   = "META#DBS"
	databasePrefix = "META#DB#"
	documentPrefix = "DOC#"
)

// containersKey is the partition holding a database's container rows.
func containersKey(db string) string {
	return databasePrefix + url.PathEscape(db)
}

// documentKey is the partition holding one logical partition's documents.
func documentKey(db, coll, scalar string) string {
	return containerScanPrefix(db, coll) + scalar
}

// containerScanPrefix matches every document row in a container.
func containerScanPrefix(db, coll string) string {
	return databaseScanPrefix(db) + url.PathEscape(coll) + "#"
}

// databaseScanPrefix matches every document row in a database.
func databaseScanPrefix(db string) string {
	return documentPrefix + url.PathEscape(db) + "#"
}

// encodeScalar maps a partition key scalar to a typed key segment. The
// type tag keeps the string "5" and the number 5 in distinct partitions;
// the canonical float form gives 5 and 5.0 the same one.
func encodeScalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return "s:" + url.PathEscape(t), true
	case float64:
		return "n:" + strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		return "b:" + strconv.FormatBool(t), true
	}
	return "", false
}

// record is the single-table row shape. Metadata rows carry KeyDef;
// document rows carry Doc plus ETag and Ts lifted out of the body so
// condition expressions can reach them.
type record struct {
	PK     string  `dynamodbav:"PK"`
	SK     string  `dynamodbav:"SK"`
	KeyDef string  `dynamodbav:"KeyDef,omitempty"`
	Doc    string  `dynamodbav:"Doc,omitempty"`
	ETag   string  `dynamodbav:"ETag,omitempty"`
	Ts     float64 `dynamodbav:"Ts,omitempty"`
}

func (r record) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: r.PK},
		"SK": &types.AttributeValueMemberS{Value: r.SK},
	}
}

// documentRecord builds the row for a stamped document.
func documentRecord(pk, id string, doc map[string]any) (record, *engine.Response) {
	body, err := json.Marshal(doc)
	if err != nil {
		return record{}, problem(http.StatusInternalServerError, err.Error())
	}
	etag, _ := doc["_etag"].(string)
	ts, _ := doc["_ts"].(float64)
	return record{PK: pk, SK: id, Doc: string(body), ETag: etag, Ts: ts}, nil
}

// body decodes the stored document.
func (r record) body() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(r.Doc), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
