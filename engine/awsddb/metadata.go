/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package awsddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/engine"
)

type keyDefinition struct {
	Paths []string `json:"paths"`
	Kind  string   `json:"kind"`
}

type containerProperties struct {
	ID           string        `json:"id"`
	PartitionKey keyDefinition `json:"partitionKey"`
}

type databaseProperties struct {
	ID string `json:"id"`
}

// Databases

func (e *Engine) createDatabase(ctx context.Context, body []byte) (*engine.Response, error) {
	var props databaseProperties
	if err := json.Unmarshal(body, &props); err != nil || props.ID == "" {
		return problem(http.StatusBadRequest, "database id must not be empty"), nil
	}

	av, err := attributevalue.MarshalMap(record{PK: databasesKey, SK: props.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	_, err = e.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &e.table,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return problem(http.StatusConflict, fmt.Sprintf("database with id %q already exists", props.ID)), nil
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return jsonResponse(http.StatusCreated, props), nil
}

func (e *Engine) readDatabase(ctx context.Context, id string) (*engine.Response, error) {
	rec, err := e.getRow(ctx, databasesKey, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", id)), nil
	}
	return jsonResponse(http.StatusOK, databaseProperties{ID: id}), nil
}

// deleteDatabase removes the database's containers and documents before
// the database row itself. The final delete is conditional so a database
// removed concurrently still reports not found.
func (e *Engine) deleteDatabase(ctx context.Context, id string) (*engine.Response, error) {
	dbRow, err := e.getRow(ctx, databasesKey, id)
	if err != nil {
		return nil, err
	}
	if dbRow == nil {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", id)), nil
	}

	containers, err := e.queryRecords(ctx, containersKey(id))
	if err != nil {
		return nil, err
	}
	if err := e.batchDelete(ctx, containers); err != nil {
		return nil, err
	}
	if err := e.purgeDocuments(ctx, databaseScanPrefix(id)); err != nil {
		return nil, err
	}

	_, err = e.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:           &e.table,
		Key:                 record{PK: databasesKey, SK: id}.key(),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", id)), nil
		}
		return nil, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}

	e.forgetDatabase(id)
	return &engine.Response{StatusCode: http.StatusNoContent}, nil
}

func (e *Engine) listDatabases(ctx context.Context) (*engine.Response, error) {
	recs, err := e.queryRecords(ctx, databasesKey)
	if err != nil {
		return nil, err
	}

	body := engine.DatabasesBody{Databases: make([]json.RawMessage, 0, len(recs))}
	for _, rec := range recs {
		raw, err := json.Marshal(databaseProperties{ID: rec.SK})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal properties: %w", err)
		}
		body.Databases = append(body.Databases, raw)
	}
	body.Count = len(body.Databases)
	return jsonResponse(http.StatusOK, body), nil
}

// Containers

func (e *Engine) createContainer(ctx context.Context, db string, body []byte) (*engine.Response, error) {
	var props containerProperties
	if err := json.Unmarshal(body, &props); err != nil || props.ID == "" {
		return problem(http.StatusBadRequest, "container id must not be empty"), nil
	}
	if len(props.PartitionKey.Paths) == 0 {
		props.PartitionKey.Paths = []string{"/id"}
	}
	if props.PartitionKey.Kind == "" {
		props.PartitionKey.Kind = "Hash"
	}
	if props.PartitionKey.Kind != "Hash" {
		return problem(http.StatusBadRequest, fmt.Sprintf("unsupported partition key kind %q", props.PartitionKey.Kind)), nil
	}

	dbRow, err := e.getRow(ctx, databasesKey, db)
	if err != nil {
		return nil, err
	}
	if dbRow == nil {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", db)), nil
	}

	keyDef, err := json.Marshal(props.PartitionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key definition: %w", err)
	}
	av, err := attributevalue.MarshalMap(record{
		PK:     containersKey(db),
		SK:     props.ID,
		KeyDef: string(keyDef),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	_, err = e.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &e.table,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return problem(http.StatusConflict, fmt.Sprintf("container with id %q already exists", props.ID)), nil
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}

	e.remember(db, props.ID)
	return jsonResponse(http.StatusCreated, props), nil
}

func (e *Engine) readContainer(ctx context.Context, db, id string) (*engine.Response, error) {
	rec, resp, err := e.containerRow(ctx, db, id)
	if resp != nil || err != nil {
		return resp, err
	}

	var def keyDefinition
	if err := json.Unmarshal([]byte(rec.KeyDef), &def); err != nil {
		return nil, fmt.Errorf("stored key definition is not valid JSON: %w", err)
	}
	return jsonResponse(http.StatusOK, containerProperties{ID: id, PartitionKey: def}), nil
}

// deleteContainer purges the container's documents before removing its
// metadata row.
func (e *Engine) deleteContainer(ctx context.Context, db, id string) (*engine.Response, error) {
	_, resp, err := e.containerRow(ctx, db, id)
	if resp != nil || err != nil {
		return resp, err
	}

	if err := e.purgeDocuments(ctx, containerScanPrefix(db, id)); err != nil {
		return nil, err
	}
	_, err = e.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &e.table,
		Key:       record{PK: containersKey(db), SK: id}.key(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}

	e.forget(db, id)
	return &engine.Response{StatusCode: http.StatusNoContent}, nil
}

func (e *Engine) listContainers(ctx context.Context, db string) (*engine.Response, error) {
	dbRow, err := e.getRow(ctx, databasesKey, db)
	if err != nil {
		return nil, err
	}
	if dbRow == nil {
		return problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", db)), nil
	}

	recs, err := e.queryRecords(ctx, containersKey(db))
	if err != nil {
		return nil, err
	}

	body := engine.ContainersBody{Containers: make([]json.RawMessage, 0, len(recs))}
	for _, rec := range recs {
		var def keyDefinition
		if err := json.Unmarshal([]byte(rec.KeyDef), &def); err != nil {
			return nil, fmt.Errorf("stored key definition is not valid JSON: %w", err)
		}
		raw, err := json.Marshal(containerProperties{ID: rec.SK, PartitionKey: def})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal properties: %w", err)
		}
		body.Containers = append(body.Containers, raw)
	}
	body.Count = len(body.Containers)
	return jsonResponse(http.StatusOK, body), nil
}

// containerRow resolves a container's metadata row. The response is
// non-nil when the database or container is missing.
func (e *Engine) containerRow(ctx context.Context, db, id string) (*record, *engine.Response, error) {
	dbRow, err := e.getRow(ctx, databasesKey, db)
	if err != nil {
		return nil, nil, err
	}
	if dbRow == nil {
		return nil, problem(http.StatusNotFound, fmt.Sprintf("database with id %q does not exist", db)), nil
	}
	rec, err := e.getRow(ctx, containersKey(db), id)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, problem(http.StatusNotFound, fmt.Sprintf("container with id %q does not exist", id)), nil
	}
	return rec, nil, nil
}

// Container cache

func knownKey(db, coll string) string {
	return url.PathEscape(db) + "/" + url.PathEscape(coll)
}

// ensureContainer verifies the addressed container exists, consulting the
// cache of containers this engine has already seen.
func (e *Engine) ensureContainer(ctx context.Context, db, coll string) (*engine.Response, error) {
	key := knownKey(db, coll)
	e.mu.RLock()
	_, ok := e.known[key]
	e.mu.RUnlock()
	if ok {
		return nil, nil
	}

	if _, resp, err := e.containerRow(ctx, db, coll); resp != nil || err != nil {
		return resp, err
	}
	e.remember(db, coll)
	return nil, nil
}

func (e *Engine) remember(db, coll string) {
	e.mu.Lock()
	e.known[knownKey(db, coll)] = struct{}{}
	e.mu.Unlock()
}

func (e *Engine) forget(db, coll string) {
	e.mu.Lock()
	delete(e.known, knownKey(db, coll))
	e.mu.Unlock()
}

func (e *Engine) forgetDatabase(db string) {
	prefix := url.PathEscape(db) + "/"
	e.mu.Lock()
	for key := range e.known {
		if strings.HasPrefix(key, prefix) {
			delete(e.known, key)
		}
	}
	e.mu.Unlock()
}

// Row access

// getRow reads one row, or nil when it does not exist.
func (e *Engine) getRow(ctx context.Context, pk, sk string) (*record, error) {
	out, err := e.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &e.table,
		Key:       record{PK: pk, SK: sk}.key(),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	rec := new(record)
	if err := attributevalue.UnmarshalMap(out.Item, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return rec, nil
}
