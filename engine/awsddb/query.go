/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package awsddb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/internal/query"
)

// maxBatchKeys is the DynamoDB limit on keys per batch write.
const maxBatchKeys = 25

// queryDocuments evaluates the filter over one partition when the key
// header is present, or over every partition of the container otherwise.
func (e *Engine) queryDocuments(ctx context.Context, db, coll string, req *engine.Request) (*engine.Response, error) {
	var body engine.QueryBody
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return problem(http.StatusBadRequest, "Invalid JSON"), nil
	}
	q, err := query.Parse(body.Query)
	if err != nil {
		return problem(http.StatusBadRequest, err.Error()), nil
	}
	if resp, err := e.ensureContainer(ctx, db, coll); resp != nil || err != nil {
		return resp, err
	}

	var recs []record
	if wire := req.Header(engine.HeaderPartitionKey); wire != "" {
		scalar, resp := encodeWire(wire)
		if resp != nil {
			return resp, nil
		}
		recs, err = e.queryRecords(ctx, documentKey(db, coll, scalar))
	} else {
		recs, err = e.scanRecords(ctx, containerScanPrefix(db, coll))
	}
	if err != nil {
		return nil, err
	}

	result := engine.DocumentsBody{Documents: make([]json.RawMessage, 0, len(recs))}
	for _, rec := range recs {
		doc, err := rec.body()
		if err != nil {
			return nil, fmt.Errorf("stored document is not valid JSON: %w", err)
		}
		if !q.Matches(doc) {
			continue
		}
		result.Documents = append(result.Documents, json.RawMessage(rec.Doc))
	}
	result.Count = len(result.Documents)
	return jsonResponse(http.StatusOK, result), nil
}

// queryRecords pulls every row in one table partition.
func (e *Engine) queryRecords(ctx context.Context, pk string) ([]record, error) {
	input := &sdk.QueryInput{
		TableName:              &e.table,
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	}

	var recs []record
	for {
		out, err := e.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		recs, err = appendRecords(recs, out.Items)
		if err != nil {
			return nil, err
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return recs, nil
}

// scanRecords fans out over parallel scan segments to pull every row whose
// partition key starts with prefix.
func (e *Engine) scanRecords(ctx context.Context, prefix string) ([]record, error) {
	collected := make([][]record, e.segments)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.segments; i++ {
		i := i
		g.Go(func() error {
			recs, err := e.scanSegment(ctx, prefix, i)
			if err != nil {
				return err
			}
			collected[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var recs []record
	for _, part := range collected {
		recs = append(recs, part...)
	}
	return recs, nil
}

func (e *Engine) scanSegment(ctx context.Context, prefix string, segment int) ([]record, error) {
	input := &sdk.ScanInput{
		TableName:        &e.table,
		FilterExpression: aws.String("begins_with(PK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
		Segment:       aws.Int32(int32(segment)),
		TotalSegments: aws.Int32(int32(e.segments)),
	}

	var recs []record
	for {
		out, err := e.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		recs, err = appendRecords(recs, out.Items)
		if err != nil {
			return nil, err
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return recs, nil
}

func appendRecords(recs []record, items []map[string]types.AttributeValue) ([]record, error) {
	for _, item := range items {
		var rec record
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// purgeDocuments removes every document row whose partition key starts
// with prefix.
func (e *Engine) purgeDocuments(ctx context.Context, prefix string) error {
	recs, err := e.scanRecords(ctx, prefix)
	if err != nil {
		return err
	}
	return e.batchDelete(ctx, recs)
}

// batchDelete removes the given rows in batches, re-driving any keys the
// table reports unprocessed.
func (e *Engine) batchDelete(ctx context.Context, recs []record) error {
	for start := 0; start < len(recs); start += maxBatchKeys {
		end := min(start+maxBatchKeys, len(recs))
		writes := make([]types.WriteRequest, 0, end-start)
		for _, rec := range recs[start:end] {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: rec.key()},
			})
		}

		pending := map[string][]types.WriteRequest{e.table: writes}
		for len(pending) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := e.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return fmt.Errorf("BatchWriteItem failed: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}
