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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/internal/patch"
)

// patchAttempts bounds the read-modify-write loop a patch runs when it
// loses a race with a concurrent writer.
const patchAttempts = 3

func (e *Engine) writeDocument(ctx context.Context, db, coll string, req *engine.Request) (*engine.Response, error) {
	doc, resp := decodeDocument(req.Body)
	if resp != nil {
		return resp, nil
	}
	id, resp := documentID(doc)
	if resp != nil {
		return resp, nil
	}
	scalar, resp := partitionScalarOf(req)
	if resp != nil {
		return resp, nil
	}
	if resp, err := e.ensureContainer(ctx, db, coll); resp != nil || err != nil {
		return resp, err
	}

	stamp(doc)
	rec, resp := documentRecord(documentKey(db, coll, scalar), id, doc)
	if resp != nil {
		return resp, nil
	}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	input := &sdk.PutItemInput{
		TableName: &e.table,
		Item:      av,
	}
	if req.Header(engine.HeaderIsUpsert) == "true" {
		input.ReturnValues = types.ReturnValueAllOld
		out, err := e.client.PutItem(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("PutItem failed: %w", err)
		}
		status := http.StatusCreated
		if len(out.Attributes) > 0 {
			status = http.StatusOK
		}
		return documentResponse(status, doc), nil
	}

	input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	_, err = e.client.PutItem(ctx, input)
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return problem(http.StatusConflict, fmt.Sprintf("document with id %q already exists", id)), nil
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return documentResponse(http.StatusCreated, doc), nil
}

func (e *Engine) readDocument(ctx context.Context, db, coll, id string, req *engine.Request) (*engine.Response, error) {
	scalar, resp := partitionScalarOf(req)
	if resp != nil {
		return resp, nil
	}
	if resp, err := e.ensureContainer(ctx, db, coll); resp != nil || err != nil {
		return resp, err
	}

	rec, err := e.getRow(ctx, documentKey(db, coll, scalar), id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return problem(http.StatusNotFound, fmt.Sprintf("document with id %q does not exist", id)), nil
	}
	doc, err := rec.body()
	if err != nil {
		return nil, fmt.Errorf("stored document is not valid JSON: %w", err)
	}
	return documentResponse(http.StatusOK, doc), nil
}

// replaceDocument swaps the stored document in one conditional write. On a
// failed condition the returned old values separate a missing document
// from a stale etag.
func (e *Engine) replaceDocument(ctx context.Context, db, coll, id string, req *engine.Request) (*engine.Response, error) {
	doc, resp := decodeDocument(req.Body)
	if resp != nil {
		return resp, nil
	}
	bodyID, resp := documentID(doc)
	if resp != nil {
		return resp, nil
	}
	if bodyID != id {
		return problem(http.StatusBadRequest, "document id does not match the request path"), nil
	}
	scalar, resp := partitionScalarOf(req)
	if resp != nil {
		return resp, nil
	}
	if resp, err := e.ensureContainer(ctx, db, coll); resp != nil || err != nil {
		return resp, err
	}

	stamp(doc)
	rec, resp := documentRecord(documentKey(db, coll, scalar), id, doc)
	if resp != nil {
		return resp, nil
	}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	cond, exprVals := existsCondition(req.Header(engine.HeaderIfMatch))
	_, err = e.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                           &e.table,
		Item:                                av,
		ConditionExpression:                 &cond,
		ExpressionAttributeValues:           exprVals,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if resp := conditionOutcome(err, id); resp != nil {
			return resp, nil
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return documentResponse(http.StatusOK, doc), nil
}

// patchDocument runs a read-modify-write loop: read the current document,
// apply the operations, and write back conditioned on the etag read. A
// caller-supplied If-Match turns a lost race into a failed precondition
// instead of a retry.
func (e *Engine) patchDocument(ctx context.Context, db, coll, id string, req *engine.Request) (*engine.Response, error) {
	var body struct {
		Operations []patch.Operation `json:"operations"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return problem(http.StatusBadRequest, "Invalid JSON"), nil
	}
	scalar, resp := partitionScalarOf(req)
	if resp != nil {
		return resp, nil
	}
	if resp, err := e.ensureContainer(ctx, db, coll); resp != nil || err != nil {
		return resp, err
	}

	pk := documentKey(db, coll, scalar)
	ifMatch := req.Header(engine.HeaderIfMatch)

	for attempt := 0; ; attempt++ {
		rec, err := e.getRow(ctx, pk, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return problem(http.StatusNotFound, fmt.Sprintf("document with id %q does not exist", id)), nil
		}
		if ifMatch != "" && rec.ETag != ifMatch {
			return problem(http.StatusPreconditionFailed, "the etag given does not match the current document"), nil
		}
		current, err := rec.body()
		if err != nil {
			return nil, fmt.Errorf("stored document is not valid JSON: %w", err)
		}

		patched, err := patch.Apply(current, body.Operations)
		if err != nil {
			return problem(http.StatusBadRequest, err.Error()), nil
		}
		stamp(patched)
		next, resp := documentRecord(pk, id, patched)
		if resp != nil {
			return resp, nil
		}
		av, err := attributevalue.MarshalMap(next)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record: %w", err)
		}

		_, err = e.client.PutItem(ctx, &sdk.PutItemInput{
			TableName:           &e.table,
			Item:                av,
			ConditionExpression: aws.String("attribute_exists(PK) AND ETag = :etag"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":etag": &types.AttributeValueMemberS{Value: rec.ETag},
			},
		})
		if err == nil {
			return documentResponse(http.StatusOK, patched), nil
		}
		var cfe *types.ConditionalCheckFailedException
		if !errors.As(err, &cfe) {
			return nil, fmt.Errorf("PutItem failed: %w", err)
		}
		if ifMatch != "" || attempt == patchAttempts-1 {
			return problem(http.StatusPreconditionFailed, "the etag given does not match the current document"), nil
		}
	}
}

func (e *Engine) deleteDocument(ctx context.Context, db, coll, id string, req *engine.Request) (*engine.Response, error) {
	scalar, resp := partitionScalarOf(req)
	if resp != nil {
		return resp, nil
	}
	if resp, err := e.ensureContainer(ctx, db, coll); resp != nil || err != nil {
		return resp, err
	}

	cond, exprVals := existsCondition(req.Header(engine.HeaderIfMatch))
	_, err := e.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                           &e.table,
		Key:                                 record{PK: documentKey(db, coll, scalar), SK: id}.key(),
		ConditionExpression:                 &cond,
		ExpressionAttributeValues:           exprVals,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if resp := conditionOutcome(err, id); resp != nil {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return &engine.Response{StatusCode: http.StatusNoContent}, nil
}

// existsCondition builds the condition expression guarding replace and
// delete: the document must exist, and must carry the given etag when one
// is supplied.
func existsCondition(ifMatch string) (string, map[string]types.AttributeValue) {
	cond := "attribute_exists(PK)"
	if ifMatch == "" {
		return cond, nil
	}
	return cond + " AND ETag = :etag", map[string]types.AttributeValue{
		":etag": &types.AttributeValueMemberS{Value: ifMatch},
	}
}

// conditionOutcome maps a failed exists condition to its store outcome. A
// condition that failed against no old values means the document was
// missing; old values mean it exists with a different etag.
func conditionOutcome(err error, id string) *engine.Response {
	var cfe *types.ConditionalCheckFailedException
	if !errors.As(err, &cfe) {
		return nil
	}
	if len(cfe.Item) == 0 {
		return problem(http.StatusNotFound, fmt.Sprintf("document with id %q does not exist", id))
	}
	return problem(http.StatusPreconditionFailed, "the etag given does not match the current document")
}
