/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package awsddb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/docstore/engine"
	dserrors "github.com/suparena/docstore/errors"
)

// defaultScanSegments is the fan-out width for cross-partition scans.
const defaultScanSegments = 4

// Config carries the settings needed to reach a DynamoDB table.
type Config struct {
	// Table is the DynamoDB table backing the store. Required.
	Table string

	// AccessKey and SecretKey select static credentials. Leave both empty
	// to use the default AWS credential chain.
	AccessKey string
	SecretKey string

	// Region sets the AWS region.
	Region string

	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// Engine stores databases, containers, and documents in a single DynamoDB
// table. Metadata rows index the databases and containers; each document
// row keys on its partition value and document id, so same-partition
// operations are single-item reads and writes. An Engine is safe for
// concurrent use.
type Engine struct {
	client   *sdk.Client
	table    string
	segments int
	logger   *zap.Logger

	// containers this engine has already verified to exist
	mu    sync.RWMutex
	known map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger; every handled request is logged at debug
// level, failed exchanges at error level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClient supplies a pre-built DynamoDB client instead of loading AWS
// configuration.
func WithClient(c *sdk.Client) Option {
	return func(e *Engine) {
		e.client = c
	}
}

// WithScanSegments sets how many parallel segments cross-partition scans
// use.
func WithScanSegments(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.segments = n
		}
	}
}

// New creates an engine backed by the configured DynamoDB table.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("table name is required")
	}

	e := &Engine{
		table:    cfg.Table,
		segments: defaultScanSegments,
		logger:   zap.NewNop(),
		known:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		awsCfg, err := loadConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		e.client = sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}
	return e, nil
}

// NewFromEnv creates an engine from the AWS_DDB_TABLE, AWS_ACCESS_KEY,
// AWS_SECRET_KEY, AWS_REGION, and AWS_DDB_ENDPOINT environment variables.
// When no static credentials are set the default AWS credential chain
// applies.
func NewFromEnv(opts ...Option) (*Engine, error) {
	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		return nil, fmt.Errorf("AWS_DDB_TABLE is not set")
	}
	return New(Config{
		Table:     table,
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	}, opts...)
}

func loadConfig(cfg Config) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	return config.LoadDefaultConfig(context.TODO(), loadOpts...)
}

// Do routes one wire request to the DynamoDB table. The error return is
// reserved for AWS exchanges failing; store outcomes, including not-found
// and conflict conditions, arrive as response status codes.
func (e *Engine) Do(ctx context.Context, req *engine.Request) (*engine.Response, error) {
	segs, err := splitPath(req.Path)
	if err != nil {
		return e.logged(req, problem(http.StatusBadRequest, err.Error())), nil
	}

	resp, err := e.route(ctx, req, segs)
	if err != nil {
		e.logger.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return nil, err
	}
	return e.logged(req, resp), nil
}

func (e *Engine) logged(req *engine.Request, resp *engine.Response) *engine.Response {
	e.logger.Debug("handled request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
	)
	return resp
}

func (e *Engine) route(ctx context.Context, req *engine.Request, segs []string) (*engine.Response, error) {
	switch {
	case len(segs) == 1 && segs[0] == "dbs":
		switch req.Method {
		case http.MethodGet:
			return e.listDatabases(ctx)
		case http.MethodPost:
			return e.createDatabase(ctx, req.Body)
		}
	case len(segs) == 2 && segs[0] == "dbs":
		switch req.Method {
		case http.MethodGet:
			return e.readDatabase(ctx, segs[1])
		case http.MethodDelete:
			return e.deleteDatabase(ctx, segs[1])
		}
	case len(segs) == 3 && segs[0] == "dbs" && segs[2] == "colls":
		switch req.Method {
		case http.MethodGet:
			return e.listContainers(ctx, segs[1])
		case http.MethodPost:
			return e.createContainer(ctx, segs[1], req.Body)
		}
	case len(segs) == 4 && segs[0] == "dbs" && segs[2] == "colls":
		switch req.Method {
		case http.MethodGet:
			return e.readContainer(ctx, segs[1], segs[3])
		case http.MethodDelete:
			return e.deleteContainer(ctx, segs[1], segs[3])
		}
	case len(segs) == 5 && segs[0] == "dbs" && segs[2] == "colls" && segs[4] == "docs":
		if req.Method == http.MethodPost {
			if req.Header(engine.HeaderIsQuery) == "true" {
				return e.queryDocuments(ctx, segs[1], segs[3], req)
			}
			return e.writeDocument(ctx, segs[1], segs[3], req)
		}
	case len(segs) == 6 && segs[0] == "dbs" && segs[2] == "colls" && segs[4] == "docs":
		switch req.Method {
		case http.MethodGet:
			return e.readDocument(ctx, segs[1], segs[3], segs[5], req)
		case http.MethodPut:
			return e.replaceDocument(ctx, segs[1], segs[3], segs[5], req)
		case http.MethodPatch:
			return e.patchDocument(ctx, segs[1], segs[3], segs[5], req)
		case http.MethodDelete:
			return e.deleteDocument(ctx, segs[1], segs[3], segs[5], req)
		}
	default:
		return problem(http.StatusBadRequest, fmt.Sprintf("unsupported resource path %q", req.Path)), nil
	}
	return problem(http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed here", req.Method)), nil
}

// Helpers

func splitPath(path string) ([]string, error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("unsupported resource path %q", path)
	}
	parts := strings.Split(trimmed, "/")
	segs := make([]string, 0, len(parts))
	for _, part := range parts {
		seg, err := url.PathUnescape(part)
		if err != nil || seg == "" {
			return nil, fmt.Errorf("unsupported resource path %q", path)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func decodeDocument(body []byte) (map[string]any, *engine.Response) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, problem(http.StatusBadRequest, "Invalid JSON")
	}
	return doc, nil
}

func documentID(doc map[string]any) (string, *engine.Response) {
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return "", problem(http.StatusBadRequest, "document is missing the required id field")
	}
	return id, nil
}

// partitionScalarOf reads the partition key header and returns the typed
// key segment addressing the document's partition.
func partitionScalarOf(req *engine.Request) (string, *engine.Response) {
	wire := req.Header(engine.HeaderPartitionKey)
	if wire == "" {
		return "", problem(http.StatusBadRequest, "Partition key must be provided")
	}
	return encodeWire(wire)
}

// encodeWire converts the JSON encoding of a partition key scalar into the
// key segment form.
func encodeWire(wire string) (string, *engine.Response) {
	var v any
	if err := json.Unmarshal([]byte(wire), &v); err != nil {
		return "", problem(http.StatusBadRequest, "malformed partition key")
	}
	scalar, ok := encodeScalar(v)
	if !ok {
		return "", problem(http.StatusBadRequest, "partition key must be a string, number, or boolean")
	}
	return scalar, nil
}

// stamp refreshes the document's system properties on every write.
func stamp(doc map[string]any) {
	doc["_etag"] = uuid.NewString()
	doc["_ts"] = float64(time.Now().Unix())
}

func documentResponse(status int, doc map[string]any) *engine.Response {
	resp := jsonResponse(status, doc)
	if etag, ok := doc["_etag"].(string); ok {
		resp.Headers = map[string]string{engine.HeaderETag: etag}
	}
	return resp
}

func jsonResponse(status int, v any) *engine.Response {
	body, err := json.Marshal(v)
	if err != nil {
		return problem(http.StatusInternalServerError, err.Error())
	}
	return &engine.Response{StatusCode: status, Body: body}
}

func problem(status int, message string) *engine.Response {
	body, _ := json.Marshal(dserrors.NewProblem(status, message))
	return &engine.Response{StatusCode: status, Body: body}
}
