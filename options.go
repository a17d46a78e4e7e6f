/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

// ItemOption adjusts a single document operation.
type ItemOption func(*itemOptions)

type itemOptions struct {
	partitionKey    any
	hasPartitionKey bool
	etag            string
}

func newItemOptions(opts []ItemOption) *itemOptions {
	o := &itemOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPartitionKey supplies the operation's partition key explicitly. On
// writes it takes precedence over any value extracted from the document,
// and it is the only way to route a RawDocument. On queries it scopes
// execution to a single partition; without it the store fans the query out
// across partitions.
func WithPartitionKey(v any) ItemOption {
	return func(o *itemOptions) {
		o.partitionKey = v
		o.hasPartitionKey = true
	}
}

// WithETag makes a replace, patch, or delete conditional on the document's
// current etag. The operation fails with a precondition error when another
// writer has changed the document since the etag was read.
func WithETag(etag string) ItemOption {
	return func(o *itemOptions) {
		o.etag = etag
	}
}
