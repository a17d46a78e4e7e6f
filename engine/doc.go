/*
Package engine defines the transport boundary of the docstore client.

The client core never speaks to a store directly; it builds wire-form
requests and hands them to an Engine:

	type Engine interface {
	    Do(ctx context.Context, req *Request) (*Response, error)
	}

A Request names the resource by method and path (/dbs/{db}/colls/{coll}/docs/{id}),
carries the payload bytes, and places operation modifiers in headers: the
partition key scalar (JSON-encoded) in x-ds-partition-key, the upsert and
query markers, and If-Match for conditional writes. A Response carries the
status code and body verbatim; non-success statuses are reported through the
Response rather than the error return, which is reserved for failures of the
exchange itself (the client core maps both into its error taxonomy).

Implementations:
  - memory: in-process emulator of the full wire contract, used by tests
  - rest: signed HTTP transport for real endpoints
  - awsddb: hosts the wire contract on a single DynamoDB table
*/
package engine
