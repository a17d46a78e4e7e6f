/*
Package awsddb implements the store wire contract on a single DynamoDB
table.

The engine supports:
  - Single-table design: databases, containers, and documents share one
    table keyed on PK and SK
  - Conditional writes for create conflicts and etag preconditions
  - Parallel segment scans for cross-partition queries
  - A container cache so repeated document operations skip metadata reads

Table Layout:

Every row carries a composite key. Metadata rows index the catalog, and
document rows group a logical partition's documents under one partition
key:

	PK "META#DBS"                   SK <database id>
	PK "META#DB#<db>"               SK <container id>
	PK "DOC#<db>#<coll>#<scalar>"   SK <document id>

A document's partition key scalar is encoded with a type tag ("s:" for
strings, "n:" for numbers, "b:" for booleans), so values of different
types never share a partition. Same-partition reads and writes are
single-item calls; cross-partition queries scan the container's prefix in
parallel segments and evaluate the filter client-side.

Construction:

	eng, err := awsddb.New(awsddb.Config{
	    Table:     "docstore",
	    AccessKey: accessKey,
	    SecretKey: secretKey,
	    Region:    "us-east-1",
	})

NewFromEnv reads the same settings from AWS_DDB_TABLE, AWS_ACCESS_KEY,
AWS_SECRET_KEY, AWS_REGION, and AWS_DDB_ENDPOINT. Point Endpoint at a
DynamoDB Local instance for development.
*/
package awsddb
