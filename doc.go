/*
Package docstore is a client for a partitioned, schemaless document store,
offering uniform synchronous and asynchronous access to documents grouped
into containers within databases.

The library is a proxy layer: Client, Database, and Container translate
operations into wire requests, hand them to a pluggable transport engine,
and map outcomes into a closed error taxonomy. Documents are plain field
maps or pre-serialized JSON; nothing is cached client-side beyond the
partition key definition a container routes on.

Key Features:
  - Create, read, upsert, replace, patch, delete, and query operations
  - Structured (Document) and pre-serialized (RawDocument) write paths
  - Partition key resolution with explicit-key override
  - Semantic error types checkable with errors.Is
  - Future-based asynchronous mirror of the whole surface (package async)
  - Pluggable engines: in-memory emulator, signed REST transport, DynamoDB

Basic Usage:

	// Connect to a store endpoint
	client, _ := docstore.NewClient("https://store.example.com", key)

	// Create a database and a container partitioned on /category
	db, _ := client.CreateDatabase(ctx, "shop")
	orders, _ := db.CreateContainer(ctx, docstore.ContainerProperties{
	    ID:           "orders",
	    PartitionKey: docstore.PartitionKeyDefinition{Paths: []string{"/category"}, Kind: "Hash"},
	})

	// Store and read a document
	doc, _ := orders.CreateItem(ctx, docstore.Document{"id": "1", "category": "book"})
	doc, _ = orders.ReadItem(ctx, "1", "book")

	// Query across partitions
	results, _ := orders.QueryItems(ctx, "SELECT * FROM c WHERE c.total > 100")

For more information, see the documentation at https://github.com/suparena/docstore
*/
package docstore
