package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/suparena/docstore"
)

var (
	queryDB   string
	queryColl string
	queryKey  string
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query a container's documents",
	Long: `Run a query against a container, e.g.

  docstore query --db app --coll orders 'SELECT * FROM c WHERE c.total > 100'

With --pk the query runs against a single partition; otherwise the store
fans it out across all of them.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		var opts []docstore.ItemOption
		if queryKey != "" {
			opts = append(opts, docstore.WithPartitionKey(parseKey(queryKey)))
		}
		docs, err := client.Database(queryDB).Container(queryColl).
			QueryItems(context.Background(), args[0], opts...)
		if err != nil {
			fatal("Query failed", err)
		}
		if err := printJSON(docs); err != nil {
			fatal("Failed to encode result", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryDB, "db", "", "Database id")
	queryCmd.Flags().StringVar(&queryColl, "coll", "", "Container id")
	queryCmd.Flags().StringVar(&queryKey, "pk", "", "Partition key value (JSON scalars keep their type)")
	queryCmd.MarkFlagRequired("db")
	queryCmd.MarkFlagRequired("coll")
}
