package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/suparena/docstore"
)

var (
	putDB     string
	putColl   string
	putKey    string
	putUpsert bool
)

var putCmd = &cobra.Command{
	Use:   "put [document]",
	Short: "Store a document",
	Long: `Store a JSON document in a container. Pass the document as an
argument, or pass - to read it from stdin. The document must carry a
string id field.

Without --pk the partition key is extracted from the document at the
container's configured key path.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data := []byte(args[0])
		if args[0] == "-" {
			var err error
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Failed to read stdin", err)
			}
		}
		var doc docstore.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			fatal("Document is not valid JSON", err)
		}

		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}
		coll := client.Database(putDB).Container(putColl)

		var opts []docstore.ItemOption
		if putKey != "" {
			opts = append(opts, docstore.WithPartitionKey(parseKey(putKey)))
		}

		ctx := context.Background()
		var stored docstore.Document
		if putUpsert {
			stored, err = coll.UpsertItem(ctx, doc, opts...)
		} else {
			stored, err = coll.CreateItem(ctx, doc, opts...)
		}
		if err != nil {
			fatal("Failed to store document", err)
		}
		fmt.Printf("Document %q stored.\n", stored.ID())
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().StringVar(&putDB, "db", "", "Database id")
	putCmd.Flags().StringVar(&putColl, "coll", "", "Container id")
	putCmd.Flags().StringVar(&putKey, "pk", "", "Partition key value (JSON scalars keep their type)")
	putCmd.Flags().BoolVar(&putUpsert, "upsert", false, "Replace the document if it already exists")
	putCmd.MarkFlagRequired("db")
	putCmd.MarkFlagRequired("coll")
}
