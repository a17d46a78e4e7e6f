package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	getDB   string
	getColl string
	getKey  string
)

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Read a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		doc, err := client.Database(getDB).Container(getColl).
			ReadItem(context.Background(), args[0], parseKey(getKey))
		if err != nil {
			fatal("Failed to read document", err)
		}
		if err := printJSON(doc); err != nil {
			fatal("Failed to encode result", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVar(&getDB, "db", "", "Database id")
	getCmd.Flags().StringVar(&getColl, "coll", "", "Container id")
	getCmd.Flags().StringVar(&getKey, "pk", "", "Partition key value (JSON scalars keep their type)")
	getCmd.MarkFlagRequired("db")
	getCmd.MarkFlagRequired("coll")
	getCmd.MarkFlagRequired("pk")
}
