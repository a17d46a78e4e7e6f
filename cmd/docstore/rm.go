package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/docstore"
)

var (
	rmDB   string
	rmColl string
	rmKey  string
	rmETag string
)

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		var opts []docstore.ItemOption
		if rmETag != "" {
			opts = append(opts, docstore.WithETag(rmETag))
		}
		err = client.Database(rmDB).Container(rmColl).
			DeleteItem(context.Background(), args[0], parseKey(rmKey), opts...)
		if err != nil {
			fatal("Failed to delete document", err)
		}
		fmt.Printf("Document %q deleted.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().StringVar(&rmDB, "db", "", "Database id")
	rmCmd.Flags().StringVar(&rmColl, "coll", "", "Container id")
	rmCmd.Flags().StringVar(&rmKey, "pk", "", "Partition key value (JSON scalars keep their type)")
	rmCmd.Flags().StringVar(&rmETag, "etag", "", "Only delete if the document carries this etag")
	rmCmd.MarkFlagRequired("db")
	rmCmd.MarkFlagRequired("coll")
	rmCmd.MarkFlagRequired("pk")
}
