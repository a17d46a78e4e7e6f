package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/docstore"
)

var (
	collDB      string
	collKeyPath string
)

var collCmd = &cobra.Command{
	Use:   "coll",
	Short: "Manage containers",
}

var collListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a database's containers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		containers, err := client.Database(collDB).ListContainers(context.Background())
		if err != nil {
			fatal("Failed to list containers", err)
		}
		if err := printJSON(containers); err != nil {
			fatal("Failed to encode result", err)
		}
	},
}

var collCreateCmd = &cobra.Command{
	Use:   "create [id]",
	Short: "Create a container",
	Long: `Create a container in a database. The partition key path names the
document field whose value routes each document, e.g. /customer. Without
one, documents are partitioned on their id.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		props := docstore.ContainerProperties{ID: args[0]}
		if collKeyPath != "" {
			props.PartitionKey = docstore.PartitionKeyDefinition{Paths: []string{collKeyPath}}
		}
		coll, err := client.Database(collDB).CreateContainer(context.Background(), props)
		if err != nil {
			fatal("Failed to create container", err)
		}
		fmt.Printf("Container %q created.\n", coll.ID())
	},
}

var collDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a container and its documents",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		if err := client.Database(collDB).DeleteContainer(context.Background(), args[0]); err != nil {
			fatal("Failed to delete container", err)
		}
		fmt.Printf("Container %q deleted.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(collCmd)
	collCmd.AddCommand(collListCmd)
	collCmd.AddCommand(collCreateCmd)
	collCmd.AddCommand(collDeleteCmd)

	collCmd.PersistentFlags().StringVar(&collDB, "db", "", "Database id")
	collCmd.MarkPersistentFlagRequired("db")
	collCreateCmd.Flags().StringVar(&collKeyPath, "partition-key", "", "Partition key path, e.g. /customer")
}
