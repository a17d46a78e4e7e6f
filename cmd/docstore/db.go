package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage databases",
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the account's databases",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		databases, err := client.ListDatabases(context.Background())
		if err != nil {
			fatal("Failed to list databases", err)
		}
		if err := printJSON(databases); err != nil {
			fatal("Failed to encode result", err)
		}
	},
}

var dbCreateCmd = &cobra.Command{
	Use:   "create [id]",
	Short: "Create a database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		db, err := client.CreateDatabase(context.Background(), args[0])
		if err != nil {
			fatal("Failed to create database", err)
		}
		fmt.Printf("Database %q created.\n", db.ID())
	},
}

var dbDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a database and everything in it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fatal("Failed to build client", err)
		}

		if err := client.DeleteDatabase(context.Background(), args[0]); err != nil {
			fatal("Failed to delete database", err)
		}
		fmt.Printf("Database %q deleted.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbCreateCmd)
	dbCmd.AddCommand(dbDeleteCmd)
}
