/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/jjudge-oj/userdir/internal/db"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/internal/storage"
	"github.com/jjudge-oj/userdir/internal/store"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload a JSON snapshot of every user to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		var target services.ObjectStore
		if objects != nil {
			target = objects
		}

		users := services.NewUserService(store.NewUserRepository(dbConn))
		result, err := services.NewExportService(users, target).Export(ctx)
		if err != nil {
			return err
		}
		logger.Info("exported users", "bucket", result.Bucket, "key", result.Key, "count", result.Count, "bytes", result.Bytes)
		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", result.Bucket, result.Key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
