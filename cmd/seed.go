/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/jjudge-oj/userdir/internal/db"
	"github.com/jjudge-oj/userdir/internal/mq"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/internal/store"
	"github.com/spf13/cobra"
)

var seedCount int

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert generated sample users",
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

		n, err := services.NewUserService(store.NewUserRepository(dbConn)).Seed(ctx, seedCount)
		if err != nil {
			return err
		}
		logger.Info("seeded users", "count", n)

		// Running servers hold cached listings that are now stale.
		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			logger.Warn("skip change event", "error", err)
			return nil
		}
		if queue == nil {
			return nil
		}
		defer queue.Close()
		if err := queue.PublishUserEvent(ctx, mq.UserEvent{Kind: mq.EventUsersSeeded, Count: n}); err != nil {
			logger.Warn("skip change event", "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedCount, "count", services.DefaultSeedCount, fmt.Sprintf("number of users to insert (default %d when <= 0, at most %d)", services.DefaultSeedCount, services.MaxSeedCount))
}
