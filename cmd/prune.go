package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/repository"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete revoked token records whose tokens have expired",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := sql.Open("mysql", cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		if err = db.Ping(); err != nil {
			return err
		}

		revokedTokenRepo := repository.NewRevokedTokenRepository(db)
		count, err := revokedTokenRepo.DeleteExpired(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("pruned %d expired revoked token record(s)\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
