package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/mitra-laporan-api/internal/repository"
	"github.com/noah-isme/mitra-laporan-api/pkg/cache"
)

var cacheNamespaces = []string{"mitra", "kontrak", "pekerjaan", "laporan", "inbox"}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or flush the Redis read cache",
	}
	cmd.AddCommand(newCacheFlushCmd())
	return cmd
}

func newCacheFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "flush [namespace...]",
		Short:     "Delete cached query results",
		Long:      "Deletes every cached entry of the given namespaces, or of all namespaces when none is named. Use after editing rows directly in the database.",
		ValidArgs: cacheNamespaces,
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			client, err := cache.NewRedis(cfg.Redis)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck

			namespaces := args
			if len(namespaces) == 0 {
				namespaces = cacheNamespaces
			}
			total := 0
			for _, ns := range namespaces {
				n, err := repo.DeleteByPattern(cmd.Context(), cache.Pattern(ns))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", ns, n)
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total\t%d\n", total)
			return nil
		},
	}
}
