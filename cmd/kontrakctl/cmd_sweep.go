package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/mitra-laporan-api/internal/repository"
	"github.com/noah-isme/mitra-laporan-api/internal/service"
	"github.com/noah-isme/mitra-laporan-api/pkg/database"
	"github.com/noah-isme/mitra-laporan-api/pkg/storage"
)

func newSweepCmd() *cobra.Command {
	var grace time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete stored attachments no committed report references",
		Long: `Lists attachments older than the grace period, keeps every file referenced by a committed
activity photo (and its thumbnail) and deletes the rest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logr, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			files, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
			if err != nil {
				return fmt.Errorf("open attachment storage: %w", err)
			}
			if grace <= 0 {
				grace = cfg.Attachments.OrphanGracePeriod
			}
			attachments := service.NewAttachmentService(files, repository.NewLaporanRepository(db), nil, nil, logr, service.AttachmentConfig{
				OrphanGrace: grace,
			})

			deleted, err := attachments.SweepOrphans(cmd.Context())
			if err != nil {
				return err
			}
			logr.Info("sweep finished", zap.Int("deleted", len(deleted)), zap.Duration("grace", grace))
			for _, ref := range deleted {
				fmt.Fprintln(cmd.OutOrStdout(), ref)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 0, "Minimum attachment age (defaults to ATTACHMENT_ORPHAN_GRACE)")
	return cmd
}
