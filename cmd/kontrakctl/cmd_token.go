package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/service"
	"github.com/noah-isme/mitra-laporan-api/pkg/config"
)

func newTokenCmd() *cobra.Command {
	var (
		userID  string
		role    string
		partner string
		ttl     time.Duration
		secret  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with JWT_SECRET",
		Long: `Issues an HS256 access token for local testing and service accounts. Production users
receive their tokens from the session provider.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := models.UserRole(strings.ToUpper(role))
			if r != models.RoleAdmin && r != models.RoleMitra {
				return fmt.Errorf("role must be ADMIN or MITRA, got %q", role)
			}
			if r == models.RoleMitra && partner == "" {
				return fmt.Errorf("--partner is required for MITRA tokens")
			}
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				secret = cfg.JWT.Secret
			}
			token, expiresAt, err := service.NewAccessService(secret).IssueToken(userID, r, partner, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "operator", "User id placed in the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "ADMIN or MITRA")
	cmd.Flags().StringVar(&partner, "partner", "", "Partner name (MITRA tokens)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	return cmd
}
