package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	webAdapter "phone-store/internal/adapters/web"
	"phone-store/internal/core"
)

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token signed with JWT_SECRET",
	Long: `Print a bearer token signed with JWT_SECRET for local testing.

Example:
  phonestore token --user demo-customer --role Customer`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id placed in the token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(core.RoleCustomer), "Admin, Employee or Customer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime; 0 disables expiry")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	token, err := webAdapter.IssueToken(cfg.JWTSecret, tokenUser, core.Role(tokenRole), tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
