package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"alfredoptarigan/cv-screener/internal/bootstrap"
	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
	"alfredoptarigan/cv-screener/internal/session"
)

const adminPasswordEnv = "SCREENCTL_ADMIN_PASSWORD"

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator or promote an existing user",
	Long:  "Create an administrator account, or grant administrator rights to an existing account with the same email. The password is read from --password or " + adminPasswordEnv + ".",
	RunE:  runCreateAdmin,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash suitable for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashPassword,
}

var (
	adminEmail    string
	adminName     string
	adminPassword string
)

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Administrator email")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password (overrides "+adminPasswordEnv+")")
	_ = createAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	password := adminPassword
	if password == "" {
		password = os.Getenv(adminPasswordEnv)
	}
	if password == "" {
		return fmt.Errorf("password is required (use --password or set %s)", adminPasswordEnv)
	}

	cfg := config.Load()
	logger := bootstrap.NewLogger(cfg)
	db, err := config.InitDatabase(cfg)
	if err != nil {
		return err
	}

	// sessions are not used when creating accounts
	auth := services.NewAuthService(
		repositories.NewUserRepository(db),
		session.NewMemoryStore(cfg.Session.TTL),
		services.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL),
		cfg.Auth.BcryptCost,
		logger,
	)

	user, err := auth.CreateAdmin(adminEmail, adminName, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s (%s) is an administrator\n", user.Email, user.ID)
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	cost := config.Load().Auth.BcryptCost
	hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(hash))
	return nil
}
