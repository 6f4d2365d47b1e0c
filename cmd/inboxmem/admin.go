package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/inboxmem/inboxmem/internal/config"
	"github.com/inboxmem/inboxmem/internal/db"
	"github.com/inboxmem/inboxmem/internal/model"
	"github.com/inboxmem/inboxmem/internal/pkg/jwt"
	"github.com/inboxmem/inboxmem/internal/repo"
)

// Tenants are provisioned by an operator; there is no signup flow. These
// subcommands create users and mint API tokens for them.

func newUserCmd() *cobra.Command {
	var configPath string
	var email string
	var name string

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "manage tenants",
	}
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "create a tenant by email address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" || email == "" {
				return fmt.Errorf("--config and --email are required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer func() { _ = database.Close() }()
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			now := time.Now().Unix()
			user := &model.User{
				ID:    uuid.NewString(),
				Email: strings.ToLower(strings.TrimSpace(email)),
				Name:  strings.TrimSpace(name),
				Ctime: now,
				Mtime: now,
			}
			if err := repo.NewUserRepo(database).Create(context.Background(), user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Printf("created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}
	addCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	addCmd.Flags().StringVar(&email, "email", "", "sender address of the tenant")
	addCmd.Flags().StringVar(&name, "name", "", "display name")
	userCmd.AddCommand(addCmd)
	return userCmd
}

func newTokenCmd() *cobra.Command {
	var configPath string
	var email string
	var ttlHours int

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint an API token for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" || email == "" {
				return fmt.Errorf("--config and --email are required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer func() { _ = database.Close() }()
			user, err := repo.NewUserRepo(database).GetByEmail(context.Background(), strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			token, err := jwt.GenerateToken(user.ID, user.Email, []byte(cfg.JWTSecret), time.Duration(ttlHours)*time.Hour)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	tokenCmd.Flags().StringVar(&email, "email", "", "sender address of the tenant")
	tokenCmd.Flags().IntVar(&ttlHours, "ttl-hours", 720, "token lifetime in hours")
	return tokenCmd
}
