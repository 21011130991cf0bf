package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"assetline/internal/config"
	"assetline/internal/domain"
	"assetline/internal/repo"
)

// ResolveOrgAndConfig picks the active org config. A config file in the
// workspace wins and is synced into the store; otherwise the stored config is
// used, seeding defaults when the store is empty.
func ResolveOrgAndConfig(ctx context.Context, workspace string, r repo.Repo) (*config.Config, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("encode config: %w", err)
		}
		if err := r.UpsertConfig(ctx, cfg.Org.ID, string(data), now); err != nil {
			return nil, fmt.Errorf("store config: %w", err)
		}
		return cfg, nil
	}
	_, text, err := r.SingleConfig(ctx)
	if err == nil {
		return config.FromYAML([]byte(text))
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	cfg = config.Default("default-org")
	if err := r.UpsertConfig(ctx, cfg.Org.ID, config.GenerateDefault(cfg.Org.ID), now); err != nil {
		return nil, fmt.Errorf("seed org config: %w", err)
	}
	return cfg, nil
}

// EnsureAdminUser seeds a bootstrap admin into an empty user table so a fresh
// workspace has a principal able to manage users.
func EnsureAdminUser(ctx context.Context, r repo.Repo) error {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return r.InsertUser(ctx, domain.User{
		ID:        "local-admin",
		Email:     "admin@localhost",
		FirstName: "Local",
		LastName:  "Admin",
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
