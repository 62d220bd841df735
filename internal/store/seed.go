package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/odir-go/internal/auth"
	"github.com/olegiv/odir-go/internal/model"
)

// DefaultAdminName is used when seeding the initial admin account.
const DefaultAdminName = "Administrator"

// Default site settings created on first run.
var defaultSettings = map[string]string{
	"site_name":        "oDir",
	"site_description": "Open community directory",
	"contact_email":    "",
}

// Seed creates initial data: the permission catalog, the built-in
// roles with their required grants, default settings, and the admin
// account. Safe to run on every startup.
func Seed(ctx context.Context, db *sql.DB, adminEmail, adminPassword string) error {
	queries := New(db)

	if err := seedRoles(ctx, queries); err != nil {
		return fmt.Errorf("seeding roles: %w", err)
	}
	if err := seedSettings(ctx, queries); err != nil {
		return fmt.Errorf("seeding settings: %w", err)
	}
	if err := seedAdmin(ctx, queries, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}

	return nil
}

// seedRoles creates every cataloged permission, every built-in role,
// and the grants each role must always hold. Existing rows are left
// untouched so repeated runs never revoke anything.
func seedRoles(ctx context.Context, q *Queries) error {
	now := time.Now()

	permIDs := make(map[string]int64, len(model.PermissionCatalog))
	for _, p := range model.PermissionCatalog {
		perm, err := q.GetPermissionByName(ctx, p.Name)
		if errors.Is(err, sql.ErrNoRows) {
			perm, err = q.CreatePermission(ctx, CreatePermissionParams{
				Name:        p.Name,
				Description: p.Description,
			})
		}
		if err != nil {
			return fmt.Errorf("permission %q: %w", p.Name, err)
		}
		permIDs[perm.Name] = perm.ID
	}

	for _, name := range model.RoleNames() {
		role, err := q.GetRoleByName(ctx, name)
		if errors.Is(err, sql.ErrNoRows) {
			role, err = q.CreateRole(ctx, CreateRoleParams{
				Name:        name,
				Description: model.RoleDescription(name),
				CreatedAt:   now,
			})
			if err == nil {
				slog.Info("created role", "name", name)
			}
		}
		if err != nil {
			return fmt.Errorf("role %q: %w", name, err)
		}

		for _, permName := range model.RequiredPermissionsFor(name) {
			permID, ok := permIDs[permName]
			if !ok {
				return fmt.Errorf("role %q requires unknown permission %q", name, permName)
			}
			if err := q.GrantPermission(ctx, GrantPermissionParams{
				RoleID:       role.ID,
				PermissionID: permID,
			}); err != nil {
				return fmt.Errorf("granting %q to %q: %w", permName, name, err)
			}
		}
	}

	return nil
}

// seedSettings inserts default settings without overwriting values an
// admin has already changed.
func seedSettings(ctx context.Context, q *Queries) error {
	now := time.Now()
	for key, value := range defaultSettings {
		_, err := q.GetSetting(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking setting %q: %w", key, err)
		}
		if err := q.UpsertSetting(ctx, UpsertSettingParams{
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("creating setting %q: %w", key, err)
		}
	}
	return nil
}

// seedAdmin creates the initial admin account. When no password is
// configured a random one is generated and logged once.
func seedAdmin(ctx context.Context, q *Queries, email, password string) error {
	_, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	generated := false
	if password == "" {
		password, err = randomPassword()
		if err != nil {
			return fmt.Errorf("generating admin password: %w", err)
		}
		generated = true
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:              email,
		Name:               DefaultAdminName,
		PasswordHash:       passwordHash,
		IsAdmin:            true,
		EmailVerified:      true,
		SubscriptionStatus: model.SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if generated {
		slog.Info("created admin user with generated password",
			"id", user.ID,
			"email", user.Email,
			"password", password,
		)
	} else {
		slog.Info("created admin user", "id", user.ID, "email", user.Email)
	}

	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
