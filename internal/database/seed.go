package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"receiptbook/api/internal/models"
	"receiptbook/api/internal/security"
)

var seedRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "Full system access including user and role management"},
	{Name: models.RoleUserDataEditor, Description: "Full CRUD access to user data and villages/areas, no receipts access"},
	{Name: models.RoleUserDataViewer, Description: "Read-only access to user data and villages/areas plus export"},
	{Name: models.RoleReceiptReportViewer, Description: "Can view receipts and generate reports, cannot create or edit"},
	{Name: models.RoleReceiptCreator, Description: "Can create and edit only their own receipts"},
}

// Seed ensures the canonical roles exist and bootstraps the initial
// admin account when the users table is empty. Safe to run on every
// startup.
func Seed(ctx context.Context, pool *pgxpool.Pool, adminPassword string, bcryptCost int, log zerolog.Logger) error {
	for _, role := range seedRoles {
		_, err := pool.Exec(ctx,
			`INSERT INTO roles (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			role.Name, role.Description,
		)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
	}

	var userCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&userCount); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if userCount > 0 {
		return nil
	}

	hash, err := security.HashPassword(adminPassword, bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed admin begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var adminID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, is_active, is_superuser)
		 VALUES ('admin', $1, TRUE, TRUE)
		 RETURNING id`,
		hash,
	).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT $1, id FROM roles WHERE name = $2`,
		adminID, models.RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seed admin commit: %w", err)
	}

	log.Info().Str("username", "admin").Msg("bootstrap admin account created, change its password")
	return nil
}
