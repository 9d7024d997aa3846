package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"receiptbook/api/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, is_active, is_superuser, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Create inserts the user row and its initial role assignments in one
// transaction, so a failed role grant never leaves a roleless account
// behind.
func (r *UserRepository) Create(ctx context.Context, user models.User, roleNames []string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO users (username, email, password_hash, is_active, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, insert,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.IsSuperuser,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}

	if err := replaceRolesTx(ctx, tx, id, roleNames); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// FindByUsername is an exact, case-sensitive match.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// AccountUpdate describes a partial user mutation. Nil fields are left
// untouched; a non-nil Roles fully replaces the assignment set.
type AccountUpdate struct {
	IsActive     *bool
	IsSuperuser  *bool
	PasswordHash []byte
	Roles        *[]string
}

// UpdateAccount applies flag, password, and role changes in a single
// transaction. Role replacement is delete-all plus insert-set, never
// observably partial.
func (r *UserRepository) UpdateAccount(ctx context.Context, id int64, update AccountUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `
		UPDATE users SET
			is_active     = COALESCE($2, is_active),
			is_superuser  = COALESCE($3, is_superuser),
			password_hash = COALESCE($4, password_hash),
			updated_at    = NOW()
		WHERE id = $1
	`
	cmd, err := tx.Exec(ctx, query, id, update.IsActive, update.IsSuperuser, update.PasswordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if update.Roles != nil {
		if err := replaceRolesTx(ctx, tx, id, *update.Roles); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func replaceRolesTx(ctx context.Context, tx pgx.Tx, userID int64, roleNames []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(roleNames) == 0 {
		return nil
	}

	const insert = `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = ANY($2)
	`
	_, err := tx.Exec(ctx, insert, userID, roleNames)
	return err
}

func (r *UserRepository) GetRoles(ctx context.Context, userID int64) ([]string, error) {
	const query = `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}
