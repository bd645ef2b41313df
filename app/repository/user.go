package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/entity"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate is returned when an insert violates a unique constraint
// (email, username, google_id or revoked token).
var ErrDuplicate = errors.New("duplicate entry")

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, username, birthday, profile_image,
		       is_active, is_email_verified, is_superuser, google_id, last_login_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, password_hash, username, birthday, profile_image, is_active, is_email_verified, is_superuser, google_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Username,
		user.Birthday,
		user.ProfileImage,
		user.IsActive,
		user.IsEmailVerified,
		user.IsSuperuser,
		user.GoogleID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*entity.User, error) {
	user := &entity.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Username,
		&user.Birthday,
		&user.ProfileImage,
		&user.IsActive,
		&user.IsEmailVerified,
		&user.IsSuperuser,
		&user.GoogleID,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) FindByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE google_id = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		user := entity.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Username,
			&user.Birthday,
			&user.ProfileImage,
			&user.IsActive,
			&user.IsEmailVerified,
			&user.IsSuperuser,
			&user.GoogleID,
			&user.LastLoginAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			email = ?,
			username = ?,
			birthday = ?,
			profile_image = ?,
			is_active = ?,
			is_email_verified = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Username,
		user.Birthday,
		user.ProfileImage,
		user.IsActive,
		user.IsEmailVerified,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil && isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), userID)
	return err
}

func (r *UserRepository) LinkGoogleID(ctx context.Context, userID uint64, googleID string) error {
	query := `UPDATE users SET google_id = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, googleID, time.Now(), userID)
	if err != nil && isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uint64, lastLogin time.Time) error {
	query := `UPDATE users SET last_login_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, lastLogin, userID)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, userID uint64) (bool, error) {
	query := `DELETE FROM users WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
