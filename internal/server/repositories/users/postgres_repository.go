package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/dbx"
	"github.com/dmitrijs2005/barangayconnect/internal/server/models"
)

const userColumns = `id, first_name, middle_name, last_name, dob, gender, civil_status, contact,
		 purok, barangay, city, province, postal_code, password_hash, photo, photo_key,
		 role, status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.MiddleName, &u.LastName, &u.DOB, &u.Gender,
		&u.CivilStatus, &u.Contact, &u.Purok, &u.Barangay, &u.City, &u.Province, &u.PostalCode,
		&u.PasswordHash, &u.Photo, &u.PhotoKey, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (first_name, middle_name, last_name, dob, gender, civil_status, contact,
		 purok, barangay, city, province, postal_code, password_hash, photo, photo_key, role, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName, user.MiddleName, user.LastName, user.DOB, user.Gender, user.CivilStatus,
		user.Contact, user.Purok, user.Barangay, user.City, user.Province, user.PostalCode,
		user.PasswordHash, user.Photo, user.PhotoKey, user.Role, user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetByContact(ctx context.Context, contact string) (*models.User, error) {
	return r.getOne(ctx, `contact = $1`, contact)
}

func (r *PostgresRepository) ExistsByName(ctx context.Context, firstName, lastName string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users
		 WHERE lower(first_name) = lower($1) AND lower(last_name) = lower($2))
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, firstName, lastName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Update writes every mutable column of user. Status and role are left alone.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users SET first_name = $2, middle_name = $3, last_name = $4, dob = $5, gender = $6,
		 civil_status = $7, contact = $8, purok = $9, barangay = $10, city = $11, province = $12,
		 postal_code = $13, password_hash = $14, photo = $15, photo_key = $16, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.FirstName, user.MiddleName, user.LastName, user.DOB, user.Gender,
		user.CivilStatus, user.Contact, user.Purok, user.Barangay, user.City, user.Province,
		user.PostalCode, user.PasswordHash, user.Photo, user.PhotoKey))

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrorNotFound
		case dbx.IsUniqueViolation(err):
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id int64, status string) (*models.User, error) {
	query :=
		`UPDATE users SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
