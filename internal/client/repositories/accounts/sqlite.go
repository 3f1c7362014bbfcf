package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/cryptox"
	"github.com/dmitrijs2005/barangayconnect/internal/dbx"
)

// ErrNoSealer is returned when a record with pending plaintext is written
// to a repository that has no sealer to protect it.
var ErrNoSealer = errors.New("pending plaintext requires a sealer")

const selectColumns = `
	id, backend_id, first_name, middle_name, last_name, dob, gender, civil_status,
	contact, purok, barangay, city, province, postal_code, password_hash,
	pending_secret, pending_nonce, photo, role, status, synced, updated_at`

type SQLiteRepository struct {
	db     dbx.DBTX
	sealer *cryptox.Sealer
}

func NewSQLiteRepository(db dbx.DBTX, sealer *cryptox.Sealer) *SQLiteRepository {
	return &SQLiteRepository{db: db, sealer: sealer}
}

func (r *SQLiteRepository) seal(pending []byte) (secret, nonce []byte, err error) {
	if len(pending) == 0 {
		return nil, nil, nil
	}
	if r.sealer == nil {
		return nil, nil, ErrNoSealer
	}
	return r.sealer.Seal(pending)
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.AccountRecord) error {
	secret, nonce, err := r.seal(rec.PendingPlaintext)
	if err != nil {
		return fmt.Errorf("failed to seal pending secret for %s: %w", rec.Contact, err)
	}

	query := `
		INSERT INTO users (
			backend_id, first_name, middle_name, last_name, dob, gender, civil_status,
			contact, purok, barangay, city, province, postal_code, password_hash,
			pending_secret, pending_nonce, photo, role, status, synced, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(contact) DO UPDATE SET
			backend_id = excluded.backend_id,
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name,
			dob = excluded.dob,
			gender = excluded.gender,
			civil_status = excluded.civil_status,
			purok = excluded.purok,
			barangay = excluded.barangay,
			city = excluded.city,
			province = excluded.province,
			postal_code = excluded.postal_code,
			password_hash = excluded.password_hash,
			pending_secret = excluded.pending_secret,
			pending_nonce = excluded.pending_nonce,
			photo = excluded.photo,
			role = excluded.role,
			status = excluded.status,
			synced = excluded.synced,
			updated_at = excluded.updated_at
		RETURNING id`

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, query,
		nullableID(rec.RemoteID), rec.FirstName, rec.MiddleName, rec.LastName, rec.DOB,
		rec.Gender, rec.CivilStatus, rec.Contact, rec.Purok, rec.Barangay, rec.City,
		rec.Province, rec.PostalCode, rec.PasswordHash, secret, nonce, rec.Photo,
		string(rec.Role), rec.Status, rec.IsSynced(), now,
	).Scan(&rec.LocalID)
	if err != nil {
		return fmt.Errorf("failed to upsert account[%s]: %w", rec.Contact, err)
	}
	rec.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) FindByContact(ctx context.Context, contact string) (*models.AccountRecord, error) {
	return r.findOne(ctx, `SELECT`+selectColumns+` FROM users WHERE contact = ?`, contact)
}

func (r *SQLiteRepository) FindByName(ctx context.Context, first, middle, last string) (*models.AccountRecord, error) {
	return r.findOne(ctx, `SELECT`+selectColumns+` FROM users
		WHERE lower(first_name) = lower(?)
		  AND lower(coalesce(middle_name, '')) = lower(?)
		  AND lower(last_name) = lower(?)
		ORDER BY id DESC LIMIT 1`, first, middle, last)
}

func (r *SQLiteRepository) FindByID(ctx context.Context, localID int64) (*models.AccountRecord, error) {
	return r.findOne(ctx, `SELECT`+selectColumns+` FROM users WHERE id = ?`, localID)
}

func (r *SQLiteRepository) Latest(ctx context.Context) (*models.AccountRecord, error) {
	return r.findOne(ctx, `SELECT`+selectColumns+` FROM users ORDER BY id DESC LIMIT 1`)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.AccountRecord, error) {
	return r.findMany(ctx, `SELECT`+selectColumns+` FROM users ORDER BY id DESC`)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.AccountRecord, error) {
	return r.findMany(ctx, `SELECT`+selectColumns+` FROM users WHERE synced = 0 ORDER BY id`)
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *models.AccountRecord) error {
	var (
		res sql.Result
		err error
	)

	where, key := `id = ?`, any(rec.LocalID)
	if rec.RemoteID != nil {
		where, key = `backend_id = ?`, any(*rec.RemoteID)
	}

	set := `first_name = ?, middle_name = ?, last_name = ?, dob = ?, gender = ?, civil_status = ?,
		contact = ?, purok = ?, barangay = ?, city = ?, province = ?, postal_code = ?,
		photo = ?, synced = 0, updated_at = ?`
	args := []any{
		rec.FirstName, rec.MiddleName, rec.LastName, rec.DOB, rec.Gender, rec.CivilStatus,
		rec.Contact, rec.Purok, rec.Barangay, rec.City, rec.Province, rec.PostalCode,
		rec.Photo, time.Now().UTC(),
	}

	if len(rec.PendingPlaintext) > 0 {
		secret, nonce, err := r.seal(rec.PendingPlaintext)
		if err != nil {
			return fmt.Errorf("failed to seal pending secret for %s: %w", rec.Contact, err)
		}
		set += `, password_hash = ?, pending_secret = ?, pending_nonce = ?`
		args = append(args, rec.PasswordHash, secret, nonce)
	}
	args = append(args, key)

	res, err = r.db.ExecContext(ctx, `UPDATE users SET `+set+` WHERE `+where, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("failed to update account[%s]: %w", rec.Contact, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	rec.MarkDirty()
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, contact string, remoteID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET backend_id = ?, synced = 1, pending_secret = NULL, pending_nonce = NULL
		WHERE contact = ?`, remoteID, contact)
	if err != nil {
		return fmt.Errorf("failed to mark account[%s] synced: %w", contact, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scan(s scanner) (*models.AccountRecord, error) {
	var (
		rec           models.AccountRecord
		backendID     sql.NullInt64
		secret, nonce []byte
		role          string
		synced        bool
	)

	err := s.Scan(&rec.LocalID, &backendID, &rec.FirstName, &rec.MiddleName, &rec.LastName,
		&rec.DOB, &rec.Gender, &rec.CivilStatus, &rec.Contact, &rec.Purok, &rec.Barangay,
		&rec.City, &rec.Province, &rec.PostalCode, &rec.PasswordHash, &secret, &nonce,
		&rec.Photo, &role, &rec.Status, &synced, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Role = models.Role(role)
	if backendID.Valid {
		id := backendID.Int64
		rec.RemoteID = &id
	}
	rec.Sync = models.SyncStateFromBool(synced)

	if len(secret) > 0 {
		if r.sealer == nil {
			return nil, ErrNoSealer
		}
		if rec.PendingPlaintext, err = r.sealer.Open(secret, nonce); err != nil {
			return nil, fmt.Errorf("failed to open pending secret for %s: %w", rec.Contact, err)
		}
	}
	return &rec, nil
}

func (r *SQLiteRepository) findOne(ctx context.Context, query string, args ...any) (*models.AccountRecord, error) {
	rec, err := r.scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) findMany(ctx context.Context, query string, args ...any) ([]*models.AccountRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	result := make([]*models.AccountRecord, 0)
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return result, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
