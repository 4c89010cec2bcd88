package repository

import (
	"context"
	"time"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

const accountColumns = `id, email, password_hash, first_name, last_name, status, role, cohort, email_verified, verify_token, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.Status,
		&account.Role,
		&account.Cohort,
		&account.EmailVerified,
		&account.VerifyToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}

func (s *Store) CreateAccount(ctx context.Context, account model.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, account.ID, account.Email, account.PasswordHash, account.FirstName, account.LastName,
		account.Status, account.Role, account.Cohort, account.EmailVerified, account.VerifyToken,
		account.CreatedAt, account.UpdatedAt)
	return err
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	return scanAccount(row)
}

func (s *Store) UpdateAccountStatus(ctx context.Context, id string, status model.AccountStatus, role model.Role, cohort model.Cohort, updatedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET status = $1, role = $2, cohort = $3, updated_at = $4
		WHERE id = $5
	`, status, role, cohort, updatedAt, id)
	return err
}

func (s *Store) SetEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET email_verified = TRUE, verify_token = NULL, updated_at = $1
		WHERE id = $2
	`, verifiedAt, id)
	return err
}

func (s *Store) ListAccountsByStatus(ctx context.Context, status model.AccountStatus, limit int32) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// FindAccountsByFirstName resolves @mention tokens case-insensitively.
func (s *Store) FindAccountsByFirstName(ctx context.Context, name string) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE LOWER(first_name) = LOWER($1)
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
