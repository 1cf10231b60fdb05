package repository

import (
	"context"
	"strings"

	"github.com/senyabanana/bid-award/internal/models"
)

// GetUserByEmail returns the account registered under email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, role, COALESCE(company_id::text, '')
	          FROM app_user WHERE lower(email) = $1`

	var user models.User
	err := s.DB.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CompanyID,
	)
	if err != nil {
		return nil, notFoundOnBadID(err)
	}
	return &user, nil
}
