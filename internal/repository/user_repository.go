package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides access to users and their customer profiles.  The
// identity service owns registration and login; this repository exists
// for buyer resolution during booking and for the accounts the payment
// reconciler creates on anonymous checkouts.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID retrieves a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, full_name, email, password_hash, role, is_active, created_at, updated_at
	           FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, q, id))
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, full_name, email, password_hash, role, is_active, created_at, updated_at
	           FROM users WHERE email = ? LIMIT 1`
	return r.scanUser(r.db.QueryRowContext(ctx, q, normalizeEmail(email)))
}

func (r *UserRepo) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateTx inserts a user within the provided transaction and populates
// the generated ID.  A duplicate email maps to ErrEmailExists.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, u *model.User) error {
	const q = `INSERT INTO users (full_name, email, password_hash, role) VALUES (?, ?, ?, ?)`
	u.Email = normalizeEmail(u.Email)
	res, err := tx.ExecContext(ctx, q, u.FullName, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// EmailExistsTx reports whether an account with this email exists.
func (r *UserRepo) EmailExistsTx(ctx context.Context, tx *sql.Tx, email string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, normalizeEmail(email)).Scan(&exists)
	return exists, err
}

// GetProfileTx returns the customer profile of a user, or nil when the
// user has none recorded yet.
func (r *UserRepo) GetProfileTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.CustomerProfile, error) {
	const q = `SELECT user_id, passport_number, phone FROM customer_profiles WHERE user_id = ?`
	var p model.CustomerProfile
	err := tx.QueryRowContext(ctx, q, userID).Scan(&p.UserID, &p.PassportNumber, &p.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindUserByPassportTx returns the user id a passport number is linked
// to, or zero when unlinked.
func (r *UserRepo) FindUserByPassportTx(ctx context.Context, tx *sql.Tx, passport string) (uint64, error) {
	const q = `SELECT user_id FROM customer_profiles WHERE passport_number = ?`
	var uid uint64
	err := tx.QueryRowContext(ctx, q, strings.TrimSpace(passport)).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return uid, err
}

// CreateProfileTx links a passport number to a user.  A passport linked
// to another account maps to ErrPassportExists.
func (r *UserRepo) CreateProfileTx(ctx context.Context, tx *sql.Tx, p *model.CustomerProfile) error {
	const q = `INSERT INTO customer_profiles (user_id, passport_number, phone) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, p.UserID, strings.TrimSpace(p.PassportNumber), p.Phone)
	if isDuplicateKey(err) {
		return ErrPassportExists
	}
	return err
}

// StoreResetToken records the hash of an outstanding set-password
// token.  The identity service validates the emailed token against this
// hash; storing a new one invalidates any previous link.
func (r *UserRepo) StoreResetToken(ctx context.Context, userID uint64, tokenHash string) error {
	const q = `UPDATE users SET reset_token_hash = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, tokenHash, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EmailsByRole returns the addresses of all active users with the given
// role.  The sweeper uses this to notify admins of flight transitions.
func (r *UserRepo) EmailsByRole(ctx context.Context, role string) ([]string, error) {
	const q = `SELECT email FROM users WHERE role = ? AND is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, q, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return emails, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
