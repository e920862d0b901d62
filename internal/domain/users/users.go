package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

const queryTimeout = time.Second * 5

type Role string

const (
	RoleUser  Role = "user"
	RolePic   Role = "pic"
	RoleAdmin Role = "admin"
)

// User is the slice of the account record the booking engine consumes.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone_number"`
	Role      Role   `json:"role"`
}

type Store interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        SELECT id, first_name, email, phone_number, role
        FROM users
        WHERE id = $1
    `
	var u User
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.FirstName, &u.Email, &u.Phone, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
