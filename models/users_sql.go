package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"activityhub/utils"
)

var errInvalidCredentials = errors.New("invalid credentials")

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository { return &sqlUserRepo{db} }

func (r *sqlUserRepo) Create(ctx context.Context, u *User) error {
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO users(id, email, password) VALUES ($1,$2,$3)`, u.ID, u.Email, u.Password)
	return mapPQError(err)
}

func (r *sqlUserRepo) ValidateCredentials(ctx context.Context, email, plain string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, errInvalidCredentials
		}
		return User{}, err
	}

	if !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, errInvalidCredentials
	}
	return u, nil
}

func (r *sqlUserRepo) GetByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `SELECT id, email FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
