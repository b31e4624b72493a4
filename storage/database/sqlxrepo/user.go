package sqlxrepo

import (
	"context"
	"time"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/user"
)

type userRepo struct {
	db core.DB
}

var _ user.Repository = (*userRepo)(nil)

func NewUserRepository(db core.DB) *userRepo {
	return &userRepo{db: db}
}

func (repo *userRepo) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, "SELECT * FROM account WHERE id = $1", id)
	return usr, trapNoRows(err, user.ErrNotFound)
}

func (repo *userRepo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, "SELECT * FROM account WHERE email = $1", email)
	return usr, trapNoRows(err, user.ErrNotFound)
}

func (repo *userRepo) QueryUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := repo.db.SelectContext(ctx, &users, "SELECT * FROM account ORDER BY created_at")
	return users, err
}

func (repo *userRepo) CreateUser(ctx context.Context, usr user.User) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO account (id, first_name, last_name, email, role, is_active,
			password_hash, last_login, created_at, updated_at)
		VALUES (:id, :first_name, :last_name, :email, :role, :is_active,
			:password_hash, :last_login, :created_at, :updated_at)`, usr)
	return err
}

func (repo *userRepo) UpdateUser(ctx context.Context, usr user.User) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE account
		SET first_name = :first_name, last_name = :last_name, email = :email,
			role = :role, is_active = :is_active, password_hash = :password_hash,
			last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`, usr)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepo) GetInvitationByToken(ctx context.Context, token string) (user.Invitation, error) {
	var inv user.Invitation
	err := repo.db.GetContext(ctx, &inv, "SELECT * FROM invitation WHERE token = $1", token)
	return inv, trapNoRows(err, user.ErrNotFound)
}

func (repo *userRepo) GetInvitationByEmail(ctx context.Context, email string) (user.Invitation, error) {
	var inv user.Invitation
	err := repo.db.GetContext(ctx, &inv, "SELECT * FROM invitation WHERE email = $1", email)
	return inv, trapNoRows(err, user.ErrNotFound)
}

func (repo *userRepo) CreateInvitation(ctx context.Context, inv user.Invitation) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO invitation (id, email, token, role, subject_id, is_used, created_at)
		VALUES (:id, :email, :token, :role, :subject_id, :is_used, :created_at)`, inv)
	return err
}

func (repo *userRepo) UpdateInvitation(ctx context.Context, inv user.Invitation) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE invitation
		SET email = :email, token = :token, role = :role, subject_id = :subject_id,
			is_used = :is_used, created_at = :created_at
		WHERE id = :id`, inv)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepo) DeleteInvitationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx,
		"DELETE FROM invitation WHERE NOT is_used AND created_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
