package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const userColumns = `id, username, email, password_hash, is_instructor, is_admin, is_active, created_at, updated_at, last_login`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedUsers ...user.User) error {
	ids := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		ids = append(ids, usr.ID)
	}

	var count int
	q := `SELECT COUNT(*) FROM users WHERE username = $1 AND NOT (id = ANY($2))`
	if err := repo.db.GetContext(ctx, &count, q, username, int64s(ids)); err != nil {
		return errors.Wrap(err, "counting users")
	}
	if count > 0 {
		return user.ErrUsernameExists
	}
	return nil
}

// password_hash is NOT NULL; users created without a password get an empty hash.
func withHash(usr user.User) user.User {
	if usr.PasswordHash == nil {
		usr.PasswordHash = []byte{}
	}
	return usr
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr = withHash(usr)
	q := `INSERT INTO users (username, email, password_hash, is_instructor, is_admin, is_active, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		usr.Username, usr.Email, usr.PasswordHash, usr.IsInstructor, usr.IsAdmin, usr.IsActive,
		usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, dbError(err)
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			w.add(`(username ILIKE ? OR email ILIKE ?)`, likePattern(filter.Search))
		}
		if filter.IsInstructor != nil {
			w.add(`is_instructor = ?`, *filter.IsInstructor)
		}
		if filter.IsActive != nil {
			w.add(`is_active = ?`, *filter.IsActive)
		}
	}

	users := make([]user.User, 0)
	q := `SELECT ` + userColumns + ` FROM users` + w.String() + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &users, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != 0:
		w.add(`id = ?`, filter.ID)
	case filter.Username != "":
		w.add(`username = ?`, filter.Username)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users`+w.String(), w.args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET username = :username, email = :email, password_hash = :password_hash,
		is_instructor = :is_instructor, is_admin = :is_admin, is_active = :is_active,
		updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	usr = withHash(usr)
	n, err := rowsAffected(repo.db.NamedExecContext(ctx, q, usr))
	if err != nil {
		return user.User{}, err
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...int) (int, error) {
	var n int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		n, err = deleteUsers(ctx, tx, ids)
		return err
	})
	return n, err
}
