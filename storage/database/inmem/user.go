package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username && !isExcluded(usr, excludedUsers) {
			return user.ErrUsernameExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.usernameTaken(usr) {
		return user.User{}, core.ErrUniqueViolation
	}
	usr.ID = repo.db.nextID("users")
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter != nil {
			if filter.Search != "" && !(containsFold(usr.Username, filter.Search) || containsFold(usr.Email, filter.Search)) {
				continue
			}
			if filter.IsInstructor != nil && usr.IsInstructor != *filter.IsInstructor {
				continue
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
		}
		users = append(users, usr)
	}
	sortObjects(users, ordering)
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Username != "" {
		for _, usr := range repo.db.users {
			if usr.Username == filter.Username {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.usernameTaken(usr) {
		return user.User{}, core.ErrUniqueViolation
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.deleteUsers(ids), nil
}

func (repo *userRepository) usernameTaken(usr user.User) bool {
	for _, u := range repo.db.users {
		if u.Username == usr.Username && u.ID != usr.ID {
			return true
		}
	}
	return false
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
