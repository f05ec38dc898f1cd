package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user")
	ErrUsernameExists = errors.New("a user with that username already exists")
)

type (
	GetFilter struct {
		ID       int
		Username string
	}

	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Username or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// DeleteUsersByID also deletes every object owned by the users.
		DeleteUsersByID(ctx context.Context, ids ...int) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(uname string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, exclUsers...); err != nil {
		if err == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return errors.Wrap(err, "checking username uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Username:     nu.Username,
		Email:        nu.Email,
		IsInstructor: nu.IsInstructor,
		IsAdmin:      nu.IsAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if errors.Cause(err) == core.ErrUniqueViolation {
		return User{}, core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	}
	return usr, err
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, core.AllowedOrderings(ordering, Orderings))
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr, err := uu.Apply(usr)
	if err != nil {
		return User{}, errors.Wrap(err, "applying changes")
	}
	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if errors.Cause(err) == core.ErrUniqueViolation {
		return User{}, core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	}
	return usr, err
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteUsersByID(ctx, ids...)
	return err
}
