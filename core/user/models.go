package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	IsInstructor bool      `json:"is_instructor" db:"is_instructor"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"date_joined" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"-" db:"updated_at"`           // UTC
	LastLogin    null.Time `json:"last_login" db:"last_login"`  // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Summary is the public representation of a User nested in other objects.
func (u User) Summary() Summary {
	return Summary{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		IsInstructor: u.IsInstructor,
	}
}

type Summary struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsInstructor bool   `json:"is_instructor"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username     string `json:"username" form:"username" validate:"required,max=150,username"`
	Email        string `json:"email" form:"email" validate:"omitempty,max=254,email"`
	Password     string `json:"password" form:"password" validate:"required"`
	IsInstructor bool   `json:"is_instructor" form:"is_instructor"`
	IsAdmin      bool   `json:"is_admin"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Username     *string `json:"username" validate:"omitempty,max=150,username"`
	Email        *string `json:"email" validate:"omitempty,max=254,email"`
	Password     *string `json:"password" validate:"omitempty,min=1"`
	IsInstructor *bool   `json:"is_instructor"`
	IsAdmin      *bool   `json:"is_admin"`
	IsActive     *bool   `json:"is_active"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if uu.Username != nil {
		uname := core.CleanString(*uu.Username, true /* lower */)
		if uname == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "username", Error: "this field cannot be blank"})
		}
		uu.Username = &uname
	}
	if uu.Email != nil {
		email := core.CleanString(*uu.Email, true /* lower */)
		uu.Email = &email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Username != nil {
		return svc.CheckUniqueness(*uu.Username, origUsr)
	}
	return nil
}

// Apply returns a copy of usr with the provided fields set.
func (uu UpdateUser) Apply(usr User) (User, error) {
	if uu.Username != nil {
		usr.Username = *uu.Username
	}
	if uu.Email != nil {
		usr.Email = *uu.Email
	}
	if uu.IsInstructor != nil {
		usr.IsInstructor = *uu.IsInstructor
	}
	if uu.IsAdmin != nil {
		usr.IsAdmin = *uu.IsAdmin
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != nil {
		if err := usr.SetPassword(*uu.Password); err != nil {
			return User{}, err
		}
	}
	return usr, nil
}

type QueryFilter struct {
	Search       string `query:"search"`
	IsInstructor *bool  `query:"is_instructor"`
	IsActive     *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Orderings maps the fields users can be ordered by to their columns.
var Orderings = map[string]string{
	"id":          "id",
	"username":    "username",
	"email":       "email",
	"date_joined": "created_at",
	"last_login":  "last_login",
}
