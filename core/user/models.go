package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         session.Role `json:"role"`
	IsActive     *bool        `json:"is_active"`
	Avatar       string       `json:"avatar"`
	Phone        string       `json:"phone"`
	Bio          string       `json:"bio"`
	PasswordHash []byte       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
	LastLogin    time.Time    `json:"last_login"` // UTC
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

func (u *User) SetActive(active bool) { u.IsActive = &active }

func (u *User) Active() bool { return u.IsActive == nil || *u.IsActive }

func (u *User) IsStudent() bool    { return u.Role == session.RoleStudent }
func (u *User) IsInstructor() bool { return u.Role == session.RoleInstructor }
func (u *User) IsAdmin() bool      { return u.Role == session.RoleAdmin }

// Identity maps the account to the session principal populated on login.
func (u *User) Identity() session.Identity {
	return session.Identity{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
		Profile: &session.Profile{
			Name:   u.Name,
			Email:  u.Email,
			Avatar: u.Avatar,
			Phone:  u.Phone,
			Bio:    u.Bio,
		},
	}
}

// NewUser contains information needed to create a new User.
// Self-registration only mints student and instructor accounts; admins are
// created through the admin CLI.
type NewUser struct {
	Name            string       `json:"name" validate:"required,min=2"`
	Email           string       `json:"email" validate:"required,email"`
	Password        string       `json:"password" validate:"required"`
	PasswordConfirm string       `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            session.Role `json:"role" validate:"required,oneof=student instructor"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// `IsActive` and `Role` can only be changed by an admin; the API layer enforces that.
type UpdateUser struct {
	Name            string       `json:"name"`
	Email           string       `json:"email" validate:"omitempty,email"`
	IsActive        *bool        `json:"is_active"`
	Role            session.Role `json:"role" validate:"omitempty,role"`
	Avatar          string       `json:"avatar"`
	Phone           string       `json:"phone" validate:"omitempty,phone"`
	Bio             string       `json:"bio" validate:"omitempty,max=500"`
	Password        string       `json:"password"`
	PasswordConfirm string       `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string         `query:"search"`
	Roles       []session.Role `query:"role"`
	IsActive    *bool          `query:"is_active"`
	CreatedFrom time.Time      `query:"created_from"`
	CreatedTo   time.Time      `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
