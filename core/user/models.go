package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
)

type User struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            access.Role `json:"role"`
	SchoolID        string      `json:"school_id,omitempty"`
	Mobile          string      `json:"mobile,omitempty"`
	StudentID       string      `json:"student_id,omitempty"` // set on parent accounts: the linked student
	AllowedFeatures []string    `json:"allowed_features,omitempty"`
	Qualification   string      `json:"qualification,omitempty"` // teachers only
	IsActive        *bool       `json:"is_active"`
	PasswordHash    []byte      `json:"-"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
	UpdatedAt       time.Time   `json:"updated_at"` // UTC
	LastLogin       time.Time   `json:"last_login"` // UTC
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

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

func (u *User) IsTeacher() bool {
	return u.Role == access.RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == access.RoleStudent
}

// Session derives the authorization context enforced by the access package.
// The allow-list is only meaningful for teachers; it is carried as stored.
func (u *User) Session() *access.Session {
	return &access.Session{
		UserID:          u.ID,
		Role:            u.Role,
		SchoolID:        u.SchoolID,
		Mobile:          u.Mobile,
		StudentID:       u.StudentID,
		AllowedFeatures: u.AllowedFeatures,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string      `json:"name" validate:"required"`
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required"`
	PasswordConfirm string      `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            access.Role `json:"role" validate:"required,role"`
	SchoolID        string      `json:"school_id"`
	Mobile          string      `json:"mobile"`
	StudentID       string      `json:"student_id"`
	AllowedFeatures []string    `json:"allowed_features" validate:"omitempty,features"`
	Qualification   string      `json:"qualification"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Mobile = core.CleanString(nu.Mobile)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string      `json:"name"`
	Email           string      `json:"email" validate:"omitempty,email"`
	Role            access.Role `json:"role" validate:"omitempty,role"`
	Mobile          string      `json:"mobile"`
	StudentID       string      `json:"student_id"`
	AllowedFeatures []string    `json:"allowed_features" validate:"omitempty,features"`
	Qualification   string      `json:"qualification"`
	IsActive        *bool       `json:"is_active"`
	Password        string      `json:"password" validate:"omitempty"`
	PasswordConfirm string      `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, svc *Service) error {
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

	if uu.Role == "" {
		uu.Role = origUsr.Role
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.checkUniqueness(uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search      string      `query:"search"`
	Role        access.Role `query:"role"`
	SchoolID    string      `query:"school_id"`
	IsActive    *bool       `query:"is_active"`
	CreatedFrom time.Time   `query:"created_from"`
	CreatedTo   time.Time   `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.SchoolID == "" && qf.IsActive == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
