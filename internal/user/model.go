package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

// Role is the coarse permission level of an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, apperror.KindNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, apperror.KindConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "invalid email or password")
	ErrInactiveUser       = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "user is inactive")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, apperror.KindInvalidPayload, "email is required")
	ErrNameRequired       = apperror.New(http.StatusBadRequest, apperror.KindInvalidPayload, "name is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, apperror.KindInvalidPayload, "password is too short")
	ErrInvalidRole        = apperror.New(http.StatusBadRequest, apperror.KindInvalidPayload, "role must be student or teacher")
)

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	Status       Status
	Deleted      bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// CanSignIn reports whether the account may authenticate.
func (u *User) CanSignIn() bool {
	return u.Status == StatusActive && !u.Deleted
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Actor is the authenticated principal an operation runs on behalf of.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }
