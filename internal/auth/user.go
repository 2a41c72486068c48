package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRole int

const (
	UserRoleAdmin UserRole = iota
	UserRoleEditor
	UserRoleViewer
)

func ParseRole(s string) UserRole {
	switch s {
	case "admin":
		return UserRoleAdmin
	case "editor":
		return UserRoleEditor
	}
	return UserRoleViewer
}

type User struct {
	Id       string
	Name     string
	Password []byte
	Role     UserRole
	IsRoot   bool
}

func NewUser(name, password string, role UserRole) *User {
	// password max size is 72 bytes because of bcrypt limit
	hashed_password, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return &User{uuid.New().String(), name, hashed_password, role, false}
}

func (u *User) ValidateUser(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}

// Lower roles carry higher clearance; admin passes every check.
func (u *User) HasClearance(r UserRole) bool { return u.IsRoot || u.Role <= r }
