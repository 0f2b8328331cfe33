package domain

import (
	"context"
	"time"
)

var (
	ErrUserNotFound     = NewKindError(ErrNotFound, "user not found")
	ErrEmailLinkedToUID = NewKindError(ErrConflict, "email already linked to a different account")
)

// User is an authenticated account. Fitness data lives on UserProfile.
type User struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	FirebaseUID string    `bson:"firebase_uid,omitempty" json:"firebase_uid"`
	Email       string    `bson:"email" json:"email"`
	Name        string    `bson:"name" json:"name"`
	Roles       []string  `bson:"roles" json:"roles"` // ["member", "admin"]
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// HasRole checks if user has a specific role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*User, error)
	UpdateFirebaseUID(ctx context.Context, userID string, firebaseUID string) error
}

// Role constants
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)
