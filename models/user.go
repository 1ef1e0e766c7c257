// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles known to the portal.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleCouncil = "council"
	RoleAdmin   = "admin"
)

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"passwordHash" json:"-"`
	Role          string             `bson:"role" json:"role"`
	RollNumber    string             `bson:"rollNumber,omitempty" json:"rollNumber,omitempty"`
	Department    string             `bson:"department,omitempty" json:"department,omitempty"`
	WalletAddress string             `bson:"walletAddress,omitempty" json:"walletAddress,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
