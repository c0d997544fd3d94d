package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleUser    Role = "user"
	RoleTrainer Role = "trainer"
)

// User represents an account in the system (plain user or trainer).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"` // Unique
	Email        string             `bson:"email" json:"email"`       // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"`    // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Bio          string             `bson:"bio,omitempty" json:"bio,omitempty"`
	// ProfilePicture holds the object-storage key of the uploaded picture,
	// not a URL. The API layer resolves it to a presigned URL on read.
	ProfilePicture string    `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`

	// --- Trainer-specific ---
	// Present only for accounts registered with the trainer role.
	// Nil for plain users; callers must branch on presence.
	TrainerProfile *TrainerProfile `bson:"trainerProfile,omitempty" json:"trainerProfile,omitempty"`
}

// TrainerProfile extends a trainer account with coaching credentials.
type TrainerProfile struct {
	Certification   string `bson:"certification,omitempty" json:"certification,omitempty"`
	ExperienceYears int    `bson:"experienceYears" json:"experienceYears"`
	Specialization  string `bson:"specialization,omitempty" json:"specialization,omitempty"`
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}
