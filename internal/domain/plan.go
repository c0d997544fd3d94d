// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FitnessPlan is a multi-day program published by a trainer.
type FitnessPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Title     string             `bson:"title" json:"title"`
	// Description is the full content, visible only to the owning trainer
	// and active subscribers.
	Description string `bson:"description" json:"description"`
	// PreviewDescription is the short pitch shown to everyone else.
	PreviewDescription string    `bson:"previewDescription" json:"previewDescription"`
	Price              float64   `bson:"price" json:"price"` // 2 fraction digits
	DurationDays       int       `bson:"durationDays" json:"durationDays"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PlanDay is one day of a plan's program. Days are displayed in ascending
// dayNumber order; the number is not required to be unique within a plan.
type PlanDay struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID          primitive.ObjectID `bson:"planId" json:"planId"`
	DayNumber       int                `bson:"dayNumber" json:"dayNumber"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description" json:"description"`
	Exercises       string             `bson:"exercises" json:"exercises"` // Free-text blob
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
}
