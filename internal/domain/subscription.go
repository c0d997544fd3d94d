package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription links a user to a plan. One row per (user, plan) pair;
// unsubscribing flips IsActive instead of deleting, so purchase history
// survives and PurchaseDate never changes after the first subscribe.
type Subscription struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID       primitive.ObjectID `bson:"planId" json:"planId"`
	PurchaseDate time.Time          `bson:"purchaseDate" json:"purchaseDate"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
}
