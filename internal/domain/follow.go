package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Follow is a directed edge from a follower account to a trainer account.
// The (follower, following) pair is unique.
type Follow struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FollowerID  primitive.ObjectID `bson:"followerId" json:"followerId"`
	FollowingID primitive.ObjectID `bson:"followingId" json:"followingId"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
