// Package user provides the user profile record and its counter
// transaction builders.
package user

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// ErrAlreadyExists is returned when creating a user whose ID is taken.
var ErrAlreadyExists = errors.New("user: already exists")

// Privacy statuses for a user profile.
const (
	PrivacyPublic  = "PUBLIC"
	PrivacyPrivate = "PRIVATE"
)

// User is a user profile record. The counters are denormalized and must
// always equal the count of live relationship records referencing the
// user; they are mutated only through Repo's transaction builders.
type User struct {
	UserID        string `dynamodbav:"userId"`
	Username      string `dynamodbav:"username"`
	PrivacyStatus string `dynamodbav:"privacyStatus"`
	FollowerCount int64  `dynamodbav:"followerCount"`
	FollowedCount int64  `dynamodbav:"followedCount"`
	PostCount     int64  `dynamodbav:"postCount"`
	CreatedAt     string `dynamodbav:"createdAt"`
}

// Private reports whether new followers require approval.
func (u *User) Private() bool {
	return u.PrivacyStatus == PrivacyPrivate
}

// Key returns the user's primary key.
func (u *User) Key() store.Key {
	return keys.User(u.UserID)
}

// ToItem serializes the user to its store representation.
func (u *User) ToItem() (store.Item, error) {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, err
	}
	key := u.Key().AttributeValues()
	item["partitionKey"] = key["partitionKey"]
	item["sortKey"] = key["sortKey"]
	return item, nil
}

// ItemToUser deserializes a store record into a User.
func ItemToUser(item store.Item) (*User, error) {
	var u User
	if err := attributevalue.UnmarshalMap(item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
