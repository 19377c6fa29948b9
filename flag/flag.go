// Package flag provides crowdsourced moderation flags, generic over
// flaggable item kinds. A flag is unique per (user, item); the item's
// flag counter moves in the same transaction as the flag record. After
// each successful flag the crowdsourced-removal policy may trigger an
// idempotent removal follow-up outside the transaction.
package flag

import (
	"errors"

	"github.com/weftlabs/weft/store"
)

var (
	// ErrSelfFlag is returned when a user flags their own item.
	ErrSelfFlag = errors.New("flag: users cannot flag their own items")

	// ErrBlockedFlag is returned when a block between flagger and item
	// owner forbids the flag.
	ErrBlockedFlag = errors.New("flag: blocked")

	// ErrAlreadyFlagged is returned when the user already flagged the item.
	ErrAlreadyFlagged = errors.New("flag: item has already been flagged")

	// ErrNotFlagged is returned when unflagging an item the user has not
	// flagged.
	ErrNotFlagged = errors.New("flag: item has not been flagged")
)

// Flag is one flag engagement record.
type Flag struct {
	ItemKind        string
	ItemID          string
	FlaggedByUserID string
	FlaggedAt       string
}

// Item is a snapshot of a flaggable entity's moderation-relevant state.
type Item struct {
	Kind        string
	ID          string
	OwnerUserID string
	FlagCount   int64
	ViewerCount int64
}

// itemToFlag deserializes a store record into a Flag.
func itemToFlag(item store.Item) *Flag {
	return &Flag{
		ItemKind:        item.String("itemKind"),
		ItemID:          item.String("itemId"),
		FlaggedByUserID: item.String("flaggedByUserId"),
		FlaggedAt:       item.String("flaggedAt"),
	}
}
