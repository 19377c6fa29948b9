package store

import (
	"context"
	"iter"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key identifies one record in the entity table.
type Key struct {
	Partition string
	Sort      string
}

// AttributeValues returns the key as a DynamoDB attribute map.
func (k Key) AttributeValues() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"partitionKey": &types.AttributeValueMemberS{Value: k.Partition},
		"sortKey":      &types.AttributeValueMemberS{Value: k.Sort},
	}
}

// Item is a raw DynamoDB record.
type Item map[string]types.AttributeValue

// String returns the named string attribute, or "" if absent.
func (i Item) String(name string) string {
	if v, ok := i[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Int returns the named number attribute, or 0 if absent or unparseable.
func (i Item) Int(name string) int64 {
	if v, ok := i[name].(*types.AttributeValueMemberN); ok {
		n, _ := strconv.ParseInt(v.Value, 10, 64)
		return n
	}
	return 0
}

// Key returns the record's primary key.
func (i Item) Key() Key {
	return Key{Partition: i.String("partitionKey"), Sort: i.String("sortKey")}
}

// Consistency selects the read consistency level.
type Consistency int

const (
	// Eventual is the default, lower-cost read level.
	Eventual Consistency = iota

	// Strong guarantees the read reflects the most recently committed
	// write. Use it immediately after a write the same logical operation
	// must observe.
	Strong
)

// QuerySpec describes one secondary-index or base-table query.
type QuerySpec struct {
	// Index is the GSI to query; empty queries the base table.
	Index string

	// KeyCondition is the DynamoDB key condition expression.
	KeyCondition string

	// Filter is an optional filter expression.
	Filter string

	// Names maps expression attribute name placeholders.
	Names map[string]string

	// Values maps expression attribute value placeholders.
	Values map[string]types.AttributeValue

	// Forward selects ascending index order when true.
	Forward bool

	// Limit caps the page size (0 = store default).
	Limit int32
}

// Store is the record store contract consumed by repositories and
// managers. *Client is the DynamoDB implementation; tests substitute
// fakes.
type Store interface {
	// Get reads one record, returning ErrNotFound on a miss.
	Get(ctx context.Context, key Key, consistency Consistency) (Item, error)

	// PutConditional, UpdateConditional and DeleteConditional apply a
	// single transaction item outside a transaction. A failed condition
	// returns the item's OnConditionFail error (or ErrConditionFailed).
	PutConditional(ctx context.Context, item TransactItem) error
	UpdateConditional(ctx context.Context, item TransactItem) error
	DeleteConditional(ctx context.Context, item TransactItem) error

	// TransactWrite applies up to MaxTransactItems items atomically.
	TransactWrite(ctx context.Context, items ...TransactItem) error

	// Query returns a lazy, restartable sequence over matching records.
	// Pagination is transparent; iteration stops at the first error.
	Query(ctx context.Context, spec QuerySpec) iter.Seq2[Item, error]
}
