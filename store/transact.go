package store

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MaxTransactItems is the store-imposed limit on items per transaction.
const MaxTransactItems = 25

// Op selects the operation a TransactItem performs.
type Op int

const (
	// OpPut writes a full record.
	OpPut Op = iota
	// OpUpdate applies an update expression to a record.
	OpUpdate
	// OpDelete removes a record.
	OpDelete
	// OpCheck asserts a condition without writing.
	OpCheck
)

// TransactItem is one conditional operation in an atomic batch.
// Repositories build these; they never submit transactions themselves, so
// managers can compose items from several repositories into one
// transaction.
type TransactItem struct {
	// Op selects the operation kind.
	Op Op

	// Item is the full record for OpPut.
	Item Item

	// Key targets the record for OpUpdate, OpDelete and OpCheck.
	Key Key

	// Update is the update expression for OpUpdate.
	Update string

	// Condition guards the operation; an empty condition is unconditional.
	Condition string

	// Names maps expression attribute name placeholders.
	Names map[string]string

	// Values maps expression attribute value placeholders.
	Values map[string]types.AttributeValue

	// OnConditionFail is returned in place of the raw store error when this
	// item's condition fails, whether the failure was pre-checked or raced.
	OnConditionFail error
}

// conditionError returns the error to surface for this item's failed
// condition.
func (ti TransactItem) conditionError() error {
	if ti.OnConditionFail != nil {
		return ti.OnConditionFail
	}
	return ErrConditionFailed
}

// toTransactWriteItem converts the descriptor to the SDK representation.
func (ti TransactItem) toTransactWriteItem(table string) (types.TransactWriteItem, error) {
	switch ti.Op {
	case OpPut:
		put := &types.Put{
			TableName:                 aws.String(table),
			Item:                      ti.Item,
			ExpressionAttributeNames:  ti.Names,
			ExpressionAttributeValues: ti.Values,
		}
		if ti.Condition != "" {
			put.ConditionExpression = aws.String(ti.Condition)
		}
		return types.TransactWriteItem{Put: put}, nil

	case OpUpdate:
		update := &types.Update{
			TableName:                 aws.String(table),
			Key:                       ti.Key.AttributeValues(),
			UpdateExpression:          aws.String(ti.Update),
			ExpressionAttributeNames:  ti.Names,
			ExpressionAttributeValues: ti.Values,
		}
		if ti.Condition != "" {
			update.ConditionExpression = aws.String(ti.Condition)
		}
		return types.TransactWriteItem{Update: update}, nil

	case OpDelete:
		del := &types.Delete{
			TableName:                 aws.String(table),
			Key:                       ti.Key.AttributeValues(),
			ExpressionAttributeNames:  ti.Names,
			ExpressionAttributeValues: ti.Values,
		}
		if ti.Condition != "" {
			del.ConditionExpression = aws.String(ti.Condition)
		}
		return types.TransactWriteItem{Delete: del}, nil

	case OpCheck:
		if ti.Condition == "" {
			return types.TransactWriteItem{}, fmt.Errorf("condition check without condition for key %q", ti.Key.Partition)
		}
		return types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
			TableName:                 aws.String(table),
			Key:                       ti.Key.AttributeValues(),
			ConditionExpression:       aws.String(ti.Condition),
			ExpressionAttributeNames:  ti.Names,
			ExpressionAttributeValues: ti.Values,
		}}, nil

	default:
		return types.TransactWriteItem{}, fmt.Errorf("unknown transact op %d", ti.Op)
	}
}
