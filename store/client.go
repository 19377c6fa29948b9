package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the DynamoDB implementation of Store.
type Client struct {
	ddb     *dynamodb.Client
	config  Config
	metrics *Metrics
}

var _ Store = (*Client)(nil)

// New creates a new Client.
func New(ddb *dynamodb.Client, config Config) *Client {
	config.validate()
	return &Client{
		ddb:    ddb,
		config: config,
	}
}

// SetMetrics attaches operation counters to the client.
func (c *Client) SetMetrics(m *Metrics) {
	c.metrics = m
}

// Config returns the client's validated configuration.
func (c *Client) Config() Config {
	return c.config
}

// Get reads one record, returning ErrNotFound on a miss.
func (c *Client) Get(ctx context.Context, key Key, consistency Consistency) (Item, error) {
	if consistency == Strong {
		c.metrics.strongRead()
	}
	result, err := c.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.config.Table),
		Key:            key.AttributeValues(),
		ConsistentRead: aws.Bool(consistency == Strong),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return Item(result.Item), nil
}

// PutConditional applies a single OpPut item outside a transaction.
func (c *Client) PutConditional(ctx context.Context, item TransactItem) error {
	if item.Op != OpPut {
		return fmt.Errorf("PutConditional requires an OpPut item, got %d", item.Op)
	}
	input := &dynamodb.PutItemInput{
		TableName:                 aws.String(c.config.Table),
		Item:                      item.Item,
		ExpressionAttributeNames:  item.Names,
		ExpressionAttributeValues: item.Values,
	}
	if item.Condition != "" {
		input.ConditionExpression = aws.String(item.Condition)
	}
	_, err := c.ddb.PutItem(ctx, input)
	return c.mapSingleItemError(err, item)
}

// UpdateConditional applies a single OpUpdate item outside a transaction.
func (c *Client) UpdateConditional(ctx context.Context, item TransactItem) error {
	if item.Op != OpUpdate {
		return fmt.Errorf("UpdateConditional requires an OpUpdate item, got %d", item.Op)
	}
	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.config.Table),
		Key:                       item.Key.AttributeValues(),
		UpdateExpression:          aws.String(item.Update),
		ExpressionAttributeNames:  item.Names,
		ExpressionAttributeValues: item.Values,
	}
	if item.Condition != "" {
		input.ConditionExpression = aws.String(item.Condition)
	}
	_, err := c.ddb.UpdateItem(ctx, input)
	return c.mapSingleItemError(err, item)
}

// DeleteConditional applies a single OpDelete item outside a transaction.
func (c *Client) DeleteConditional(ctx context.Context, item TransactItem) error {
	if item.Op != OpDelete {
		return fmt.Errorf("DeleteConditional requires an OpDelete item, got %d", item.Op)
	}
	input := &dynamodb.DeleteItemInput{
		TableName:                 aws.String(c.config.Table),
		Key:                       item.Key.AttributeValues(),
		ExpressionAttributeNames:  item.Names,
		ExpressionAttributeValues: item.Values,
	}
	if item.Condition != "" {
		input.ConditionExpression = aws.String(item.Condition)
	}
	_, err := c.ddb.DeleteItem(ctx, input)
	return c.mapSingleItemError(err, item)
}

// TransactWrite applies the items atomically. Any single item's condition
// failure aborts the whole batch; the failed item's OnConditionFail error
// is returned when the store identifies which item failed.
func (c *Client) TransactWrite(ctx context.Context, items ...TransactItem) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) > MaxTransactItems {
		return fmt.Errorf("%w: %d items, max %d", ErrTooManyItems, len(items), MaxTransactItems)
	}

	writeItems := make([]types.TransactWriteItem, 0, len(items))
	for _, item := range items {
		wi, err := item.toTransactWriteItem(c.config.Table)
		if err != nil {
			return err
		}
		writeItems = append(writeItems, wi)
	}

	_, err := c.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writeItems,
	})
	err = mapTransactionError(err, items)
	c.metrics.transactDone(err)
	return err
}

// Query returns a lazy sequence over matching records. Each range
// restarts the query from the beginning; pages are fetched as the
// iteration advances.
func (c *Client) Query(ctx context.Context, spec QuerySpec) iter.Seq2[Item, error] {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(c.config.Table),
		KeyConditionExpression:    aws.String(spec.KeyCondition),
		ExpressionAttributeNames:  spec.Names,
		ExpressionAttributeValues: spec.Values,
		ScanIndexForward:          aws.Bool(spec.Forward),
	}
	if spec.Index != "" {
		input.IndexName = aws.String(spec.Index)
	}
	if spec.Filter != "" {
		input.FilterExpression = aws.String(spec.Filter)
	}
	if spec.Limit > 0 {
		input.Limit = aws.Int32(spec.Limit)
	}

	return func(yield func(Item, error) bool) {
		paginator := dynamodb.NewQueryPaginator(c.ddb, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, raw := range page.Items {
				if !yield(Item(raw), nil) {
					return
				}
			}
		}
	}
}

// mapSingleItemError translates a conditional check failure on a one-off
// write into the item's domain sentinel.
func (c *Client) mapSingleItemError(err error, item TransactItem) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		c.metrics.conditionFailed()
		return item.conditionError()
	}
	return err
}

// mapTransactionError translates a cancelled transaction into the failed
// item's domain sentinel where the failing index is derivable.
func mapTransactionError(err error, items []TransactItem) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" && i < len(items) {
				return items[i].conditionError()
			}
		}
		return fmt.Errorf("%w: %s", ErrTransactionAborted, txErr.ErrorMessage())
	}

	return err
}
