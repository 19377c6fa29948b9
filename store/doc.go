// Package store provides the DynamoDB record store adapter for the weft
// social graph.
//
// All entities live in one table keyed by (partitionKey, sortKey) with two
// global secondary indexes for reverse lookups. The adapter exposes generic
// conditional writes, strongly- or eventually-consistent reads, lazy
// paginated queries, and multi-item atomic transactions. It knows nothing
// about follows, likes or albums; domain packages build transaction item
// descriptors and submit them here.
//
// # Transactions
//
// [Client.TransactWrite] applies up to [MaxTransactItems] items
// all-or-nothing. Each [TransactItem] may carry an OnConditionFail error:
// when DynamoDB cancels the transaction because that item's condition
// expression failed, TransactWrite returns the item's error instead of the
// raw SDK error. Repositories attach their domain sentinels there, so a
// caller that loses a race sees the same error as one that failed a
// precondition check.
//
// # Consistency
//
// Reads default to eventually consistent. Pass [Strong] immediately after
// a write that the same logical operation must observe:
//
//	item, err := client.Get(ctx, key, store.Strong)
//
// # Errors
//
//   - [ErrNotFound] - no record at the requested key
//   - [ErrConditionFailed] - a conditional write failed and no sentinel was attached
//   - [ErrTransactionAborted] - transaction cancelled for a non-conditional reason
//   - [ErrTooManyItems] - transaction exceeds the store batch limit
//   - [ErrCounterUnderflow] - a guarded counter decrement would go negative
package store
