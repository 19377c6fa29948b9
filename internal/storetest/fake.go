// Package storetest provides a scripted store.Store double for manager
// tests. Each method delegates to an optional func field; unset fields
// fall back to permissive defaults (reads miss, writes succeed). Every
// write is recorded so tests can assert on the exact transaction items
// a manager produced.
package storetest

import (
	"context"
	"iter"

	"github.com/weftlabs/weft/store"
)

// Fake is a scripted store.Store implementation.
type Fake struct {
	GetFunc      func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error)
	PutFunc      func(ctx context.Context, item store.TransactItem) error
	UpdateFunc   func(ctx context.Context, item store.TransactItem) error
	DeleteFunc   func(ctx context.Context, item store.TransactItem) error
	TransactFunc func(ctx context.Context, items ...store.TransactItem) error
	QueryFunc    func(ctx context.Context, spec store.QuerySpec) iter.Seq2[store.Item, error]

	// Writes records every single-item write in order.
	Writes []store.TransactItem

	// Transactions records the items of every TransactWrite call.
	Transactions [][]store.TransactItem

	// Queries records every query spec.
	Queries []store.QuerySpec
}

var _ store.Store = (*Fake)(nil)

// Get delegates to GetFunc, defaulting to a miss.
func (f *Fake) Get(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, key, consistency)
	}
	return nil, store.ErrNotFound
}

// PutConditional delegates to PutFunc, defaulting to success.
func (f *Fake) PutConditional(ctx context.Context, item store.TransactItem) error {
	f.Writes = append(f.Writes, item)
	if f.PutFunc != nil {
		return f.PutFunc(ctx, item)
	}
	return nil
}

// UpdateConditional delegates to UpdateFunc, defaulting to success.
func (f *Fake) UpdateConditional(ctx context.Context, item store.TransactItem) error {
	f.Writes = append(f.Writes, item)
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, item)
	}
	return nil
}

// DeleteConditional delegates to DeleteFunc, defaulting to success.
func (f *Fake) DeleteConditional(ctx context.Context, item store.TransactItem) error {
	f.Writes = append(f.Writes, item)
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, item)
	}
	return nil
}

// TransactWrite delegates to TransactFunc, defaulting to success.
func (f *Fake) TransactWrite(ctx context.Context, items ...store.TransactItem) error {
	f.Transactions = append(f.Transactions, items)
	if f.TransactFunc != nil {
		return f.TransactFunc(ctx, items...)
	}
	return nil
}

// Query delegates to QueryFunc, defaulting to an empty sequence.
func (f *Fake) Query(ctx context.Context, spec store.QuerySpec) iter.Seq2[store.Item, error] {
	f.Queries = append(f.Queries, spec)
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, spec)
	}
	return func(yield func(store.Item, error) bool) {}
}

// Items builds a sequence that yields the given items, then err if
// non-nil. Use it as a QueryFunc result.
func Items(items []store.Item, err error) iter.Seq2[store.Item, error] {
	return func(yield func(store.Item, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}
