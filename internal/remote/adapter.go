package remote

import (
	"context"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// MasterDataAPI is the subset of the remote database the adapter commits
// through. Satisfied by *Client; tests substitute a fake.
type MasterDataAPI interface {
	CreateItem(ctx context.Context, item model.Item) (model.Item, error)
	UpdateItem(ctx context.Context, item model.Item) (model.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	UpdateSupplier(ctx context.Context, sup model.Supplier) (model.Supplier, error)
}

// Dispatch feeds exactly one action into the single-writer queue.
type Dispatch func(engine.Action)

// ActionAdapter wraps master-data mutations with a remote-first commit
// protocol: the remote call must succeed before the corresponding local
// action is dispatched. On remote failure local state is left untouched
// and the error is returned to the caller.
//
// This is the inverse of the order discipline - orders are local-first and
// reconciled asynchronously - because items and suppliers are shared
// reference data that must never diverge from the remote source.
//
// Callers must not issue two concurrent mutations for the same entity;
// ordering between their completions is unspecified.
type ActionAdapter struct {
	api      MasterDataAPI
	dispatch Dispatch
}

// NewActionAdapter creates an adapter committing through api and applying
// confirmed mutations via dispatch.
func NewActionAdapter(api MasterDataAPI, dispatch Dispatch) *ActionAdapter {
	return &ActionAdapter{api: api, dispatch: dispatch}
}

// CreateItem persists the item remotely, then applies the server-returned
// row (with its assigned id and timestamps) locally.
func (a *ActionAdapter) CreateItem(ctx context.Context, item model.Item) (model.Item, error) {
	row, err := a.api.CreateItem(ctx, item)
	if err != nil {
		return model.Item{}, err
	}
	a.dispatch(engine.AddItem{Item: row})
	return row, nil
}

// UpdateItem persists the update remotely, then applies the stored row
// locally (including denormalization repair inside the engine).
func (a *ActionAdapter) UpdateItem(ctx context.Context, item model.Item) (model.Item, error) {
	row, err := a.api.UpdateItem(ctx, item)
	if err != nil {
		return model.Item{}, err
	}
	a.dispatch(engine.UpdateItem{Item: row})
	return row, nil
}

// DeleteItem deletes remotely, then removes the local cache entry.
func (a *ActionAdapter) DeleteItem(ctx context.Context, itemID string) error {
	if err := a.api.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	a.dispatch(engine.DeleteItem{ItemID: itemID})
	return nil
}

// UpdateSupplier persists the update remotely, then applies the stored row
// locally.
func (a *ActionAdapter) UpdateSupplier(ctx context.Context, sup model.Supplier) (model.Supplier, error) {
	row, err := a.api.UpdateSupplier(ctx, sup)
	if err != nil {
		return model.Supplier{}, err
	}
	a.dispatch(engine.UpdateSupplier{Supplier: row})
	return row, nil
}
