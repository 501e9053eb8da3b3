// Package remote holds the collaborator boundary: the structured remote
// database, the flat master-data feed, and the remote-first action adapter
// that guards master-data mutations.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/merge"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// RemoteError reports a network failure or non-success response from a
// collaborator. Cached local state remains fully usable when one occurs.
type RemoteError struct {
	Op     string // e.g. "fetch snapshot", "create item"
	Status int    // HTTP status, 0 on transport failure
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is (or wraps) a RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Client talks to the structured remote database over its REST endpoints:
// flat supplier and item collections, orders with nested items, and
// per-entity write endpoints for master data.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given base URL. The timeout bounds
// every request; in-flight calls additionally honor context deadlines.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchSnapshot reads the full remote state: items, suppliers, and orders.
func (c *Client) FetchSnapshot(ctx context.Context) (merge.RemoteSnapshot, error) {
	var snap merge.RemoteSnapshot
	if err := c.get(ctx, "/items", &snap.Items); err != nil {
		return merge.RemoteSnapshot{}, err
	}
	if err := c.get(ctx, "/suppliers", &snap.Suppliers); err != nil {
		return merge.RemoteSnapshot{}, err
	}
	if err := c.get(ctx, "/orders", &snap.Orders); err != nil {
		return merge.RemoteSnapshot{}, err
	}
	return snap, nil
}

// CreateItem persists a new item remotely and returns the stored row,
// including the server-assigned id and timestamps.
func (c *Client) CreateItem(ctx context.Context, item model.Item) (model.Item, error) {
	var out model.Item
	err := c.write(ctx, http.MethodPost, "/items", "create item", item, &out)
	return out, err
}

// UpdateItem updates an item remotely and returns the stored row.
func (c *Client) UpdateItem(ctx context.Context, item model.Item) (model.Item, error) {
	var out model.Item
	err := c.write(ctx, http.MethodPatch, "/items/"+item.ID, "update item", item, &out)
	return out, err
}

// DeleteItem deletes an item remotely.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.write(ctx, http.MethodDelete, "/items/"+itemID, "delete item", nil, nil)
}

// UpdateSupplier updates a supplier remotely and returns the stored row.
func (c *Client) UpdateSupplier(ctx context.Context, sup model.Supplier) (model.Supplier, error) {
	var out model.Supplier
	err := c.write(ctx, http.MethodPatch, "/suppliers/"+sup.ID, "update supplier", sup, &out)
	return out, err
}

// PushOrders uploads locally created or modified orders. Best effort: the
// sync orchestrator calls it after a successful database sync so
// offline-created orders eventually reach the remote database.
func (c *Client) PushOrders(ctx context.Context, orders []model.Order) error {
	return c.write(ctx, http.MethodPost, "/orders/batch", "push orders", orders, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &RemoteError{Op: "fetch " + path, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Op: "fetch " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Op: "fetch " + path, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: "decode " + path, Err: err}
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path, op string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Err: err}
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: op, Status: resp.StatusCode}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RemoteError{Op: op, Err: err}
		}
	}
	return nil
}
