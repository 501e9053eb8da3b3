package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

func TestClient_FetchSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/items":
			json.NewEncoder(w).Encode([]model.Item{{ID: "item-1", Name: "Onions", ModifiedAt: now}})
		case "/suppliers":
			json.NewEncoder(w).Encode([]model.Supplier{{ID: "sup-1", Name: "ACME", ModifiedAt: now}})
		case "/orders":
			json.NewEncoder(w).Encode([]model.Order{{ID: "ord-1", Status: model.StatusDispatching, Items: []model.OrderItem{}, ModifiedAt: now}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	snap, err := c.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.Len(t, snap.Suppliers, 1)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "ord-1", snap.Orders[0].ID)
}

func TestClient_FetchSnapshotSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.FetchSnapshot(context.Background())
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadGateway, re.Status)
}

func TestClient_CreateItemPostsAndDecodesRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/items", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in model.Item
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "srv-42"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	row, err := c.CreateItem(context.Background(), model.Item{Name: "Onions", Unit: "kg"})
	require.NoError(t, err)
	assert.Equal(t, "srv-42", row.ID)
	assert.Equal(t, "Onions", row.Name)
}

func TestClient_UpdateItemPatchesByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/items/item-1", r.URL.Path)
		json.NewEncoder(w).Encode(model.Item{ID: "item-1", Name: "Red Onions"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	row, err := c.UpdateItem(context.Background(), model.Item{ID: "item-1", Name: "Red Onions"})
	require.NoError(t, err)
	assert.Equal(t, "Red Onions", row.Name)
}

func TestClient_DeleteItem(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	require.NoError(t, c.DeleteItem(context.Background(), "item-1"))
	assert.Equal(t, "/items/item-1", gotPath)
}

func TestClient_PushOrdersBatch(t *testing.T) {
	var got []model.Order
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	orders := []model.Order{{ID: "ord-1"}, {ID: "ord-2"}}
	require.NoError(t, c.PushOrders(context.Background(), orders))
	require.Len(t, got, 2)
}

func TestFeedClient_FetchReturnsStableFingerprint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ACME\tOnions\tkg\n"))
	}))
	defer srv.Close()

	f := NewFeedClient(srv.URL, 5*time.Second)
	raw, fp, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ACME\tOnions\tkg\n", raw)
	assert.Equal(t, Fingerprint(raw), fp)

	_, fp2, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fp, fp2, "identical content yields an identical fingerprint")
}

func TestFingerprint_DiffersOnContent(t *testing.T) {
	assert.NotEqual(t, Fingerprint("a"), Fingerprint("b"))
}

func TestProbeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	probe := ProbeURL(srv.URL, time.Second)
	assert.True(t, probe(context.Background()))

	srv.Close()
	assert.False(t, probe(context.Background()), "transport failure means offline")
}
