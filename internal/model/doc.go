// Package model defines the entities of the order hub: stores, suppliers,
// items (master data), orders with their nested order items, settings, and
// the order-id counter table. The full application state is a single
// AppState value; all mutation goes through the engine's transition
// function, which treats AppState as immutable and returns fresh copies.
package model
