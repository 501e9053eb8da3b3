package model

import "fmt"

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	// StatusDispatching is the initial state: the order is being assembled
	// and may still be edited or deleted.
	StatusDispatching OrderStatus = "DISPATCHING"

	// StatusOnTheWay means the order has been sent to the supplier.
	StatusOnTheWay OrderStatus = "ON_THE_WAY"

	// StatusCompleted is terminal: the order has been received.
	StatusCompleted OrderStatus = "COMPLETED"
)

// ValidStatuses lists every recognized order status.
var ValidStatuses = []OrderStatus{StatusDispatching, StatusOnTheWay, StatusCompleted}

// IsValid reports whether s is a recognized order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusDispatching, StatusOnTheWay, StatusCompleted:
		return true
	}
	return false
}

// StoreName identifies a physical store location.
// The set of locations is closed; orders reference stores by name only.
type StoreName string

const (
	StoreCV1 StoreName = "CV1"
	StoreCV2 StoreName = "CV2"
	StoreMP  StoreName = "MP"
)

// ValidStores lists every recognized store location.
var ValidStores = []StoreName{StoreCV1, StoreCV2, StoreMP}

// IsValid reports whether n is a recognized store location.
func (n StoreName) IsValid() bool {
	for _, s := range ValidStores {
		if n == s {
			return true
		}
	}
	return false
}

// ParseStore converts a raw string into a StoreName, rejecting unknown
// locations. Used at configuration and CLI boundaries.
func ParseStore(raw string) (StoreName, error) {
	n := StoreName(raw)
	if !n.IsValid() {
		return "", fmt.Errorf("unknown store %q (valid: %v)", raw, ValidStores)
	}
	return n, nil
}
