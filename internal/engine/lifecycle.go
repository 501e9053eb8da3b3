package engine

import (
	"fmt"
	"time"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// LifecycleEvent names a transition of the order state machine.
type LifecycleEvent string

const (
	LifecycleSend    LifecycleEvent = "send"
	LifecycleUnsend  LifecycleEvent = "unsend"
	LifecycleReceive LifecycleEvent = "receive"
)

// ErrInvalidTransition reports a lifecycle event fired from a state that
// does not accept it.
type ErrInvalidTransition struct {
	From  model.OrderStatus
	Event LifecycleEvent
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition: %s from %s", e.Event, e.From)
}

// transition applies a lifecycle event to an order in place.
//
//	DISPATCHING --send--> ON_THE_WAY    (isSent=true)
//	ON_THE_WAY --unsend--> DISPATCHING  (isSent=false)
//	ON_THE_WAY --receive--> COMPLETED   (isReceived=true, completedAt=now if unset)
//
// completedAt, once set, is never overwritten: receiving an order that
// already carries a completion timestamp keeps the original.
func transition(o *model.Order, ev LifecycleEvent, now time.Time) error {
	switch ev {
	case LifecycleSend:
		if o.Status != model.StatusDispatching {
			return &ErrInvalidTransition{From: o.Status, Event: ev}
		}
		o.Status = model.StatusOnTheWay
		o.IsSent = true

	case LifecycleUnsend:
		if o.Status != model.StatusOnTheWay {
			return &ErrInvalidTransition{From: o.Status, Event: ev}
		}
		o.Status = model.StatusDispatching
		o.IsSent = false

	case LifecycleReceive:
		if o.Status != model.StatusOnTheWay {
			return &ErrInvalidTransition{From: o.Status, Event: ev}
		}
		o.Status = model.StatusCompleted
		o.IsReceived = true
		if o.CompletedAt == nil {
			t := now
			o.CompletedAt = &t
		}

	default:
		return &ErrInvalidTransition{From: o.Status, Event: ev}
	}
	return nil
}

// CanMutateItems is the caller-side policy for item-level edits: lines may
// be changed while the order is DISPATCHING or ON_THE_WAY. Apply itself
// does not enforce this - the engine is a mechanism, status gating is the
// shell's policy - but every shipped caller routes through this check.
func CanMutateItems(status model.OrderStatus) bool {
	return status == model.StatusDispatching || status == model.StatusOnTheWay
}
