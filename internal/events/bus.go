package events

import (
	"context"
	"log"
	"sync"
)

// Event type names, one per entity that screens subscribe to.
const (
	TypeBalanceChanged   = "balance.changed"
	TypeInvestmentUpdate = "investment.updated"
	TypeProgressUpdate   = "title_progress.updated"
	TypeMileageUpdate    = "mileage.updated"
	TypeChargeHistory    = "charge_history.updated"
)

// Event is a change notification with a typed payload.
type Event interface {
	Type() string
}

// BalanceChanged is emitted whenever the user's cash balance moves.
type BalanceChanged struct {
	UserID     string
	NewBalance int64
}

func (BalanceChanged) Type() string { return TypeBalanceChanged }

// InvestmentUpdated is emitted after an investment or cancellation.
type InvestmentUpdated struct {
	UserID          string
	TitleID         string
	Amount          int64 // signed: negative for cancellation
	NewBalance      int64
	TotalInvestment int64 // the user's accumulated position, 0 after cancel
}

func (InvestmentUpdated) Type() string { return TypeInvestmentUpdate }

// TitleProgressUpdated is emitted when a title's funding overlay changes.
type TitleProgressUpdated struct {
	TitleID         string
	CurrentRaised   int64
	TotalInvestors  int
	ProgressPercent float64
}

func (TitleProgressUpdated) Type() string { return TypeProgressUpdate }

// MileageUpdated is emitted when points are earned or used.
type MileageUpdated struct {
	UserID       string
	TotalMileage int64
}

func (MileageUpdated) Type() string { return TypeMileageUpdate }

// ChargeHistoryUpdated is emitted when a charge or refund record lands.
type ChargeHistoryUpdated struct {
	UserID string
}

func (ChargeHistoryUpdated) Type() string { return TypeChargeHistory }

// HandlerFunc consumes one published event. Publishing is fire-and-forget;
// handler errors are the handler's problem.
type HandlerFunc func(ctx context.Context, event Event)

// Bus is an in-process publish/subscribe channel for change notifications.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]HandlerFunc)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish dispatches the event synchronously to all subscribers of its
// type. A panicking handler is recovered so it cannot take down the caller.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]HandlerFunc{}, b.handlers[event.Type()]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[EVENTS] Panic in handler for %s: %v", event.Type(), r)
				}
			}()
			handler(ctx, event)
		}()
	}
}
