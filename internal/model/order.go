package model

import (
	"errors"
	"time"
)

// Order represents a menu or custom cake order. A nil ProductID marks a
// custom order, which starts in StatusPendingQuote with no price until an
// admin quotes one.
type Order struct {
	ID               int64     `json:"id"`
	UserID           *int64    `json:"user_id,omitempty"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	CustomerPhone    string    `json:"customer_phone,omitempty"`
	ProductID        *int64    `json:"product_id,omitempty"`
	ProductName      string    `json:"product_name"`
	Quantity         int       `json:"quantity"`
	Flavor           string    `json:"flavor,omitempty"`
	Note             string    `json:"note,omitempty"`
	ImageURLs        []string  `json:"image_urls"`
	DeliveryAt       time.Time `json:"delivery_at"`
	Status           string    `json:"status"`
	ProvisionalPrice float64   `json:"provisional_price"`
	FinalPrice       *float64  `json:"final_price,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Order statuses.
const (
	StatusPendingQuote = "pending-quote"
	StatusPending      = "pending"
	StatusConfirmed    = "confirmed"
	StatusCompleted    = "completed"
	StatusCanceled     = "canceled"
)

// CancelWindow is how long before delivery a customer may still cancel.
const CancelWindow = 24 * time.Hour

// Cancellation failures, distinguished so callers can show targeted messages.
var (
	ErrOrderClosed        = errors.New("order is already completed or canceled")
	ErrTooCloseToDelivery = errors.New("orders can only be canceled more than 24 hours before delivery")
)

// IsCustom reports whether the order was placed without a catalog product.
func (o *Order) IsCustom() bool {
	return o.ProductID == nil
}

// ValidStatus reports whether status is a known order status.
func ValidStatus(status string) bool {
	switch status {
	case StatusPendingQuote, StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// transitions is the forward-only status transition table. Completed and
// canceled are terminal.
var transitions = map[string][]string{
	StatusPendingQuote: {StatusPending, StatusCanceled},
	StatusPending:      {StatusConfirmed, StatusCompleted, StatusCanceled},
	StatusConfirmed:    {StatusCompleted, StatusCanceled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ProvisionalPrice computes the automatic price for a catalog order.
func ProvisionalPrice(basePrice, pricePerPerson float64, quantity int) float64 {
	return basePrice + pricePerPerson*float64(quantity)
}

// CanCancel checks whether a customer may cancel an order: the order must
// not be in a terminal status and delivery must be strictly more than
// CancelWindow away. Returns nil if cancellation is allowed.
func CanCancel(status string, deliveryAt, now time.Time) error {
	if status == StatusCompleted || status == StatusCanceled {
		return ErrOrderClosed
	}
	if deliveryAt.Sub(now) <= CancelWindow {
		return ErrTooCloseToDelivery
	}
	return nil
}

// IsActive reports whether an order counts as upcoming in a customer's
// history. It is the same predicate as CanCancel so the two views never
// drift apart.
func (o *Order) IsActive(now time.Time) bool {
	return CanCancel(o.Status, o.DeliveryAt, now) == nil
}
