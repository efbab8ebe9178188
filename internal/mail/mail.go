// Package mail sends transactional emails for order and account events.
// Failures are reported to the caller but must never fail the enclosing
// request; handlers log and move on.
package mail

import (
	"fmt"

	"github.com/erazemk/slascicarna/internal/model"
)

// Mailer sends the storefront's transactional emails.
type Mailer interface {
	SendOrderConfirmation(to string, o *model.Order) error
	SendAdminNotification(to string, o *model.Order) error
	SendPriceSet(to string, o *model.Order) error
	SendPasswordReset(to, link string) error
}

func orderSummary(o *model.Order) string {
	price := fmt.Sprintf("%.2f (provisional)", o.ProvisionalPrice)
	if o.FinalPrice != nil {
		price = fmt.Sprintf("%.2f", *o.FinalPrice)
	} else if o.Status == model.StatusPendingQuote {
		price = "to be quoted"
	}
	return fmt.Sprintf("Order #%d: %s x%d, delivery %s, status %s, price %s",
		o.ID, o.ProductName, o.Quantity, o.DeliveryAt.Format("2006-01-02 15:04"), o.Status, price)
}
