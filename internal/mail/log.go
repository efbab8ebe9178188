package mail

import (
	"log/slog"

	"github.com/erazemk/slascicarna/internal/model"
)

// Log writes emails to the log instead of sending them. Default when no
// SMTP host is configured, and handy in development.
type Log struct{}

func (Log) SendOrderConfirmation(to string, o *model.Order) error {
	slog.Info("email: order confirmation", "to", to, "order", orderSummary(o))
	return nil
}

func (Log) SendAdminNotification(to string, o *model.Order) error {
	slog.Info("email: new order notification", "to", to, "order", orderSummary(o))
	return nil
}

func (Log) SendPriceSet(to string, o *model.Order) error {
	slog.Info("email: price set", "to", to, "order", orderSummary(o))
	return nil
}

func (Log) SendPasswordReset(to, link string) error {
	slog.Info("email: password reset", "to", to, "link", link)
	return nil
}
