package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/erazemk/slascicarna/internal/model"
)

// SMTP sends emails through a plain-auth SMTP relay.
type SMTP struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (s *SMTP) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	if err := smtp.SendMail(s.Host+":"+s.Port, auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func (s *SMTP) SendOrderConfirmation(to string, o *model.Order) error {
	body := fmt.Sprintf("Thank you for your order!\n\n%s\n\nWe will be in touch if anything needs clarifying.", orderSummary(o))
	return s.send(to, fmt.Sprintf("Order #%d received", o.ID), body)
}

func (s *SMTP) SendAdminNotification(to string, o *model.Order) error {
	body := fmt.Sprintf("A new order came in.\n\n%s\nCustomer: %s <%s> %s\nNote: %s",
		orderSummary(o), o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.Note)
	return s.send(to, fmt.Sprintf("New order #%d", o.ID), body)
}

func (s *SMTP) SendPriceSet(to string, o *model.Order) error {
	price := 0.0
	if o.FinalPrice != nil {
		price = *o.FinalPrice
	}
	body := fmt.Sprintf("Your order has been quoted.\n\n%s\n\nPrice: %.2f\nLog in to confirm or cancel.", orderSummary(o), price)
	return s.send(to, fmt.Sprintf("Price set for order #%d", o.ID), body)
}

func (s *SMTP) SendPasswordReset(to, link string) error {
	body := fmt.Sprintf("A password reset was requested for this address.\n\nReset link (valid 1 hour): %s\n\nIf this wasn't you, ignore this email.", link)
	return s.send(to, "Password reset", body)
}
