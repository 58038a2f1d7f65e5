package email

import (
	"fmt"
	"net/smtp"
)

// Config holds SMTP settings. Username and Password are optional; when
// empty the service sends without authentication, which is what local
// relay containers expect.
type Config struct {
	Host         string
	Port         string
	From         string
	StaffAddress string
	Username     string
	Password     string
}

// Service sends transactional email via SMTP
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// StaffAddress returns the configured internal alert recipient
func (s *Service) StaffAddress() string {
	return s.cfg.StaffAddress
}

// SendOrderConfirmation sends the customer-facing confirmation email
func (s *Service) SendOrderConfirmation(to, orderNumber, customerName string, lines []OrderLine, subtotal, shippingCost, total int64) error {
	subject := fmt.Sprintf("Order confirmed - %s", orderNumber)
	body := BuildOrderConfirmation(orderNumber, customerName, lines, subtotal, shippingCost, total)
	return s.send(to, subject, body)
}

// SendStatusUpdate tells the customer their order moved through fulfillment
func (s *Service) SendStatusUpdate(to, orderNumber, status string) error {
	subject := fmt.Sprintf("Order %s - %s", orderNumber, status)
	body := BuildStatusUpdate(orderNumber, status)
	return s.send(to, subject, body)
}

// SendStaffAlert notifies the shop staff about a new order
func (s *Service) SendStaffAlert(orderNumber, customerEmail string, itemCount int, total int64) error {
	if s.cfg.StaffAddress == "" {
		return nil
	}
	subject := fmt.Sprintf("New order %s", orderNumber)
	body := BuildStaffAlert(orderNumber, customerEmail, itemCount, total)
	return s.send(s.cfg.StaffAddress, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}
