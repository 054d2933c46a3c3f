package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/internal/domain/notification"
)

const welcomeSubject = "Welcome to JetDesk"

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// WelcomeMailer sends the welcome email over SMTP.
type WelcomeMailer struct {
	sender    Sender
	fromEmail string
	fromName  string
	appURL    string
	logger    *zap.Logger
}

func NewWelcomeMailer(cfg config.EmailConfig, logger *zap.Logger) *WelcomeMailer {
	return NewWelcomeMailerWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg, logger)
}

func NewWelcomeMailerWithSender(sender Sender, cfg config.EmailConfig, logger *zap.Logger) *WelcomeMailer {
	return &WelcomeMailer{
		sender:    sender,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		appURL:    cfg.AppURL,
		logger:    logger,
	}
}

// NotifyWelcome renders and sends the email. gomail has no context support,
// so ctx is only checked before dialing.
func (m *WelcomeMailer) NotifyWelcome(ctx context.Context, msg notification.WelcomeMessage) error {
	if msg.Email == "" {
		return fmt.Errorf("welcome email for company %s: no recipient", msg.CompanyID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	htmlBody, err := renderWelcome(welcomeHTML, m.view(msg))
	if err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	textBody, err := renderWelcome(welcomeText, m.view(msg))
	if err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}

	message := gomail.NewMessage()
	message.SetHeader("From", message.FormatAddress(m.fromEmail, m.fromName))
	message.SetHeader("To", msg.Email)
	message.SetHeader("Subject", welcomeSubject)
	message.SetBody("text/plain", textBody)
	message.AddAlternative("text/html", htmlBody)

	if err := m.sender.DialAndSend(message); err != nil {
		return fmt.Errorf("send welcome email to %s: %w", msg.Email, err)
	}

	m.logger.Info("Welcome email sent",
		zap.String("company_id", msg.CompanyID),
		zap.String("email", msg.Email),
	)
	return nil
}

type welcomeView struct {
	Greeting    string
	CompanyName string
	AppURL      string
}

func (m *WelcomeMailer) view(msg notification.WelcomeMessage) welcomeView {
	greeting := msg.ContactName
	if greeting == "" {
		greeting = "there"
	}
	company := msg.CompanyName
	if company == "" {
		company = "your company"
	}
	return welcomeView{Greeting: greeting, CompanyName: company, AppURL: m.appURL}
}

type renderer interface {
	Execute(w io.Writer, data any) error
}

func renderWelcome(tmpl renderer, v welcomeView) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
