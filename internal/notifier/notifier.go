package notifier

import (
	"fmt"

	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/notifier/providers"
	"github.com/ibeckermayer/threadfeed/internal/report"
)

// Notifier emails run reports
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a notifier that sends to toAddr with the given sender
func New(sender Sender, toAddr string) *Notifier {
	return &Notifier{sender: sender, to: toAddr}
}

// NewFromConfig creates a notifier based on configuration
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if cfg.ToAddr == "" {
		return nil, fmt.Errorf("email.to_address is required")
	}

	var sender Sender

	switch cfg.Provider {
	case "smtp", "":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("email.smtp_host is required")
		}
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// SendReport emails a rendered run report
func (n *Notifier) SendReport(r *report.Rendered) error {
	if err := n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody); err != nil {
		return fmt.Errorf("failed to send report to %s: %w", n.to, err)
	}
	return nil
}
