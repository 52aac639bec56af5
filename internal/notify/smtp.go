package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"silorecon/internal/config"
)

// DefaultSMTPAddr is Outlook's submission endpoint.
const DefaultSMTPAddr = "smtp.office365.com:587"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends an HTML mail with PLAIN auth. net/smtp upgrades to STARTTLS
// when the server offers it.
type SMTP struct {
	addr       string
	from       string
	subject    string
	reportURL  string
	recipients []string
	auth       smtp.Auth
	send       sendMailFunc
	now        func() time.Time
	log        *zap.Logger
}

func newSMTP(o config.Options, log *zap.Logger) (Notifier, error) {
	user := o.String("username", "")
	if user == "" {
		return nil, fmt.Errorf("smtp: username is required")
	}
	to, err := recipients(o)
	if err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}
	addr := o.String("addr", DefaultSMTPAddr)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("smtp: addr %q: %w", addr, err)
	}
	return &SMTP{
		addr:       addr,
		from:       o.String("from", user),
		subject:    o.String("subject", DefaultSubject),
		reportURL:  o.String("report_url", ""),
		recipients: to,
		auth:       smtp.PlainAuth("", user, o.String("password", ""), host),
		send:       smtp.SendMail,
		now:        time.Now,
		log:        log,
	}, nil
}

// Notify implements Notifier. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *SMTP) Notify(ctx context.Context, o Outcome) error {
	if err := ctx.Err(); err != nil {
		return &NotifyError{Strategy: "smtp", Err: err}
	}
	o.ReportURL = reportURL(o, s.reportURL)
	msg, err := s.compose(o)
	if err != nil {
		return &NotifyError{Strategy: "smtp", Err: err}
	}
	if err := s.send(s.addr, s.auth, s.from, s.recipients, msg); err != nil {
		return &NotifyError{Strategy: "smtp", Err: err}
	}
	s.log.Info("mail sent", zap.String("addr", s.addr), zap.Strings("recipients", s.recipients))
	return nil
}

func (s *SMTP) compose(o Outcome) ([]byte, error) {
	body, err := renderBody(o)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", s.subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String()), nil
}
