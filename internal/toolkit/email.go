package toolkit

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"aide/internal/registry"
	"aide/pkg/logger"
)

// EmailConfig holds the account settings for the email tool
type EmailConfig struct {
	SMTPHost    string
	SMTPPort    int
	IMAPHost    string
	IMAPPort    int
	Address     string
	AppPassword string
}

// EmailTool sends mail over SMTP and lists the inbox over IMAP using a
// single app-password account
type EmailTool struct {
	cfg    EmailConfig
	logger *zap.Logger
}

// NewEmailTool creates the email tool, or nil when the account is not
// configured
func NewEmailTool(cfg EmailConfig) *EmailTool {
	if cfg.Address == "" || cfg.AppPassword == "" {
		return nil
	}
	return &EmailTool{
		cfg:    cfg,
		logger: logger.Get(),
	}
}

// SendDescriptor declares send_email
func (e *EmailTool) SendDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:        ToolSendEmail,
		Description: "Send an email from the user's account. Use for action items, meeting notes or sharing documents.",
		Parameters: map[string]registry.ParameterSpec{
			"to": {
				Type:        "string",
				Description: "Recipient address",
				Required:    true,
			},
			"subject": {
				Type:        "string",
				Description: "Subject line",
				Required:    true,
			},
			"body": {
				Type:        "string",
				Description: "Plain text message body",
				Required:    true,
			},
		},
		Handler: e.send,
	}
}

// InboxDescriptor declares list_inbox
func (e *EmailTool) InboxDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:        ToolListInbox,
		Description: "List the most recent messages in the user's inbox (sender, subject, date).",
		Parameters: map[string]registry.ParameterSpec{
			"limit": {
				Type:        "integer",
				Description: "Maximum messages to return, default 5",
			},
		},
		Handler: e.listInbox,
	}
}

func (e *EmailTool) send(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)

	msg, err := composeMessage(e.cfg.Address, to, subject, body)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(e.cfg.SMTPHost, fmt.Sprintf("%d", e.cfg.SMTPPort))
	auth := smtp.PlainAuth("", e.cfg.Address, e.cfg.AppPassword, e.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, e.cfg.Address, []string{to}, msg); err != nil {
		return nil, fmt.Errorf("smtp send failed: %w", err)
	}

	e.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return map[string]interface{}{
		"to":      to,
		"subject": subject,
		"sent":    true,
	}, nil
}

// composeMessage builds an RFC 5322 message with a single text/plain part
func composeMessage(from, to, subject, body string) ([]byte, error) {
	toAddr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}

	var buf bytes.Buffer
	var h mail.Header
	h.SetDate(time.Now())
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message-id: %w", err)
	}
	h.SetSubject(subject)
	h.SetAddressList("From", []*mail.Address{fromAddr})
	h.SetAddressList("To", []*mail.Address{toAddr})

	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize message: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *EmailTool) listInbox(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	limit := 5
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	addr := net.JoinHostPort(e.cfg.IMAPHost, fmt.Sprintf("%d", e.cfg.IMAPPort))
	client, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: e.cfg.IMAPHost},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial failed: %w", err)
	}
	defer client.Close()

	if err := client.Login(e.cfg.Address, e.cfg.AppPassword).Wait(); err != nil {
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	mbox, err := client.Select("INBOX", nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("select inbox failed: %w", err)
	}
	if mbox.NumMessages == 0 {
		return map[string]interface{}{"messages": []interface{}{}, "total": 0}, nil
	}

	hi := mbox.NumMessages
	lo := uint32(1)
	if hi > uint32(limit) {
		lo = hi - uint32(limit) + 1
	}
	var seqSet imap.SeqSet
	seqSet.AddRange(lo, hi)

	msgs, err := client.Fetch(seqSet, &imap.FetchOptions{Envelope: true}).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	messages := make([]map[string]interface{}, 0, len(msgs))
	// Newest first
	for i := len(msgs) - 1; i >= 0; i-- {
		env := msgs[i].Envelope
		if env == nil {
			continue
		}
		var from string
		if len(env.From) > 0 {
			from = formatAddress(env.From[0])
		}
		messages = append(messages, map[string]interface{}{
			"from":    from,
			"subject": env.Subject,
			"date":    env.Date.Format(time.RFC1123),
		})
	}

	e.logger.Debug("Inbox listed", zap.Int("returned", len(messages)), zap.Uint32("total", mbox.NumMessages))
	return map[string]interface{}{
		"messages": messages,
		"total":    mbox.NumMessages,
	}, nil
}

func formatAddress(a imap.Address) string {
	addr := a.Addr()
	if a.Name != "" {
		return fmt.Sprintf("%s <%s>", a.Name, addr)
	}
	return addr
}
