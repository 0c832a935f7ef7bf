package verification

import (
	"context"
	"io"
	"log"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/errors"
)

const (
	defaultSubject     = "【藥品特搜網】診所身分驗證碼"
	defaultMailTimeout = 30 * time.Second
)

// Mailer delivers a verification code to an address.
type Mailer interface {
	SendCode(ctx context.Context, to, code string) error
}

// MessageBody renders the mail body for code.
func MessageBody(code string) string {
	var b strings.Builder
	b.WriteString("親愛的醫事人員您好：\n\n")
	b.WriteString("您的驗證碼為：")
	b.WriteString(code)
	b.WriteString("\n\n請在網頁上輸入此代碼以完成藥品庫存回報。\n感謝您的貢獻！")
	return b.String()
}

// sendFunc delivers body through the shoutrrr service at rawURL.
type sendFunc func(rawURL, body string, timeout time.Duration) error

// SMTPMailer sends codes through the configured SMTP account using shoutrrr's smtp service.
type SMTPMailer struct {
	settings conf.MailSettings
	send     sendFunc
}

// NewSMTPMailer checks settings and returns a mailer. The account doubles as the
// sender address.
func NewSMTPMailer(settings conf.MailSettings) (*SMTPMailer, error) {
	var missing []string
	if settings.Host == "" {
		missing = append(missing, "mail.host")
	}
	if settings.Account == "" {
		missing = append(missing, "mail.account")
	}
	if settings.Password == "" {
		missing = append(missing, "mail.password")
	}
	if len(missing) > 0 {
		return nil, errors.Newf("mail settings incomplete: %s", strings.Join(missing, ", ")).
			Category(errors.CategoryConfiguration).
			Component("verification").
			Build()
	}
	if settings.Port <= 0 {
		settings.Port = 587
	}
	if settings.Subject == "" {
		settings.Subject = defaultSubject
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultMailTimeout
	}
	return &SMTPMailer{settings: settings, send: shoutrrrSend}, nil
}

// ServiceURL builds the shoutrrr smtp URL addressed to to.
func (m *SMTPMailer) ServiceURL(to string) string {
	q := url.Values{}
	q.Set("fromaddress", m.settings.Account)
	if m.settings.FromName != "" {
		q.Set("fromname", m.settings.FromName)
	}
	q.Set("toaddresses", to)
	q.Set("subject", m.settings.Subject)
	q.Set("auth", "Plain")
	q.Set("encryption", "Auto")
	q.Set("usestarttls", "yes")

	u := url.URL{
		Scheme:   "smtp",
		User:     url.UserPassword(m.settings.Account, m.settings.Password),
		Host:     net.JoinHostPort(m.settings.Host, strconv.Itoa(m.settings.Port)),
		Path:     "/",
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SendCode mails code to the address to.
func (m *SMTPMailer) SendCode(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := m.send(m.ServiceURL(to), MessageBody(code), m.settings.Timeout); err != nil {
		return errors.Newf("failed to send verification mail: %s", errors.ScrubMessage(err.Error())).
			Category(errors.CategoryMail).
			Component("verification").
			Context("smtp_host", m.settings.Host).
			Timing("send_mail", time.Since(start)).
			Build()
	}
	return nil
}

func shoutrrrSend(rawURL, body string, timeout time.Duration) error {
	sender, err := shoutrrr.CreateSender(rawURL)
	if err != nil {
		return err
	}
	sender.Timeout = timeout
	sender.SetLogger(log.New(io.Discard, "", 0))
	for _, e := range sender.Send(body, nil) {
		if e != nil {
			return e
		}
	}
	return nil
}
