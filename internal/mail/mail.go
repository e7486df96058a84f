// Package mail delivers OTP e-mails.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMTPSender sends plain-text OTP mails through an SMTP relay.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, User: user, Pass: pass, From: from, send: smtp.SendMail}
}

// SendOTP mails otp to the given address. net/smtp has no context support,
// so ctx is only checked before dialing.
func (s *SMTPSender) SendOTP(ctx context.Context, to string, otp int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if err := s.send(addr, auth, s.From, []string{to}, otpMessage(s.From, to, otp, time.Now())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func otpMessage(from, to string, otp int, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your password reset code\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Your one-time password is %d.\r\n\r\nIf you did not ask to reset your password, ignore this e-mail.\r\n", otp)
	return []byte(b.String())
}

// LogSender writes the OTP to the log instead of mailing it. Used when no
// SMTP relay is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) SendOTP(_ context.Context, to string, otp int) error {
	s.Log.Info("otp issued", zap.String("to", to), zap.Int("otp", otp))
	return nil
}
