// Package queue moves OTP e-mails through RabbitMQ so the request that
// issued a code does not wait on the mail server.
package queue

// OTPRequestedEvent is published whenever a password-reset code is issued.
type OTPRequestedEvent struct {
	Email       string `json:"email"`
	OTP         int    `json:"otp"`
	RequestedAt string `json:"requested_at"` // RFC 3339, UTC
}

const otpQueueName = "otp.requested"
