package notification

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestService(cfg EmailConfig, sendErr error) (*EmailService, *capturedMail) {
	got := &capturedMail{}
	svc := NewEmailService(cfg)
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		got.addr, got.auth, got.from, got.to, got.msg = addr, a, from, to, string(msg)
		return sendErr
	}
	return svc, got
}

func TestSendWelcomeEmail(t *testing.T) {
	svc, got := newTestService(EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		User:     "mailer",
		Password: "secret",
		From:     "hello@digimenu.test",
		FromName: "DigiMenu",
	}, nil)

	err := svc.SendWelcomeEmail("owner@example.com", "Tom & Jerry's <Diner>", "http://localhost:8080/tom-jerrys-diner-menu/")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "hello@digimenu.test", got.from)
	assert.Equal(t, []string{"owner@example.com"}, got.to)
	assert.Contains(t, got.msg, "From: DigiMenu <hello@digimenu.test>\r\n")
	assert.Contains(t, got.msg, "To: owner@example.com\r\n")
	assert.Contains(t, got.msg, "Subject: Your DigiMenu is ready\r\n")
	assert.Contains(t, got.msg, `href="http://localhost:8080/tom-jerrys-diner-menu/"`)
	assert.Contains(t, got.msg, "Tom &amp; Jerry&#39;s &lt;Diner&gt;")
}

func TestSendWelcomeEmail_NoAuthWithoutUser(t *testing.T) {
	svc, got := newTestService(EmailConfig{Host: "localhost", Port: 25, From: "hello@digimenu.test"}, nil)

	require.NoError(t, svc.SendWelcomeEmail("owner@example.com", "Cafe", "http://x/cafe-menu/"))
	assert.Nil(t, got.auth)
	assert.Contains(t, got.msg, "From: hello@digimenu.test\r\n")
}

func TestSendWelcomeEmail_Errors(t *testing.T) {
	svc, _ := newTestService(EmailConfig{Host: "localhost", Port: 25, From: "hello@digimenu.test"}, errors.New("connection refused"))
	assert.EqualError(t, svc.SendWelcomeEmail("owner@example.com", "Cafe", "http://x/cafe-menu/"), "connection refused")

	svc, got := newTestService(EmailConfig{Host: "localhost", Port: 25, From: "hello@digimenu.test"}, nil)
	assert.Error(t, svc.SendWelcomeEmail("owner@example.com\r\nBcc: victim@example.com", "Cafe", "http://x/"))
	assert.Empty(t, got.msg)
}
