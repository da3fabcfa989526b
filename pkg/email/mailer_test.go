package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  SendEmailParams
		wantErr bool
	}{
		{
			name: "valid with text body",
			params: SendEmailParams{
				SendTo:   "user@example.com",
				Subject:  "Hello",
				BodyText: "Hi there",
			},
		},
		{
			name: "valid with html body only",
			params: SendEmailParams{
				SendTo:   "user@example.com",
				Subject:  "Hello",
				BodyHTML: "<p>Hi</p>",
			},
		},
		{
			name:    "missing recipient",
			params:  SendEmailParams{Subject: "Hello", BodyText: "Hi"},
			wantErr: true,
		},
		{
			name:    "invalid recipient",
			params:  SendEmailParams{SendTo: "not-an-email", Subject: "Hello", BodyText: "Hi"},
			wantErr: true,
		},
		{
			name:    "missing subject",
			params:  SendEmailParams{SendTo: "user@example.com", BodyText: "Hi"},
			wantErr: true,
		},
		{
			name:    "missing body",
			params:  SendEmailParams{SendTo: "user@example.com", Subject: "Hello"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fakePostmarkAPI struct {
	resp postmark.EmailResponse
	err  error
	got  postmark.Email
}

func (f *fakePostmarkAPI) SendEmail(ctx context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	f.got = e
	return f.resp, f.err
}

func TestPostmarkSender_SendEmail(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Transport:   TransportPostmark,
		SenderEmail: "no-reply@example.com",
		ReplyTo:     "support@example.com",
	}
	params := SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Welcome",
		BodyText: "Hello",
		BodyHTML: "<p>Hello</p>",
	}

	t.Run("success returns message id", func(t *testing.T) {
		t.Parallel()

		api := &fakePostmarkAPI{resp: postmark.EmailResponse{MessageID: "pm-123"}}
		s := &postmarkSender{client: api, config: cfg}

		id, err := s.SendEmail(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, "pm-123", id)
		assert.Equal(t, "no-reply@example.com", api.got.From)
		assert.Equal(t, "user@example.com", api.got.To)
	})

	t.Run("api error code means rejected", func(t *testing.T) {
		t.Parallel()

		api := &fakePostmarkAPI{resp: postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}}
		s := &postmarkSender{client: api, config: cfg}

		_, err := s.SendEmail(context.Background(), params)
		assert.ErrorIs(t, err, ErrRejected)
	})

	t.Run("transport error is retryable class", func(t *testing.T) {
		t.Parallel()

		api := &fakePostmarkAPI{err: errors.New("connection reset")}
		s := &postmarkSender{client: api, config: cfg}

		_, err := s.SendEmail(context.Background(), params)
		assert.ErrorIs(t, err, ErrFailedToSendEmail)
		assert.NotErrorIs(t, err, ErrRejected)
	})
}

func TestNewPostmarkSender_ConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPostmarkSender(Config{SenderEmail: "no-reply@example.com"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPostmarkSender(Config{
		PostmarkServerToken:  "srv",
		PostmarkAccountToken: "acc",
		SenderEmail:          "not-an-email",
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewSMTPSender_ConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSMTPSender(Config{SenderEmail: "no-reply@example.com"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSMTPSender(Config{SMTPHost: "localhost", SMTPPort: 1025, SenderEmail: "bad"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewSMTPSender(Config{SMTPHost: "localhost", SMTPPort: 1025, SenderEmail: "no-reply@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewDevSender(dir)

	id, err := s.SendEmail(context.Background(), SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Welcome Aboard",
		BodyText: "Hello",
		BodyHTML: "<p>Hello</p>",
		Tag:      "welcome",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "welcome"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	html, err := os.ReadFile(filepath.Join(dir, id+".html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello</p>", string(html))
}

func TestNew_TransportSelection(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Transport: Transport("carrier-pigeon"), SenderEmail: "a@b.co"})
	assert.ErrorIs(t, err, ErrUnknownTransport)

	s, err := New(Config{Transport: TransportDev, SenderEmail: "a@b.co", DevOutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DevSender{}, s)
}
