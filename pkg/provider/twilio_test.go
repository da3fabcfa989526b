package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/saasforge/notifykit/pkg/provider"
)

type fakeTwilio struct {
	params *twilioapi.CreateMessageParams
	msg    *twilioapi.ApiV2010Message
	err    error
}

func (f *fakeTwilio) CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	f.params = params
	return f.msg, f.err
}

func twilioMessage(sid string) *twilioapi.ApiV2010Message {
	return &twilioapi.ApiV2010Message{Sid: &sid}
}

func TestSMSProvider(t *testing.T) {
	t.Parallel()

	t.Run("sends and returns the message sid", func(t *testing.T) {
		t.Parallel()

		fake := &fakeTwilio{msg: twilioMessage("SM123")}
		p := provider.NewSMSProvider(fake, "+15550009999")

		res := p.Send(context.Background(), provider.SMSPayload{To: "+15550001111", Body: "hello"})

		require.True(t, res.Success)
		assert.Equal(t, "SM123", res.MessageID)
		require.NotNil(t, fake.params)
		assert.Equal(t, "+15550001111", *fake.params.To)
		assert.Equal(t, "+15550009999", *fake.params.From)
		assert.Equal(t, "hello", *fake.params.Body)
	})

	t.Run("missing from number", func(t *testing.T) {
		t.Parallel()

		p := provider.NewSMSProvider(&fakeTwilio{}, "")
		res := p.Send(context.Background(), provider.SMSPayload{To: "+15550001111", Body: "hi"})

		require.False(t, res.Success)
		assert.Equal(t, provider.CodeMissingFrom, res.Error.Code)
		assert.False(t, res.Error.Retryable)
	})

	t.Run("validate requires recipient and body", func(t *testing.T) {
		t.Parallel()

		p := provider.NewSMSProvider(&fakeTwilio{}, "+15550009999")

		err := p.ValidatePayload(provider.SMSPayload{Body: "hi"})
		require.ErrorIs(t, err, provider.ErrMissingField)

		err = p.ValidatePayload(provider.SMSPayload{To: "+1555"})
		require.ErrorIs(t, err, provider.ErrMissingField)

		err = p.ValidatePayload(provider.EmailPayload{})
		require.ErrorIs(t, err, provider.ErrPayloadType)
	})

	t.Run("classifies API errors by status", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			err       error
			retryable bool
		}{
			{"rate limited", &twilioclient.TwilioRestError{Status: 429, Message: "too many requests"}, true},
			{"server error", &twilioclient.TwilioRestError{Status: 503, Message: "unavailable"}, true},
			{"invalid number", &twilioclient.TwilioRestError{Status: 400, Message: "invalid 'To' number"}, false},
			{"auth failure", &twilioclient.TwilioRestError{Status: 401, Message: "authenticate"}, false},
			{"transport failure", errors.New("connection reset"), true},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				p := provider.NewSMSProvider(&fakeTwilio{err: tt.err}, "+15550009999")
				res := p.Send(context.Background(), provider.SMSPayload{To: "+15550001111", Body: "hi"})

				require.False(t, res.Success)
				assert.Equal(t, provider.CodeSendFailed, res.Error.Code)
				assert.Equal(t, tt.retryable, res.Error.Retryable)
			})
		}
	})
}

func TestWhatsAppProvider(t *testing.T) {
	t.Parallel()

	t.Run("prefixes addresses with whatsapp scheme", func(t *testing.T) {
		t.Parallel()

		fake := &fakeTwilio{msg: twilioMessage("WA456")}
		p := provider.NewWhatsAppProvider(fake, "+15550009999")

		res := p.Send(context.Background(), provider.WhatsAppPayload{To: "+15550001111", Body: "hola"})

		require.True(t, res.Success)
		assert.Equal(t, "WA456", res.MessageID)
		assert.Equal(t, "whatsapp:+15550001111", *fake.params.To)
		assert.Equal(t, "whatsapp:+15550009999", *fake.params.From)
	})

	t.Run("missing from number", func(t *testing.T) {
		t.Parallel()

		p := provider.NewWhatsAppProvider(&fakeTwilio{}, "")
		res := p.Send(context.Background(), provider.WhatsAppPayload{To: "+15550001111", Body: "hi"})

		require.False(t, res.Success)
		assert.Equal(t, provider.CodeMissingFrom, res.Error.Code)
	})
}
