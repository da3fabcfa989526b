package provider

import (
	"encoding/json"
	"fmt"
)

// DecodePayload reconstructs a typed payload from its JSON form. Queue jobs
// persist payloads as raw JSON next to a channel tag; this is the inverse
// mapping used by dispatch workers.
func DecodePayload(ch Channel, raw []byte) (Payload, error) {
	switch ch {
	case ChannelEmail:
		var p EmailPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode email payload: %w", err)
		}
		return p, nil
	case ChannelSMS:
		var p SMSPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode sms payload: %w", err)
		}
		return p, nil
	case ChannelWhatsApp:
		var p WhatsAppPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode whatsapp payload: %w", err)
		}
		return p, nil
	case ChannelTelegram:
		var p TelegramPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode telegram payload: %w", err)
		}
		return p, nil
	case ChannelPush:
		var p PushPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode push payload: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("decode payload: channel %q has no payload type", ch)
}

// EncodePayload serializes a payload for queue persistence.
func EncodePayload(p Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Channel(), err)
	}
	return raw, nil
}
