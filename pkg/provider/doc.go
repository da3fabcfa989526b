// Package provider defines the delivery channels a notification can travel
// over and the adapters that talk to the external services behind them.
//
// Each external channel (email, sms, whatsapp, telegram, push) has one
// Provider implementation and one typed Payload. Providers report outcomes
// as a Result instead of returning errors: a failed Result carries a stable
// error code and a retryability flag, which is the only signal the dispatch
// queue uses to decide between rescheduling and giving up.
//
// Registry wires configured providers to channels:
//
//	registry, err := provider.BuildRegistry(cfg)
//	if err != nil {
//		return err
//	}
//	res := registry.Send(ctx, provider.ChannelEmail, provider.EmailPayload{
//		To:       "user@example.com",
//		Subject:  "Welcome",
//		TextBody: "Hello!",
//	})
//	if !res.Success {
//		log.Printf("send failed: %s (retryable=%t)", res.Error, res.Error.Retryable)
//	}
//
// Unconfigured channels stay usable: Send returns a providerNotConfigured
// failure rather than panicking, so a deployment can run with any subset of
// channels enabled.
package provider
