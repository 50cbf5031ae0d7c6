package notify

import (
	"context"
	"fmt"
	"strings"

	"galapagosrental/internal/logger"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender sends short text notifications.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioSender struct {
	api  messageCreator
	from string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSender{api: client.Api, from: from}
}

func (s *TwilioSender) SendSMS(_ context.Context, to, body string) error {
	log := logger.WithComponent("sms")
	if !strings.HasPrefix(to, "+") {
		log.Warn().Msgf("destination %q is not E.164, SMS may fail", to)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sending SMS: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Info().Str("sid", *resp.Sid).Msg("SMS sent")
	}
	return nil
}

// Disabled drops messages when Twilio is not configured.
type Disabled struct{}

func (Disabled) SendSMS(context.Context, string, string) error { return nil }

// PaymentConfirmed is the SMS body sent after a successful checkout.
func PaymentConfirmed(orderNumber int, startDate, lang string) string {
	if lang == "en" {
		return fmt.Sprintf("Galápagos Rentals: payment received for order #%d. Pickup on %s. Details in your email.", orderNumber, startDate)
	}
	return fmt.Sprintf("Galápagos Rentals: recibimos tu pago de la orden #%d. Retiro el %s. Detalles en tu correo.", orderNumber, startDate)
}
