package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/config"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Sender delivers booking confirmations as WhatsApp messages through Twilio.
type Sender struct {
	api     messageCreator
	from    string
	enabled bool
	log     *zap.Logger
}

func NewSender(cfg config.TwilioConfig, log *zap.Logger) (*Sender, error) {
	if cfg.Enabled && (cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "") {
		return nil, errors.New("twilio account sid, auth token and sender number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newSender(client.Api, cfg.From, cfg.Enabled, log), nil
}

func newSender(api messageCreator, from string, enabled bool, log *zap.Logger) *Sender {
	return &Sender{api: api, from: from, enabled: enabled, log: log}
}

func Body(passengerName, flightRef string, ticketCount int) string {
	return fmt.Sprintf("Hello %s, your booking for flight %s with %d ticket(s) has been confirmed.", passengerName, flightRef, ticketCount)
}

// Send is a no-op returning nil while delivery is disabled.
func (s *Sender) Send(ctx context.Context, destination, passengerName, flightRef string, ticketCount int) error {
	if !s.enabled {
		s.log.Info("whatsapp messages are disabled", zap.String("flight_reference", flightRef))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(address(destination))
	params.SetFrom(address(s.from))
	params.SetBody(Body(passengerName, flightRef, ticketCount))

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return errors.Wrap(err, "send whatsapp message")
	}

	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	s.log.Info("whatsapp message sent", zap.String("sid", sid), zap.String("flight_reference", flightRef))
	return nil
}

func address(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
