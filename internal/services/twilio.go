package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// messageCreator is the part of the Twilio REST API we use
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService sends operator notices over the Twilio WhatsApp API
type TwilioService struct {
	api        messageCreator
	from       string // Format: "whatsapp:+14155238886"
	recipients []string
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(accountSid, authToken, from string, recipients []string) (*TwilioService, error) {
	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no Twilio notification recipients")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		api:        client.Api,
		from:       from,
		recipients: recipients,
	}, nil
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio
func (t *TwilioService) SendWhatsAppMessage(to string, message string) error {
	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		log.Error().Err(err).Str("to", to).Msg("❌ Failed to send WhatsApp message")
		return errors.Wrap(err, "send twilio message")
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Info().Str("sid", sid).Msg("✅ WhatsApp message sent")
	return nil
}

// NotifyCompletion messages every recipient with the job summary
func (t *TwilioService) NotifyCompletion(ctx context.Context, job *models.ImportJob) error {
	message := completionMessage(job)
	for _, to := range t.recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.SendWhatsAppMessage(to, message); err != nil {
			return err
		}
	}
	return nil
}
