package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// ErrWebhookUnavailable is returned while the circuit breaker is open
var ErrWebhookUnavailable = errors.New("webhook circuit open")

// WebhookPayload is the JSON body posted when a job ends
type WebhookPayload struct {
	Event   string            `json:"event"`
	Message string            `json:"message"`
	Job     *models.ImportJob `json:"job"`
}

// WebhookNotifier posts job summaries to an HTTP endpoint behind a circuit breaker
type WebhookNotifier struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	url        string
}

// NewWebhookNotifier creates a notifier posting to url
func NewWebhookNotifier(url string, timeout time.Duration, failureThreshold uint32) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if failureThreshold == 0 {
		failureThreshold = 3
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "import-webhook",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &WebhookNotifier{
		httpClient: httpClient,
		cb:         cb,
		url:        url,
	}
}

func (w *WebhookNotifier) NotifyCompletion(ctx context.Context, job *models.ImportJob) error {
	payload := WebhookPayload{
		Event:   "import_" + job.Status,
		Message: completionMessage(job),
		Job:     job,
	}

	_, err := w.cb.Execute(func() (interface{}, error) {
		resp, err := w.httpClient.R().
			SetContext(ctx).
			SetBody(payload).
			Post(w.url)
		if err != nil {
			return nil, errors.Wrap(err, "post webhook")
		}
		if resp.StatusCode() >= http.StatusBadRequest {
			return nil, fmt.Errorf("webhook returned %d", resp.StatusCode())
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrWebhookUnavailable
	}
	return err
}
