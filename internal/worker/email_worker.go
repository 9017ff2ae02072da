package worker

// email_worker.go
// Processes email jobs from QueueEmail: sends a rendered document to the
// client through SMTP, behind the mail circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"

	"maderera/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// MailSender is satisfied by *infra.Mailer.
type MailSender interface {
	Configurado() bool
	SendDocumento(to, subject, body, pdfPath string) error
}

type EmailWorker struct {
	mailer MailSender
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer MailSender, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process sends an email with the PDF attached. An empty recipient is not
// an error: there is nothing to retry.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.mailer.Configurado() {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP not configured, dropping email")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.SendDocumento(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: documento sent")
	return nil
}
