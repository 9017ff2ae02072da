package worker

// documento_worker.go
// Processes render jobs from QueueDocumentos:
//  1. Load the stored document with its items; drop the job if the
//     document was edited after it was queued
//  2. Borrow a renderer from the pool and write the PDF
//  3. Store the file name on the document, still guarded by version
//  4. Optionally enqueue an email job with the PDF attached

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"maderera/internal/infra"
	"maderera/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DocumentoPDFJobPayload is the job envelope sent to QueueDocumentos.
type DocumentoPDFJobPayload struct {
	DocumentoID string  `json:"documento_id"`
	Version     int     `json:"version"`
	EnviarA     *string `json:"enviar_a,omitempty"`
}

type DocumentoWorker struct {
	repo        repository.DocumentoRepository
	pool        *infra.RenderPool
	dispatcher  *Dispatcher
	storagePath string
	empresa     string
}

func NewDocumentoWorker(
	repo repository.DocumentoRepository,
	pool *infra.RenderPool,
	dispatcher *Dispatcher,
	storagePath string,
	empresa string,
) *DocumentoWorker {
	return &DocumentoWorker{
		repo:        repo,
		pool:        pool,
		dispatcher:  dispatcher,
		storagePath: storagePath,
		empresa:     empresa,
	}
}

func (w *DocumentoWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload DocumentoPDFJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("documento_worker: invalid payload")
		return nil
	}
	id, err := uuid.Parse(payload.DocumentoID)
	if err != nil {
		log.Error().Str("documento_id", payload.DocumentoID).Msg("documento_worker: invalid documento_id")
		return nil
	}

	doc, err := w.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn().Str("documento_id", payload.DocumentoID).Msg("documento_worker: documento not found, skipping")
			return nil
		}
		return err
	}

	if payload.Version > 0 && doc.Version != payload.Version {
		log.Info().Str("documento_id", payload.DocumentoID).Int("version", payload.Version).
			Int("actual", doc.Version).Msg("documento_worker: documento edited since enqueue, skipping")
		return nil
	}

	modelo := infra.NuevoDocumentoModelo(doc, w.empresa)

	r, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	path, err := r.Render(modelo, w.storagePath)
	w.pool.Release(r)
	if err != nil {
		return err
	}

	stored, err := w.repo.SetPDFPath(ctx, id, doc.Version, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("documento_worker: store pdf path: %w", err)
	}
	if !stored {
		log.Info().Str("documento_id", payload.DocumentoID).Int("version", doc.Version).
			Msg("documento_worker: documento edited during render, discarding PDF")
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("pdf", path).Msg("documento_worker: remove stale PDF")
		}
		return nil
	}
	log.Info().Str("pdf", path).Str("documento_id", payload.DocumentoID).Msg("documento_worker: PDF generated")

	if payload.EnviarA == nil || *payload.EnviarA == "" || w.dispatcher == nil {
		return nil
	}
	emailJob := EmailJobPayload{
		ToEmail: *payload.EnviarA,
		Subject: fmt.Sprintf("%s - %s N° %06d", w.empresa, strings.ToUpper(doc.Tipo), doc.Numero),
		Body:    fmt.Sprintf("Adjuntamos su %s.\nTotal: $%s", doc.Tipo, doc.Total.StringFixed(2)),
		PDFPath: path,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		// The PDF is already stored; a lost email is not worth re-rendering.
		log.Warn().Err(err).Str("email", *payload.EnviarA).Msg("documento_worker: failed to enqueue email")
	}
	return nil
}
