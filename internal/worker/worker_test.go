package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"maderera/internal/dto"
	"maderera/internal/infra"
	"maderera/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func popJob(t *testing.T, rdb *redis.Client, queue string) Job {
	t.Helper()
	raw, err := rdb.RPop(context.Background(), queue).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	return job
}

// ── Pool: retry / DLQ ────────────────────────────────────────────────────────

func TestProcessJob_RetryThenDLQ(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	calls := 0
	p := NewPool(rdb, map[string]Handler{
		JobEmail: HandlerFunc(func(context.Context, json.RawMessage) error {
			calls++
			return errors.New("smtp down")
		}),
	})

	require.NoError(t, NewDispatcher(rdb).EnqueueEmail(ctx, EmailJobPayload{ToEmail: "a@b.c"}))

	for attempt := 1; attempt < MaxJobAttempts; attempt++ {
		raw, err := rdb.RPop(ctx, QueueEmail).Result()
		require.NoError(t, err)
		p.processJob(ctx, QueueEmail, raw)

		n, _ := rdb.LLen(ctx, QueueEmail).Result()
		require.EqualValues(t, 1, n, "job re-enqueued after attempt %d", attempt)
	}

	raw, err := rdb.RPop(ctx, QueueEmail).Result()
	require.NoError(t, err)
	p.processJob(ctx, QueueEmail, raw)

	assert.Equal(t, MaxJobAttempts, calls)
	n, _ := rdb.LLen(ctx, QueueEmail).Result()
	assert.Zero(t, n)
	dlq, err := DLQLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dlq)

	var entry DLQEntry
	rawEntry, _ := rdb.LIndex(ctx, DLQPrefix+QueueEmail, 0).Result()
	require.NoError(t, json.Unmarshal([]byte(rawEntry), &entry))
	assert.Equal(t, JobEmail, entry.JobType)
	assert.Equal(t, "smtp down", entry.Reason)
	assert.Equal(t, MaxJobAttempts, entry.Attempts)
}

func TestProcessJob_Success(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	var got EmailJobPayload
	p := NewPool(rdb, map[string]Handler{
		JobEmail: HandlerFunc(func(_ context.Context, raw json.RawMessage) error {
			return json.Unmarshal(raw, &got)
		}),
	})

	require.NoError(t, NewDispatcher(rdb).EnqueueEmail(ctx, EmailJobPayload{ToEmail: "cliente@example.com"}))
	raw, _ := rdb.RPop(ctx, QueueEmail).Result()
	p.processJob(ctx, QueueEmail, raw)

	assert.Equal(t, "cliente@example.com", got.ToEmail)
	dlq, _ := DLQLength(ctx, rdb, QueueEmail)
	assert.Zero(t, dlq)
}

func TestProcessJob_SinHandlerYMalformado(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	p := NewPool(rdb, map[string]Handler{})

	p.processJob(ctx, QueueDocumentos, `{"type":"desconocido","payload":{}}`)
	p.processJob(ctx, QueueDocumentos, `{not json`)

	dlq, _ := DLQLength(ctx, rdb, QueueDocumentos)
	assert.EqualValues(t, 2, dlq)
}

func TestReplayDLQ(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	SendToDLQ(ctx, rdb, QueueDocumentos, JobDocumentoPDF, json.RawMessage(`{"documento_id":"x"}`), "boom", 3)
	SendToDLQ(ctx, rdb, QueueDocumentos, "", json.RawMessage(`"garbage"`), "malformed envelope", 0)
	SendToDLQ(ctx, rdb, QueueDocumentos, JobDocumentoPDF, json.RawMessage(`{"documento_id":"y"}`), "boom", 3)

	moved, err := ReplayDLQ(ctx, rdb, QueueDocumentos, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	dlq, _ := DLQLength(ctx, rdb, QueueDocumentos)
	assert.Zero(t, dlq)

	job := popJob(t, rdb, QueueDocumentos)
	assert.Equal(t, JobDocumentoPDF, job.Type)
	assert.Zero(t, job.Attempts, "replayed jobs start with a fresh attempt counter")
}

func TestPool_StartConsumesQueue(t *testing.T) {
	rdb := newTestRedis(t)
	done := make(chan string, 1)
	p := NewPool(rdb, map[string]Handler{
		JobDocumentoPDF: HandlerFunc(func(_ context.Context, raw json.RawMessage) error {
			var payload DocumentoPDFJobPayload
			_ = json.Unmarshal(raw, &payload)
			done <- payload.DocumentoID
			return nil
		}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx, 2)
	require.NoError(t, NewDispatcher(rdb).EnqueueDocumentoPDF(context.Background(), DocumentoPDFJobPayload{DocumentoID: "doc-1"}))

	select {
	case id := <-done:
		assert.Equal(t, "doc-1", id)
	case <-time.After(3 * time.Second):
		t.Fatal("job was not processed")
	}
	cancel()
	p.Wait()
}

// ── DocumentoWorker ──────────────────────────────────────────────────────────

type fakeDocumentoRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*model.Documento
	// editarDuranteRender bumps the version right before the path is stored.
	editarDuranteRender bool
}

func (r *fakeDocumentoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Documento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocumentoRepo) List(context.Context, dto.DocumentoFilter) ([]model.Documento, int64, error) {
	return nil, 0, nil
}

func (r *fakeDocumentoRepo) SetPDFPath(_ context.Context, id uuid.UUID, version int, path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.docs[id]
	if r.editarDuranteRender {
		d.Version++
	}
	if d.Version != version {
		return false, nil
	}
	d.PDFPath = &path
	return true, nil
}

func (r *fakeDocumentoRepo) CreateTx(*gorm.DB, *model.Documento) error  { return nil }
func (r *fakeDocumentoRepo) ReplaceTx(*gorm.DB, *model.Documento) error { return nil }
func (r *fakeDocumentoRepo) NextNumeroTx(*gorm.DB, string) (int, error) { return 1, nil }

func documentoDePrueba() *model.Documento {
	return &model.Documento{
		ID:                uuid.New(),
		Tipo:              model.DocumentoPresupuesto,
		Numero:            7,
		Version:           1,
		ClienteNombre:     "Constructora Sur",
		PagoEnEfectivo:    true,
		Subtotal:          decimal.NewFromInt(13000),
		DescuentoTotal:    decimal.Zero,
		DescuentoEfectivo: decimal.NewFromInt(1300),
		CostoEnvio:        decimal.NewFromInt(1300),
		Total:             decimal.NewFromInt(13000),
		CreatedAt:         time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		Items: []model.DocumentoItem{{
			Nombre: "Tirante pino 2x4", Cantidad: decimal.NewFromInt(2),
			Precio: decimal.NewFromInt(6500), Subtotal: decimal.NewFromInt(13000),
		}},
	}
}

func TestDocumentoWorker_RenderizaYEncolaEmail(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	dir := t.TempDir()
	doc := documentoDePrueba()
	repo := &fakeDocumentoRepo{docs: map[uuid.UUID]*model.Documento{doc.ID: doc}}
	w := NewDocumentoWorker(repo, infra.NewRenderPool(1, time.Minute), NewDispatcher(rdb), dir, "Maderera Test")

	to := "cliente@example.com"
	raw, _ := json.Marshal(DocumentoPDFJobPayload{DocumentoID: doc.ID.String(), Version: 1, EnviarA: &to})
	require.NoError(t, w.Process(ctx, raw))

	require.NotNil(t, doc.PDFPath)
	assert.Equal(t, "presupuesto_000007.pdf", *doc.PDFPath)
	info, err := os.Stat(filepath.Join(dir, *doc.PDFPath))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	job := popJob(t, rdb, QueueEmail)
	assert.Equal(t, JobEmail, job.Type)
	var email EmailJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &email))
	assert.Equal(t, to, email.ToEmail)
	assert.Contains(t, email.Subject, "PRESUPUESTO N° 000007")
	assert.Equal(t, filepath.Join(dir, "presupuesto_000007.pdf"), email.PDFPath)
}

func TestDocumentoWorker_JobDeVersionAnteriorSeDescarta(t *testing.T) {
	dir := t.TempDir()
	doc := documentoDePrueba()
	doc.Version = 2
	repo := &fakeDocumentoRepo{docs: map[uuid.UUID]*model.Documento{doc.ID: doc}}
	w := NewDocumentoWorker(repo, infra.NewRenderPool(1, time.Minute), nil, dir, "M")

	raw, _ := json.Marshal(DocumentoPDFJobPayload{DocumentoID: doc.ID.String(), Version: 1})
	require.NoError(t, w.Process(context.Background(), raw))

	assert.Nil(t, doc.PDFPath)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	raw, _ = json.Marshal(DocumentoPDFJobPayload{DocumentoID: doc.ID.String(), Version: 2})
	require.NoError(t, w.Process(context.Background(), raw))
	require.NotNil(t, doc.PDFPath)
	assert.Equal(t, "presupuesto_000007_v2.pdf", *doc.PDFPath)
}

func TestDocumentoWorker_EdicionDuranteRender(t *testing.T) {
	dir := t.TempDir()
	doc := documentoDePrueba()
	repo := &fakeDocumentoRepo{docs: map[uuid.UUID]*model.Documento{doc.ID: doc}, editarDuranteRender: true}
	w := NewDocumentoWorker(repo, infra.NewRenderPool(1, time.Minute), nil, dir, "M")

	raw, _ := json.Marshal(DocumentoPDFJobPayload{DocumentoID: doc.ID.String(), Version: 1})
	require.NoError(t, w.Process(context.Background(), raw))

	assert.Nil(t, doc.PDFPath)
	_, err := os.Stat(filepath.Join(dir, "presupuesto_000007.pdf"))
	assert.True(t, os.IsNotExist(err), "stale PDF must be removed")
}

func TestDocumentoWorker_DocumentoInexistente(t *testing.T) {
	repo := &fakeDocumentoRepo{docs: map[uuid.UUID]*model.Documento{}}
	w := NewDocumentoWorker(repo, infra.NewRenderPool(1, time.Minute), nil, t.TempDir(), "M")

	raw, _ := json.Marshal(DocumentoPDFJobPayload{DocumentoID: uuid.NewString()})
	assert.NoError(t, w.Process(context.Background(), raw), "missing documents are not retried")
	assert.NoError(t, w.Process(context.Background(), json.RawMessage(`{"documento_id":"nope"}`)))
}

// ── EmailWorker ──────────────────────────────────────────────────────────────

type fakeMailer struct {
	configurado bool
	err         error
	enviados    int
}

func (m *fakeMailer) Configurado() bool { return m.configurado }

func (m *fakeMailer) SendDocumento(string, string, string, string) error {
	m.enviados++
	return m.err
}

func TestEmailWorker_BreakerAbre(t *testing.T) {
	mailer := &fakeMailer{configurado: true, err: errors.New("dial tcp: timeout")}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "smtp", FailureThreshold: 2, OpenTimeout: time.Hour})
	w := NewEmailWorker(mailer, cb)
	raw, _ := json.Marshal(EmailJobPayload{ToEmail: "a@b.c"})

	assert.Error(t, w.Process(context.Background(), raw))
	assert.Error(t, w.Process(context.Background(), raw))
	assert.Equal(t, infra.CBOpen, cb.State())

	err := w.Process(context.Background(), raw)
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Equal(t, 2, mailer.enviados, "open breaker short-circuits the send")
}

func TestEmailWorker_SinSMTP(t *testing.T) {
	mailer := &fakeMailer{}
	w := NewEmailWorker(mailer, infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp")))
	raw, _ := json.Marshal(EmailJobPayload{ToEmail: "a@b.c"})

	assert.NoError(t, w.Process(context.Background(), raw))
	assert.Zero(t, mailer.enviados)
}

// ── Scheduler ────────────────────────────────────────────────────────────────

type fakeAlertas struct{ n int }

func (f fakeAlertas) ObtenerAlertas(context.Context) ([]dto.AlertaStockResponse, error) {
	out := make([]dto.AlertaStockResponse, f.n)
	return out, nil
}

func TestLogAlertasStock(t *testing.T) {
	assert.Equal(t, 3, LogAlertasStock(context.Background(), fakeAlertas{n: 3}))
}

func TestStartScheduler_CronInvalido(t *testing.T) {
	_, err := StartScheduler(context.Background(), SchedulerConfig{Alertas: fakeAlertas{}, AlertasCron: "no es cron"})
	assert.Error(t, err)
}

func TestStartScheduler(t *testing.T) {
	s, err := StartScheduler(context.Background(), SchedulerConfig{
		Alertas:     fakeAlertas{},
		AlertasCron: "*/30 * * * *",
		RenderPool:  infra.NewRenderPool(1, time.Minute),
	})
	require.NoError(t, err)
	defer s.Stop()
	assert.Len(t, s.Jobs(), 2)
}
