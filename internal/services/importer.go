package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ananth-NQI/wa-group-importer/internal/events"
	"github.com/Ananth-NQI/wa-group-importer/internal/models"
	"github.com/Ananth-NQI/wa-group-importer/internal/storage"
	"github.com/Ananth-NQI/wa-group-importer/internal/utils"
	"github.com/Ananth-NQI/wa-group-importer/internal/whatsapp"
)

// SessionProvider is the part of SessionManager the importer depends on
type SessionProvider interface {
	Client() (whatsapp.Client, error)
	Recover(ctx context.Context) error
}

// ImportRequest is the start_import command
type ImportRequest struct {
	GroupID    string `json:"groupId"`
	RawNumbers string `json:"rawNumbers"`
}

// RunnerOptions tune an ImportRunner. Zero values pick the defaults.
type RunnerOptions struct {
	Normalizer *utils.Normalizer
	Pacer      Pacer
	Notifier   Notifier
	Metrics    *Metrics
	Now        func() time.Time
	Location   *time.Location
}

// ImportRunner adds a batch of numbers to one group, one number at a time.
// At most one job runs per runner.
type ImportRunner struct {
	sessions   SessionProvider
	ledger     storage.Ledger
	store      storage.Store
	publisher  events.Publisher
	normalizer utils.Normalizer
	pacer      Pacer
	notifier   Notifier
	metrics    *Metrics
	now        func() time.Time
	loc        *time.Location

	mu     sync.Mutex
	job    *models.ImportJob
	cancel context.CancelFunc
	done   chan struct{}
}

// NewImportRunner creates a runner
func NewImportRunner(sessions SessionProvider, ledger storage.Ledger, store storage.Store, publisher events.Publisher, opts RunnerOptions) *ImportRunner {
	r := &ImportRunner{
		sessions:   sessions,
		ledger:     ledger,
		store:      store,
		publisher:  publisher,
		normalizer: utils.NewNormalizer(utils.India),
		pacer:      opts.Pacer,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		now:        opts.Now,
		loc:        opts.Location,
	}
	if opts.Normalizer != nil {
		r.normalizer = *opts.Normalizer
	}
	if r.pacer == nil {
		r.pacer = NewUniformJitter(DefaultMinDelay, DefaultMaxDelay)
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.loc == nil {
		r.loc = utils.IST()
	}
	return r
}

// Start validates the request and runs the job in the background.
// The job outlives ctx; use Cancel to stop it.
func (r *ImportRunner) Start(ctx context.Context, req ImportRequest) (*models.ImportJob, error) {
	job, client, jobCtx, err := r.prepare(ctx, context.WithoutCancel(ctx), req)
	if err != nil {
		return nil, err
	}

	started := job.Clone()
	go r.run(jobCtx, client, job)
	return started, nil
}

// Run validates the request and runs the job to the end. Cancelling ctx
// cancels the job.
func (r *ImportRunner) Run(ctx context.Context, req ImportRequest) (*models.ImportJob, error) {
	job, client, jobCtx, err := r.prepare(ctx, ctx, req)
	if err != nil {
		return nil, err
	}

	r.run(jobCtx, client, job)
	return job.Clone(), nil
}

// Cancel stops the running job before its next addition
func (r *ImportRunner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return ErrNoActiveImport
	}
	r.cancel()
	return nil
}

// Current returns a copy of the running job
func (r *ImportRunner) Current() (*models.ImportJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil {
		return nil, false
	}
	return r.job.Clone(), true
}

// Wait blocks until no job is running or ctx is done
func (r *ImportRunner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// prepare takes the single-job slot and runs every check that happens
// before the first addition. The slot is released on failure.
func (r *ImportRunner) prepare(ctx, parent context.Context, req ImportRequest) (*models.ImportJob, whatsapp.Client, context.Context, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return nil, nil, nil, ErrImportInProgress
	}
	jobCtx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	job, client, err := r.validate(ctx, req)
	if err != nil {
		r.publisher.Publish(events.New(events.TypeImportError, err.Error()))
		r.release()
		return nil, nil, nil, err
	}

	if err := r.ledger.Reset(); err != nil {
		r.publisher.Publish(events.New(events.TypeImportError, "Could not create results file: "+err.Error()))
		r.release()
		return nil, nil, nil, err
	}

	if err := r.store.CreateImportJob(job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to save import job")
	}

	r.mu.Lock()
	r.job = job.Clone()
	r.mu.Unlock()

	r.metrics.jobStarted()
	return job, client, jobCtx, nil
}

func (r *ImportRunner) validate(ctx context.Context, req ImportRequest) (*models.ImportJob, whatsapp.Client, error) {
	client, err := r.sessions.Client()
	if err != nil {
		return nil, nil, ErrSessionNotReady
	}

	numbers := r.normalizer.ParseNumbers(req.RawNumbers)
	if len(numbers) == 0 {
		return nil, nil, ErrNoValidNumbers
	}

	groupID := strings.TrimSpace(req.GroupID)
	if groupID == "" {
		return nil, nil, ErrGroupRequired
	}

	chat, err := client.Chat(ctx, groupID)
	if err != nil {
		if whatsapp.IsSessionFatal(err) {
			log.Warn().Err(err).Msg("session lost while resolving group")
			r.recoverInBackground(ctx)
			return nil, nil, ErrSessionExpired
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrGroupNotFound, err)
	}
	if !chat.IsGroup {
		return nil, nil, ErrNotAGroup
	}

	return &models.ImportJob{
		ID:        utils.NewJobID(),
		GroupID:   chat.ID,
		GroupName: chat.Name,
		Total:     len(numbers),
		Status:    models.ImportStatusRunning,
		Numbers:   numbers,
		StartedAt: r.now(),
	}, client, nil
}

func (r *ImportRunner) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = nil
	r.job = nil
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
}

func (r *ImportRunner) run(ctx context.Context, client whatsapp.Client, job *models.ImportJob) {
	defer r.release()
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Str("job_id", job.ID).
				Interface("panic", p).
				Str("stack", string(debug.Stack())).
				Msg("import job panicked")
			job.Status = models.ImportStatusAborted
			job.Error = fmt.Sprint(p)
			r.finish(job)
			r.publisher.Publish(events.New(events.TypeImportError, "Import aborted: "+job.Error))
		}
	}()

	log.Info().Str("job_id", job.ID).Str("group", job.GroupName).Int("total", job.Total).Msg("🚀 Import started")
	r.publisher.Publish(events.New(events.TypeImportStarted, events.ImportStarted{
		JobID:     job.ID,
		Total:     job.Total,
		GroupName: job.GroupName,
		Numbers:   append([]string(nil), job.Numbers...),
	}))

	start := r.now()
	for i, phone := range job.Numbers {
		if ctx.Err() != nil {
			r.cancelled(job)
			return
		}

		status, addErr := r.addOne(ctx, client, job.GroupID, phone)
		if addErr != nil && ctx.Err() != nil {
			// interrupted mid-call; the outcome is unknown so nothing is recorded
			r.cancelled(job)
			return
		}
		r.record(job, phone, status, addErr, start)
		if whatsapp.IsSessionFatal(addErr) {
			r.abandon(ctx, job, addErr)
			return
		}

		if i < len(job.Numbers)-1 {
			delay := r.pacer.Next()
			r.publishLog(events.LogWait, fmt.Sprintf("Waiting %.1fs...", delay.Seconds()))
			if !sleepWithContext(ctx, delay) {
				r.cancelled(job)
				return
			}
		}
	}

	job.Status = models.ImportStatusCompleted
	r.finish(job)
	log.Info().Str("job_id", job.ID).Int("success", job.Success).Int("failed", job.Failed).Msg("✅ Import finished")
	r.publisher.Publish(events.New(events.TypeImportFinished, events.ImportFinished{
		JobID:   job.ID,
		Success: job.Success,
		Failed:  job.Failed,
		Total:   job.Total,
	}))
	r.publishLog(events.LogDone, fmt.Sprintf("Done! %d added, %d failed. CSV saved.", job.Success, job.Failed))
}

func (r *ImportRunner) addOne(ctx context.Context, client whatsapp.Client, groupID, phone string) (string, error) {
	began := r.now()
	err := client.AddParticipant(ctx, groupID, whatsapp.ParticipantID(phone))
	took := r.now().Sub(began)

	if err != nil {
		r.metrics.observeAdd(models.ResultFailed, took)
		return models.ResultFailed, err
	}
	r.metrics.observeAdd(models.ResultAdded, took)
	return models.ResultAdded, nil
}

// record updates counters, ledger and history, then reports progress
func (r *ImportRunner) record(job *models.ImportJob, phone, status string, addErr error, start time.Time) {
	result := &models.ImportResult{
		JobID:       job.ID,
		Phone:       phone,
		Status:      status,
		ProcessedAt: r.now(),
	}

	if addErr != nil {
		job.Failed++
		result.Error = addErr.Error()
		r.publishLog(events.LogError, fmt.Sprintf("Failed %s: %s", phone, addErr.Error()))
	} else {
		job.Success++
		r.publishLog(events.LogSuccess, "Added "+phone)
	}
	job.Current++

	if err := r.ledger.Append(phone, status); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to append ledger row")
	}
	if err := r.store.AddImportResult(result); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to save import result")
	}
	if err := r.store.UpdateImportJob(job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to update import job")
	}

	r.mu.Lock()
	r.job = job.Clone()
	r.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(start)
	eta := time.Duration(job.Remaining()) * (elapsed / time.Duration(job.Current))

	r.publisher.Publish(events.New(events.TypeProgress, models.ProgressSnapshot{
		Current:        job.Current,
		Total:          job.Total,
		Success:        job.Success,
		Failed:         job.Failed,
		Phone:          phone,
		Status:         status,
		ETAMs:          eta.Milliseconds(),
		CompletionTime: now.Add(eta).In(r.loc).Format(utils.CompletionTimeLayout),
		ElapsedMs:      elapsed.Milliseconds(),
	}))
}

// abandon ends a job whose session was lost and starts reconnecting
func (r *ImportRunner) abandon(ctx context.Context, job *models.ImportJob, cause error) {
	job.Status = models.ImportStatusAborted
	job.Error = ErrSessionExpired.Error()
	r.finish(job)
	log.Warn().Err(cause).Str("job_id", job.ID).Int("processed", job.Current).Int("total", job.Total).Msg("⚠️ Session lost, import abandoned")
	r.publisher.Publish(events.New(events.TypeImportError, ErrSessionExpired.Error()))
	r.publishLog(events.LogDone, fmt.Sprintf("Stopped. %d added, %d failed, %d of %d processed.", job.Success, job.Failed, job.Current, job.Total))
	r.recoverInBackground(ctx)
}

func (r *ImportRunner) recoverInBackground(ctx context.Context) {
	go func() {
		if err := r.sessions.Recover(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("session recovery failed")
		}
	}()
}

func (r *ImportRunner) cancelled(job *models.ImportJob) {
	job.Status = models.ImportStatusCancelled
	r.finish(job)
	log.Info().Str("job_id", job.ID).Int("processed", job.Current).Int("total", job.Total).Msg("🛑 Import cancelled")
	r.publisher.Publish(events.New(events.TypeImportCancelled, events.ImportCancelled{
		JobID:     job.ID,
		Success:   job.Success,
		Failed:    job.Failed,
		Processed: job.Current,
		Total:     job.Total,
	}))
	r.publishLog(events.LogDone, fmt.Sprintf("Cancelled. %d added, %d failed, %d of %d processed.", job.Success, job.Failed, job.Current, job.Total))
}

// finish stamps the job, saves it and sends notifications
func (r *ImportRunner) finish(job *models.ImportJob) {
	finished := r.now()
	job.FinishedAt = &finished

	if err := r.store.UpdateImportJob(job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to update import job")
	}

	r.mu.Lock()
	r.job = job.Clone()
	r.mu.Unlock()

	r.metrics.jobFinished(job.Status)

	if r.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.notifier.NotifyCompletion(ctx, job.Clone()); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("completion notification failed")
		}
	}
}

func (r *ImportRunner) publishLog(kind, message string) {
	r.publisher.Publish(events.New(events.TypeLog, events.LogEntry{Type: kind, Message: message}))
}

// sleepWithContext waits for d and reports false if ctx ended first
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
