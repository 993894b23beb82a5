// Package worker содержит фоновые задачи: зеркало в Google Sheets и
// планировщик переходов статусов.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/metrics"
	"bezero/internal/models"
)

const (
	TaskStayRefresh   = "stay_refresh"
	TaskLedgerAppend  = "ledger_append"
	TaskLedgerReplace = "ledger_replace"
)

// syncPayload is persisted in SyncTask.Payload as JSON.
type syncPayload struct {
	Tx *models.PointTransaction `json:"tx,omitempty"`
}

// SyncWorker consumes sync_queue tasks and applies them to the Sheets
// mirror. Tasks are durably stored in SQLite; Redis is used as a fast
// wake-up channel with an in-memory fallback, the DB poll catches
// anything both of them lost.
type SyncWorker struct {
	db            *database.DB
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewSyncWorker(db *database.DB, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, poll time.Duration, logger *zerolog.Logger) *SyncWorker {
	if poll <= 0 {
		poll = 2 * time.Second
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &SyncWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, 128),
		redisQueueKey: "bezero:sync:queue",
		deadLetterKey: "bezero:sync:deadletter",
		pollInterval:  poll,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueStaySync schedules a full refresh of the stays sheet. The task
// carries only the stay ID for tracing; the handler re-reads the current
// state so that stale payloads cannot overwrite newer data.
func (w *SyncWorker) EnqueueStaySync(ctx context.Context, stay *models.RoomStay) error {
	if stay == nil || stay.ID == 0 {
		return errors.New("stay id is required")
	}
	return w.enqueue(ctx, TaskStayRefresh, strconv.FormatInt(stay.ID, 10), syncPayload{})
}

// EnqueueLedgerSync schedules mirroring of one ledger entry.
func (w *SyncWorker) EnqueueLedgerSync(ctx context.Context, tx *models.PointTransaction) error {
	if tx == nil || tx.ID == 0 {
		return errors.New("transaction id is required")
	}
	return w.enqueue(ctx, TaskLedgerAppend, strconv.FormatInt(tx.ID, 10), syncPayload{Tx: tx})
}

// EnqueueLedgerReplace schedules a full ledger reconciliation.
func (w *SyncWorker) EnqueueLedgerReplace(ctx context.Context) error {
	return w.enqueue(ctx, TaskLedgerReplace, "full", syncPayload{})
}

func (w *SyncWorker) enqueue(ctx context.Context, taskType, refID string, payload syncPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType:  taskType,
		RefID:     refID,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.db.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Msg("sync_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- syncTask:
	default:
		w.logger.Warn().Int64("task_id", syncTask.ID).Msg("sync_worker: in-memory queue full, task left for polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sync_worker: started")
	defer w.logger.Info().Msg("sync_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("sync_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SyncWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SyncWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("sync_worker: redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("sync_worker: decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SyncWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload syncPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncSyncTask("ok")
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark completed")
	}
}

func (w *SyncWorker) handleTask(ctx context.Context, taskType string, payload syncPayload) error {
	switch taskType {
	case TaskStayRefresh:
		// Зеркалим окно: квартал назад, год вперёд.
		now := time.Now()
		stays, err := w.db.GetStaysByDateRange(ctx, now.AddDate(0, -3, 0), now.AddDate(1, 0, 0))
		if err != nil {
			return err
		}
		return w.sheets.UpdateStaysSheet(ctx, stays)
	case TaskLedgerAppend:
		if payload.Tx == nil {
			return errors.New("transaction payload missing")
		}
		return w.sheets.AppendLedgerEntry(ctx, payload.Tx)
	case TaskLedgerReplace:
		txs, err := w.db.GetAllPointTransactions(ctx)
		if err != nil {
			return err
		}
		return w.sheets.ReplaceLedgerSheet(ctx, txs)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SyncWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		metrics.IncSyncTask("deadletter")
		if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	metrics.IncSyncTask("retry")
	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark retry")
	}
}

func (w *SyncWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	metrics.IncSyncTask("deadletter")
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *SyncWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SyncWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: deadletter push")
	}
}
