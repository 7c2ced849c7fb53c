package audit

/*
Journal - неблокирующий журнал сделок.

- Log не блокирует горячий путь: события уходят в буферизованный канал,
  при переполнении событие сбрасывается в лог (load shedding).
- Воркер копит пачку и пишет ее в хранилище по таймеру или по достижении размера пачки.
- Stop закрывает вход и дожидается финального сброса буфера.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Storage определяет, куда физически сохраняются события
type Storage interface {
	WriteBatch(ctx context.Context, events []DealEvent) error
}

type Auditor interface {
	Log(event DealEvent)
}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	// OnFill получает текущую заполненность буфера после каждого сброса (для метрик)
	OnFill func(n int)
}

type Journal struct {
	ch     chan DealEvent
	repo   Storage
	opts   Options
	logger *zap.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex // Защищает отправку в канал от гонки с close
	closed atomic.Bool
}

func NewJournal(repo Storage, opts Options, logger *zap.Logger) *Journal {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	return &Journal{
		ch:     make(chan DealEvent, opts.BufferSize),
		repo:   repo,
		opts:   opts,
		logger: logger.Named("journal"),
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	j.mu.Lock()
	if j.closed.Swap(true) {
		j.mu.Unlock()
		return
	}
	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.mu.Unlock()

	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Log(event DealEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed.Load() {
		j.logger.Warn("deal event dropped: journal is stopping", zap.String("id", event.ID))
		return
	}

	select {
	case j.ch <- event:
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("policy_id", event.PolicyID),
			zap.String("trace_id", event.TraceID),
			zap.String("status", event.Status),
		)
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]DealEvent, 0, j.opts.BatchSize)
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст может быть уже закрыт
			if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
				j.logger.Error("journal flush failed", zap.Int("events", len(batch)), zap.Error(err))
			}
			batch = batch[:0]
		}
		if j.opts.OnFill != nil {
			j.opts.OnFill(len(j.ch))
		}
	}

	for {
		select {
		case event, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop(): остатки уже вычитаны, финальный сброс
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
