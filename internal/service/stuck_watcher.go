package service

import (
	"context"
	"sync"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/logger"
)

// StuckStore - заявки, зависшие в processing
type StuckStore interface {
	// заявки, которые находятся в processing с момента раньше before
	GetProcessingBefore(ctx context.Context, before time.Time, limit int) ([]domain.Withdrawal, error)
}

// StuckWatcher периодически ищет заявки, которые слишком долго в processing
// (процесс упал между выплатой и записью статуса) и сообщает админам
type StuckWatcher struct {
	store    StuckStore
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time

	mu       sync.Mutex
	stop     chan struct{}
	running  bool
	reported map[int64]bool
	callback func([]domain.Withdrawal)
}

func NewStuckWatcher(store StuckStore, interval, maxAge time.Duration) *StuckWatcher {
	return &StuckWatcher{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		stop:     make(chan struct{}),
		reported: make(map[int64]bool),
	}
}

// SetNotifyCallback устанавливает callback для уведомления админов
func (w *StuckWatcher) SetNotifyCallback(callback func([]domain.Withdrawal)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
}

// Start запускает watcher, блокируется до Stop
func (w *StuckWatcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	log := logger.Get()
	log.Info("запуск stuck watcher", "interval", w.interval, "max_age", w.maxAge)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stop:
			log.Info("остановка stuck watcher")
			return
		}
	}
}

// Stop останавливает watcher
func (w *StuckWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stop)
		w.running = false
	}
}

// check возвращает заявки, о которых сообщено впервые.
// Заявка, вышедшая из зависшего состояния, забывается и при новом зависании сообщается снова
func (w *StuckWatcher) check() []domain.Withdrawal {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := w.store.GetProcessingBefore(ctx, w.now().Add(-w.maxAge), 50)
	if err != nil {
		logger.Error("stuck watcher: ошибка чтения заявок", "error", err)
		return nil
	}

	stuck := make(map[int64]bool, len(list))
	for _, wd := range list {
		stuck[wd.ID] = true
	}

	w.mu.Lock()
	for id := range w.reported {
		if !stuck[id] {
			delete(w.reported, id)
		}
	}
	var fresh []domain.Withdrawal
	for _, wd := range list {
		if !w.reported[wd.ID] {
			w.reported[wd.ID] = true
			fresh = append(fresh, wd)
		}
	}
	callback := w.callback
	w.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}

	logger.Warn("stuck watcher: заявки зависли в processing", "count", len(fresh))
	if callback != nil {
		callback(fresh)
	}
	return fresh
}
