package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/logger"
)

// StalePendingCanceller は滞留した Pending 予約の整理と計測値の更新を行うインターフェース
type StalePendingCanceller interface {
	CancelStalePending(ctx context.Context, olderThan time.Duration) (int, error)
	RefreshReservationGauges(ctx context.Context) error
}

// StalePendingExpirer は確定されないまま放置された予約を定期的にキャンセルするワーカー
// キャンセルは状態機械（Pending→Cancelled）を通して行われる
type StalePendingExpirer struct {
	service   StalePendingCanceller
	interval  time.Duration
	olderThan time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewStalePendingExpirer は新しいワーカーを作成する
func NewStalePendingExpirer(service StalePendingCanceller, interval, olderThan time.Duration) *StalePendingExpirer {
	return &StalePendingExpirer{
		service:   service,
		interval:  interval,
		olderThan: olderThan,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start はワーカーを開始する
func (w *StalePendingExpirer) Start(ctx context.Context) {
	logger.Info("滞留予約ワーカー開始",
		zap.Duration("interval", w.interval),
		zap.Duration("older_than", w.olderThan),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("滞留予約ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("滞留予約ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop はワーカーを停止する
func (w *StalePendingExpirer) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *StalePendingExpirer) sweep(ctx context.Context) {
	count, err := w.service.CancelStalePending(ctx, w.olderThan)
	if err != nil {
		logger.Error("滞留予約の整理に失敗", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("滞留予約をキャンセル", zap.Int("count", count))
	}
	if err := w.service.RefreshReservationGauges(ctx); err != nil {
		logger.Warn("予約数ゲージの更新に失敗", zap.Error(err))
	}
}
