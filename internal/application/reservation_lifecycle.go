package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/logger"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/metrics"
)

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// GetReservationByCode は予約コードから予約を取得する
func (s *ReservationService) GetReservationByCode(ctx context.Context, code string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByCode(ctx, code)
}

// ConfirmReservation は予約を確定する
func (s *ReservationService) ConfirmReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusConfirmed)
}

// CancelReservation は予約をキャンセルする
func (s *ReservationService) CancelReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusCancelled)
}

// CheckInReservation はチェックインを記録する
func (s *ReservationService) CheckInReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusCheckedIn)
}

// CheckOutReservation はチェックアウトを記録する
func (s *ReservationService) CheckOutReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusCheckedOut)
}

// MarkNoShow は不泊を記録する
func (s *ReservationService) MarkNoShow(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusNoShow)
}

// ReopenReservation はキャンセル・不泊の予約を Pending に戻す
func (s *ReservationService) ReopenReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, id, reservation.StatusPending)
}

// transition は状態機械で遷移を検証してから書き込む
// 不正な遷移は書き込みの時点で拒否され、近い状態への読み替えは行わない
func (s *ReservationService) transition(ctx context.Context, id string, target reservation.Status) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.TransitionTo(target); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.reservationRepo.UpdateStatus(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	logger.Info("予約の状態を変更",
		zap.String("reservation_id", res.ID),
		zap.String("status", string(res.Status)),
	)
	return res, nil
}

// RefreshReservationGauges は状態別の予約数ゲージを更新する
// 定期実行ワーカーから呼び出される
func (s *ReservationService) RefreshReservationGauges(ctx context.Context) error {
	m := metrics.Get()
	if m == nil {
		return nil
	}
	counts, err := s.reservationRepo.CountByStatus(ctx)
	if err != nil {
		return err
	}
	for _, status := range []reservation.Status{
		reservation.StatusPending, reservation.StatusConfirmed, reservation.StatusCheckedIn,
	} {
		m.ActiveReservations.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	return nil
}

// CancelStalePending は一定時間 Pending のままの予約を状態機械経由でキャンセルする
// 定期実行ワーカーから呼び出される
func (s *ReservationService) CancelStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.reservationRepo.GetStalePending(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("滞留予約の取得に失敗: %w", err)
	}

	count := 0
	for _, res := range stale {
		if err := res.TransitionTo(reservation.StatusCancelled); err != nil {
			logger.Warn("滞留予約のキャンセルをスキップ",
				zap.String("reservation_id", res.ID), zap.Error(err))
			continue
		}
		tx, err := s.txManager.Begin(ctx)
		if err != nil {
			return count, fmt.Errorf("トランザクション開始に失敗: %w", err)
		}
		if err := s.reservationRepo.UpdateStatus(ctx, tx, res); err != nil {
			tx.Rollback()
			return count, err
		}
		if err := tx.Commit(); err != nil {
			return count, fmt.Errorf("コミットに失敗: %w", err)
		}
		count++
	}
	return count, nil
}
