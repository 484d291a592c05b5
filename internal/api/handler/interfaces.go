package handler

import (
	"context"

	"github.com/hrnicek/rezio-cz-sub000/internal/application"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	GetReservationByCode(ctx context.Context, code string) (*reservation.Reservation, error)
	ConfirmReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	CheckInReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	CheckOutReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	MarkNoShow(ctx context.Context, id string) (*reservation.Reservation, error)
	ReopenReservation(ctx context.Context, id string) (*reservation.Reservation, error)
}
