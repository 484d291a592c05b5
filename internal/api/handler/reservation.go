package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrnicek/rezio-cz-sub000/internal/application"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/pricing"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type ServiceSelectionRequest struct {
	ServiceID string `json:"service_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=0"`
}

type CreateReservationRequest struct {
	PropertyID      string                    `json:"property_id" validate:"required"`
	CheckIn         string                    `json:"check_in" validate:"required" example:"2025-06-01"`
	CheckOut        string                    `json:"check_out" validate:"required" example:"2025-06-08"`
	CustomerName    string                    `json:"customer_name" validate:"required"`
	CustomerEmail   string                    `json:"customer_email" validate:"required,email"`
	CustomerPhone   string                    `json:"customer_phone"`
	CustomerCompany string                    `json:"customer_company"`
	CustomerTaxID   string                    `json:"customer_tax_id"`
	Services        []ServiceSelectionRequest `json:"services"`
	Guests          int                       `json:"guests" validate:"min=0"`
	Notes           string                    `json:"notes"`
}

type LineItemResponse struct {
	Kind        string  `json:"kind"`
	ServiceID   *string `json:"service_id,omitempty"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   int64   `json:"unit_price"`
	Total       int64   `json:"total"`
}

type ReservationResponse struct {
	ID            string             `json:"id"`
	Code          string             `json:"code"`
	PropertyID    string             `json:"property_id"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	CheckIn       time.Time          `json:"check_in"`
	CheckOut      time.Time          `json:"check_out"`
	Status        string             `json:"status"`
	TotalPrice    int64              `json:"total_price"`
	Currency      string             `json:"currency"`
	Guests        int                `json:"guests"`
	Items         []LineItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID: r.ID, Code: r.Code, PropertyID: r.PropertyID,
		CheckIn: r.CheckIn, CheckOut: r.CheckOut,
		Status: string(r.Status), TotalPrice: r.TotalPrice,
		Currency: r.Currency, Guests: r.Guests, CreatedAt: r.CreatedAt,
	}
	if r.Customer != nil {
		resp.CustomerEmail = r.Customer.Email
	}
	if r.Ledger != nil {
		for _, item := range r.Ledger.Items {
			resp.Items = append(resp.Items, LineItemResponse{
				Kind: string(item.Kind), ServiceID: item.ServiceID,
				Description: item.Description, Quantity: item.Quantity,
				UnitPrice: item.UnitPrice, Total: item.Total,
			})
		}
	}
	return resp
}

// Create は予約を作成する
// @Summary 予約を作成
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse "入力不備"
// @Failure 409 {object} api.ErrorResponse "日程の競合"
// @Failure 422 {object} api.ErrorResponse "ポリシー違反"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	selections := make([]pricing.ServiceSelection, len(req.Services))
	for i, s := range req.Services {
		selections[i] = pricing.ServiceSelection{ServiceID: s.ServiceID, Quantity: s.Quantity}
	}

	r, err := h.service.CreateReservation(c.Request().Context(), application.CreateReservationInput{
		PropertyID:      req.PropertyID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerCompany: req.CustomerCompany,
		CustomerTaxID:   req.CustomerTaxID,
		Services:        selections,
		Guests:          req.Guests,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// GetByID は予約を取得する
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetByCode は予約コードから予約を取得する
func (h *ReservationHandler) GetByCode(c echo.Context) error {
	r, err := h.service.GetReservationByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// UpdateStatus は予約の状態遷移を実行する
// 遷移テーブルに無い遷移は 409 で拒否される
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	var r *reservation.Reservation
	var err error
	switch c.Param("action") {
	case "confirm":
		r, err = h.service.ConfirmReservation(ctx, id)
	case "cancel":
		r, err = h.service.CancelReservation(ctx, id)
	case "check-in":
		r, err = h.service.CheckInReservation(ctx, id)
	case "check-out":
		r, err = h.service.CheckOutReservation(ctx, id)
	case "no-show":
		r, err = h.service.MarkNoShow(ctx, id)
	case "reopen":
		r, err = h.service.ReopenReservation(ctx, id)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "不明な操作です")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
