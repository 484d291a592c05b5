package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/policy"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/pricing"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    int      `json:"code,omitempty"`
	Kind    string   `json:"kind,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Details string   `json:"details,omitempty"`
}

// CustomHTTPErrorHandler はエラー分類をHTTPステータスへ翻訳するカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := translate(err)

	// 5xx エラーのみサーバーログに残す
	if resp.Code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", resp.Code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(resp.Code, resp); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

// translate はエラー分類をレスポンスに写す
func translate(err error) ErrorResponse {
	var (
		validationErr  *reservation.ValidationError
		unavailableErr *reservation.DatesUnavailableError
		violation      *policy.Violation
		pricingErr     *pricing.CalculationError
		httpErr        *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		return ErrorResponse{
			Error: validationErr.Message, Code: http.StatusBadRequest,
			Kind: "validation_error", Fields: validationErr.Fields,
		}
	case errors.As(err, &unavailableErr):
		return ErrorResponse{
			Error: unavailableErr.Error(), Code: http.StatusConflict,
			Kind: "dates_unavailable",
		}
	case errors.As(err, &violation):
		return ErrorResponse{
			Error: violation.Message, Code: http.StatusUnprocessableEntity,
			Kind: "policy_violation", Details: violation.Rule,
		}
	case errors.As(err, &pricingErr):
		return ErrorResponse{
			Error: "料金計算に失敗しました", Code: http.StatusInternalServerError,
			Kind: "price_calculation_error",
		}
	case errors.Is(err, reservation.ErrReservationNotFound):
		return ErrorResponse{Error: err.Error(), Code: http.StatusNotFound, Kind: "not_found"}
	case errors.Is(err, reservation.ErrInvalidStatusTransition):
		return ErrorResponse{Error: err.Error(), Code: http.StatusConflict, Kind: "invalid_transition"}
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
		return ErrorResponse{Error: msg, Code: httpErr.Code}
	default:
		return ErrorResponse{Error: "内部サーバーエラー", Code: http.StatusInternalServerError}
	}
}
