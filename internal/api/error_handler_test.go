package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/policy"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/pricing"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{
			name:     "入力不備は400",
			err:      reservation.NewValidationError("必須項目が不足しています", "check_in"),
			wantCode: http.StatusBadRequest,
			wantKind: "validation_error",
		},
		{
			name:     "日程競合は409",
			err:      &reservation.DatesUnavailableError{HasOverlappingReservations: true},
			wantCode: http.StatusConflict,
			wantKind: "dates_unavailable",
		},
		{
			name:     "ポリシー違反は422",
			err:      &policy.Violation{Rule: "min_stay", Message: "最低2泊からの予約が必要です"},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "policy_violation",
		},
		{
			name:     "料金計算失敗は500",
			err:      &pricing.CalculationError{PropertyID: "prop-1", Err: errors.New("boom")},
			wantCode: http.StatusInternalServerError,
			wantKind: "price_calculation_error",
		},
		{
			name:     "予約なしは404",
			err:      fmt.Errorf("取得に失敗: %w", reservation.ErrReservationNotFound),
			wantCode: http.StatusNotFound,
			wantKind: "not_found",
		},
		{
			name:     "不正な状態遷移は409",
			err:      fmt.Errorf("%w: pending から checked_in へは遷移できません", reservation.ErrInvalidStatusTransition),
			wantCode: http.StatusConflict,
			wantKind: "invalid_transition",
		},
		{
			name:     "echoのHTTPErrorはそのまま",
			err:      echo.NewHTTPError(http.StatusBadRequest, "不明な操作です"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "未分類のエラーは500",
			err:      errors.New("想定外"),
			wantCode: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := translate(tt.err)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, resp.Kind)
			}
		})
	}
}

func TestTranslate_ValidationFields(t *testing.T) {
	resp := translate(reservation.NewValidationError("必須項目が不足しています", "check_in", "guests"))
	assert.Equal(t, []string{"check_in", "guests"}, resp.Fields)
}
