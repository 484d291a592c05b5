package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware は予約APIの共通ミドルウェアを設定する
// リクエストIDは構造化ログとの突き合わせに使うため最初に付与する
func SetupMiddleware(e *echo.Echo) {
	e.Pre(middleware.RemoveTrailingSlash())

	// リクエストID
	e.Use(middleware.RequestID())

	// 構造化リクエストログ（zap）
	e.Use(RequestLogger())

	// パニックリカバリー
	e.Use(middleware.Recover())

	// CORS（予約フォームは別オリジンのフロントエンドから叩かれる）
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))
}
