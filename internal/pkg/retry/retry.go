package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/logger"
)

// BusinessError は業務エラーを示すマーカーインターフェース
// 業務エラーはリトライせず即座に呼び出し元へ返す
type BusinessError interface {
	error
	BusinessError() bool
}

// IsBusiness は業務エラー（リトライ対象外）かを判定する
func IsBusiness(err error) bool {
	var be BusinessError
	return errors.As(err, &be) && be.BusinessError()
}

// transientPgCodes はリトライ対象とみなす PostgreSQL のエラーコード
// 40001: serialization_failure, 40P01: deadlock_detected, 55P03: lock_not_available
var transientPgCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

// IsTransientSignature は一過性のインフラ障害の兆候かを判定する
// 型付きエラー（pqのエラーコード）を優先し、文字列照合は未分類エラーのフォールバック
func IsTransientSignature(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return transientPgCodes[string(pgErr.Code)]
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"deadlock", "lock", "timeout", "timed out", "connection refused", "connection reset", "broken pipe", "eof"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Executor は一過性の障害に対する有界リトライの実行器
// 業務エラーは即座に打ち切り、それ以外は指数バックオフ＋ジッタで再試行する
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
}

// DefaultMaxAttempts は既定の試行回数の上限
const DefaultMaxAttempts = 3

// NewExecutor は新しい Executor を作成する
// maxAttempts が0以下なら DefaultMaxAttempts を使用する
func NewExecutor(maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = 50 * time.Millisecond
	}
	return &Executor{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// Do は op を最大 maxAttempts 回まで順次実行する
// 試行は決して並行実行しない
// 上限到達後は最後の一過性エラーを加工せずそのまま返す
func (e *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error, fields ...zap.Field) error {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsBusiness(err) {
			// 業務エラーはリトライで解消しない
			return err
		}
		lastErr = err

		logFields := append([]zap.Field{
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.maxAttempts),
			zap.Bool("transient_signature", IsTransientSignature(err)),
			zap.Error(err),
		}, fields...)

		if attempt == e.maxAttempts {
			logger.Error("リトライ上限に到達", logFields...)
			break
		}
		logger.Warn("一過性エラーのため再試行", logFields...)

		// 試行ごとに2倍に伸びる遅延＋小さなランダムジッタ
		delay := e.baseDelay << (attempt - 1)
		if jitter := e.baseDelay / 2; jitter > 0 {
			delay += rand.N(jitter)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
