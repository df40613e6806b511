// Package retry はリモート生成呼び出しの再試行ポリシーを提供します。
// 指数バックオフ＋ジッターで、レート制限（429）と一時的過負荷（503）のみを
// 再試行対象とします。
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"
)

// 再試行ポリシーの既定値なのだ。
const (
	DefaultMaxRetries = 5
	baseDelay         = 800 * time.Millisecond
	jitterRange       = 300 * time.Millisecond
)

// Policy は再試行の上限と待機計算を保持します。
// ゼロ値でも使えるように、MaxRetries が 0 以下なら既定値を適用します。
type Policy struct {
	MaxRetries int

	// sleep はテストで差し替えるためのフックなのだ。nil なら実時間で待つ。
	sleep func(ctx context.Context, d time.Duration) error
}

// New は既定値の再試行ポリシーを返すのだ。
func New() *Policy {
	return &Policy{MaxRetries: DefaultMaxRetries}
}

// Do は op を実行し、再試行対象のエラーなら待機して再実行します。
// 戻り値は (結果, 総呼び出し回数, 最終エラー) で、呼び出し回数は監査情報に使います。
// ctx がキャンセルされた場合、実行中の呼び出しは完了を待ちますが、
// 次の試行は開始しません。
func Do[T any](ctx context.Context, p *Policy, op func(context.Context) (T, error)) (T, int, error) {
	var zero T
	maxRetries := DefaultMaxRetries
	if p != nil && p.MaxRetries > 0 {
		maxRetries = p.MaxRetries
	}

	attempts := 0
	for {
		result, err := op(ctx)
		attempts++
		if err == nil {
			return result, attempts, nil
		}

		// 失敗回数が上限に達したか、再試行しても無駄なエラーならここで打ち切るのだ
		if attempts > maxRetries || !IsRetryable(err) {
			return zero, attempts, err
		}

		delay := backoffDelay(attempts)
		slog.WarnContext(ctx, "一時的なエラーを検知したので再試行するのだ",
			"attempt", attempts, "delay", delay, "error", err)

		if err := sleepCtx(ctx, p, delay); err != nil {
			return zero, attempts, err
		}
	}
}

// backoffDelay は n 回目の失敗後の待機時間（指数＋一様ジッター）を計算するのだ。
func backoffDelay(failures int) time.Duration {
	d := baseDelay << (failures - 1)
	return d + time.Duration(rand.Int63n(int64(jitterRange)))
}

func sleepCtx(ctx context.Context, p *Policy, d time.Duration) error {
	if p != nil && p.sleep != nil {
		return p.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetryable はエラーが再試行対象（429 / 503）かどうかを判定します。
// SDK の構造化エラーを優先し、取れない場合はメッセージ文字列から推定します。
func IsRetryable(err error) bool {
	code := StatusOf(err)
	return code == 429 || code == 503
}

// StatusOf はエラーから HTTP ステータスコードを取り出すのだ。不明なら 0 を返す。
func StatusOf(err error) int {
	if err == nil {
		return 0
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	// SDK 外のラップ経路から来るエラーはメッセージで推定するしかないのだ
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"), strings.Contains(msg, "resource_exhausted"):
		return 429
	case strings.Contains(msg, "503"), strings.Contains(msg, "unavailable"), strings.Contains(msg, "overloaded"):
		return 503
	}
	return 0
}
