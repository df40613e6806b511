package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/prompts"

	"golang.org/x/time/rate"
)

// ImageGenerator はランナーが必要とする画像生成面の契約です。
// 本番は *generator.Client、テストはモックを注入します。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req generator.ImageRequest) (*domain.GeneratedImage, domain.Audit, error)
}

// BatchRequest は画像バッチ1件の入力です。
// Prompt はユーザー指示そのもので、実効プロンプトへの展開はランナーが行います。
type BatchRequest struct {
	Prompt      string
	Refs        []domain.ImageData
	AspectRatio string
	Count       int
	Mode        prompts.ImageMode
	Style       string
}

// BatchRunner は同一プロンプトの N 枚生成を流量制限付きの明示的ワーカーで回します。
// 既定は直列（ワーカー1）で、各項目は独立に成功・失敗します。
type BatchRunner struct {
	gen     ImageGenerator
	limiter *rate.Limiter
}

// NewBatchRunner は BatchRunner を初期化します。limiter は nil を許容します（制限なし）。
func NewBatchRunner(gen ImageGenerator, limiter *rate.Limiter) (*BatchRunner, error) {
	if gen == nil {
		return nil, fmt.Errorf("gen (ImageGenerator) is required")
	}
	return &BatchRunner{gen: gen, limiter: limiter}, nil
}

// Generate はバッチ生成を実行します。
// 成功した画像は投入順に Outputs へ積まれ、全滅した場合のみ Err が立ちます。
// コンテキストのキャンセルで次の項目を始めずに打ち切ります。
func (r *BatchRunner) Generate(ctx context.Context, req BatchRequest) (*domain.BatchImageResult, error) {
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Mode == "" {
		req.Mode = prompts.ModeFusion
	}

	effectivePrompt := prompts.BuildImagePrompt(req.Mode, req.Prompt, len(req.Refs), req.AspectRatio, req.Style)

	start := time.Now()
	result := &domain.BatchImageResult{InputIndex: 0}
	var lastErr error
	totalAttempts := 0

	slog.InfoContext(ctx, "バッチ画像生成を開始するのだ",
		"count", req.Count, "mode", req.Mode, "refs", len(req.Refs), "aspect", req.AspectRatio)

	for i := 0; i < req.Count; i++ {
		// キャンセル済みなら次の項目を始めないのだ
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		img, audit, err := r.gen.GenerateImage(ctx, generator.ImageRequest{
			Prompt:      effectivePrompt,
			Refs:        req.Refs,
			AspectRatio: req.AspectRatio,
		})
		totalAttempts += audit.Attempts
		if err != nil {
			// 1枚の失敗でバッチ全体は止めない。最後の失敗だけ覚えておくのだ
			slog.ErrorContext(ctx, "バッチ項目の生成に失敗したのだ", "item", i+1, "total", req.Count, "error", err)
			lastErr = err
			continue
		}
		result.Outputs = append(result.Outputs, *img)
	}

	result.Audit = domain.Audit{
		RequestID: fmt.Sprintf("req-%d", time.Now().UnixMilli()),
		Timestamp: time.Now().UTC(),
		Attempts:  totalAttempts,
	}
	result.Timing = domain.Timing{GenerationMS: time.Since(start).Milliseconds()}

	if len(result.Outputs) == 0 {
		msg := "Failed to generate any images after retries."
		if lastErr != nil {
			msg = lastErr.Error()
		}
		result.Err = &domain.GenerationError{
			Code:      domain.ErrCodeUpstream,
			Message:   msg,
			Retryable: true,
			Audit:     result.Audit,
			Timing:    result.Timing,
		}
		if genErr, ok := lastErr.(*domain.GenerationError); ok {
			result.Err.Code = genErr.Code
			result.Err.Retryable = genErr.Retryable
		}
	}

	slog.InfoContext(ctx, "バッチ画像生成が完了したのだ",
		"succeeded", len(result.Outputs), "requested", req.Count, "failed_all", result.Failed())
	return result, nil
}
