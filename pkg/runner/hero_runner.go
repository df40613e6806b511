package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/prompts"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ProfileExtractor は台本から登場人物プロフィールを抽出する契約です。
type ProfileExtractor interface {
	CharacterProfiles(ctx context.Context, script, lang string) ([]domain.CharacterProfile, domain.Audit, error)
}

// HeroRunner は登場人物の抽出とキャラクターシート生成をまとめて実行します。
// ポートレート生成は errgroup による並列ファンアウトで、流量制限に従います。
type HeroRunner struct {
	extractor ProfileExtractor
	gen       ImageGenerator
	limiter   *rate.Limiter
}

// NewHeroRunner は HeroRunner を初期化します。limiter は nil を許容します。
func NewHeroRunner(extractor ProfileExtractor, gen ImageGenerator, limiter *rate.Limiter) (*HeroRunner, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor (ProfileExtractor) is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("gen (ImageGenerator) is required")
	}
	return &HeroRunner{extractor: extractor, gen: gen, limiter: limiter}, nil
}

// CreateHeroes は台本から主要人物を抽出し、各人物のキャラクターシートを並列生成します。
// ポートレートに失敗した人物は結果から除外されます（物語生成の参照に使えないため）。
func (hr *HeroRunner) CreateHeroes(ctx context.Context, script, lang, style string) ([]domain.CharacterProfile, error) {
	profiles, _, err := hr.extractor.CharacterProfiles(ctx, script, lang)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}

	slog.InfoContext(ctx, "キャラクターシートの並列生成を開始するのだ", "characters", len(profiles))

	results := make([]*domain.ImageData, len(profiles))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, profile := range profiles {
		i, profile := i, profile // ゴルーチンのクロージャ対策なのだ

		eg.Go(func() error {
			if hr.limiter != nil {
				if err := hr.limiter.Wait(egCtx); err != nil {
					return err
				}
			}

			sheet := prompts.BuildHeroSheetPrompt(profile.Name, profile.VisualDescription, style)
			effective := prompts.BuildImagePrompt(prompts.ModeFusion, sheet, 0, "1:1", style)

			img, _, err := hr.gen.GenerateImage(egCtx, generator.ImageRequest{
				Prompt:      effective,
				AspectRatio: "1:1", // キャラクターシートは正方形固定なのだ
			})
			if err != nil {
				// 1人の失敗で全体を止めない。その人物は後段で除外されるのだ
				slog.WarnContext(egCtx, "ポートレート生成に失敗したのだ", "character", profile.Name, "error", err)
				return nil
			}

			results[i] = &img.Image
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	heroes := make([]domain.CharacterProfile, 0, len(profiles))
	for i, profile := range profiles {
		if results[i] == nil {
			continue
		}
		profile.Image = results[i]
		heroes = append(heroes, profile)
	}

	slog.InfoContext(ctx, "キャラクターシート生成が完了したのだ", "usable", len(heroes), "extracted", len(profiles))
	return heroes, nil
}
