package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/prompts"
)

// このファイルはテキスト系のタスクオペレーション群なのだ。
// どれも構造化出力（responseSchema）を使い、応答を domain 型に写し替える。

// Translate は記述テキストを対象言語（ar / en）へ翻訳します。
func (c *Client) Translate(ctx context.Context, text, targetLang string) (*domain.TranslateResult, error) {
	start := time.Now()

	var out struct {
		OriginalText   string `json:"original_text"`
		TranslatedText string `json:"translated_text"`
		Lang           string `json:"lang"`
		Direction      string `json:"direction"`
	}
	audit, err := c.GenerateStructured(ctx, prompts.BuildTranslatePrompt(text, targetLang), prompts.TranslateSchema, &out)
	if err != nil {
		return nil, fmt.Errorf("翻訳に失敗したのだ: %w", err)
	}

	return &domain.TranslateResult{
		OriginalText:   text,
		TranslatedText: out.TranslatedText,
		Lang:           out.Lang,
		Direction:      out.Direction,
		Audit:          audit,
		Timing:         domain.Timing{GenerationMS: time.Since(start).Milliseconds()},
	}, nil
}

// Enhance は画像生成向けの記述を指定の強度で強化し、差分リスト付きで返します。
func (c *Client) Enhance(ctx context.Context, description, lang string, level prompts.EnhanceLevel) (*domain.EnhanceResult, error) {
	start := time.Now()

	var out struct {
		OriginalDescription string                 `json:"original_description"`
		EnhancedDescription string                 `json:"enhanced_description"`
		Lang                string                 `json:"lang"`
		Diff                domain.DescriptionDiff `json:"diff"`
	}
	audit, err := c.GenerateStructured(ctx, prompts.BuildEnhancePrompt(description, lang, level), prompts.EnhanceSchema, &out)
	if err != nil {
		return nil, fmt.Errorf("プロンプト強化に失敗したのだ: %w", err)
	}

	return &domain.EnhanceResult{
		EnhancedText: out.EnhancedDescription,
		Diff:         out.Diff,
		Audit:        audit,
		Timing:       domain.Timing{GenerationMS: time.Since(start).Milliseconds()},
	}, nil
}

// CharacterProfiles は台本から主要人物の名前と視覚記述を抽出します。
// 画像（ポートレート）は未設定のまま返り、後段のランナーが埋めます。
func (c *Client) CharacterProfiles(ctx context.Context, script, lang string) ([]domain.CharacterProfile, domain.Audit, error) {
	var out struct {
		Characters []struct {
			Name              string `json:"name"`
			VisualDescription string `json:"visual_description"`
		} `json:"characters"`
	}
	audit, err := c.GenerateStructured(ctx, prompts.BuildCharacterProfilesPrompt(script, lang), prompts.CharacterProfilesSchema, &out)
	if err != nil {
		return nil, audit, fmt.Errorf("登場人物の抽出に失敗したのだ: %w", err)
	}

	profiles := make([]domain.CharacterProfile, 0, len(out.Characters))
	for _, ch := range out.Characters {
		profiles = append(profiles, domain.CharacterProfile{
			Name:              ch.Name,
			VisualDescription: ch.VisualDescription,
		})
	}
	return profiles, audit, nil
}

// storyboardScene は応答スキーマに対応する内部 DTO なのだ。
type storyboardScene struct {
	SceneNumber     int    `json:"scene_number"`
	Description     string `json:"description"`
	PromptAR        string `json:"prompt_ar"`
	PromptEN        string `json:"prompt_en"`
	VoiceoverFusha  string `json:"voiceover_fusha"`
	VideoPrompt     string `json:"video_prompt"`
	CameraMovement  string `json:"camera_movement"`
	SceneDuration   int    `json:"scene_duration"`
	Mood            string `json:"mood"`
	HistoricalFacts string `json:"historical_facts"`
	HistoricalPeriod string `json:"historical_period"`
	ImageGeneration struct {
		Prompt         string `json:"prompt"`
		NegativePrompt string `json:"negative_prompt"`
	} `json:"image_generation"`
}

// StoryPlan は台本から物語全体のシーン設計を1回の構造化呼び出しで生成します。
func (c *Client) StoryPlan(ctx context.Context, script, style string, sceneCount int) (*domain.StoryPlanResult, error) {
	start := time.Now()

	builder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, err
	}
	prompt, err := builder.Build(prompts.TemplateStoryPlan, prompts.StoryPlanData{
		Script:     script,
		Style:      style,
		SceneCount: sceneCount,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Title             string            `json:"title"`
		SceneCount        int               `json:"scene_count"`
		CharacterBible    string            `json:"character_bible"`
		HistoricalContext string            `json:"historical_context"`
		Scenes            []storyboardScene `json:"scenes"`
	}
	audit, err := c.GenerateStructured(ctx, prompt, prompts.StoryboardSchema, &out)
	if err != nil {
		return nil, fmt.Errorf("シーン設計に失敗したのだ: %w", err)
	}

	scenes := make([]domain.StoryScene, 0, len(out.Scenes))
	for _, s := range out.Scenes {
		duration := s.SceneDuration
		if duration <= 0 {
			duration = 8
		}
		scenes = append(scenes, domain.StoryScene{
			SceneNumber:      s.SceneNumber,
			Description:      s.Description,
			PromptAR:         s.PromptAR,
			PromptEN:         s.PromptEN,
			VoiceoverFusha:   s.VoiceoverFusha,
			ImagePrompt:      s.ImageGeneration.Prompt,
			NegativePrompt:   s.ImageGeneration.NegativePrompt,
			VideoPrompt:      s.VideoPrompt,
			CameraMovement:   s.CameraMovement,
			SceneDurationSec: duration,
			Mood:             s.Mood,
			HistoricalFacts:  s.HistoricalFacts,
			HistoricalPeriod: s.HistoricalPeriod,
		})
	}

	return &domain.StoryPlanResult{
		Plan: domain.StoryPlan{
			Title:             out.Title,
			SceneCount:        out.SceneCount,
			CharacterBible:    out.CharacterBible,
			HistoricalContext: out.HistoricalContext,
			Scenes:            scenes,
		},
		Audit:  audit,
		Timing: domain.Timing{GenerationMS: time.Since(start).Milliseconds()},
	}, nil
}

// ResearchLocation は撮影地の史実を構造化リサーチします。
// プロンプト側で「確認できない事実は書かない」よう縛っています。
func (c *Client) ResearchLocation(ctx context.Context, locationName, lang string) (*domain.LocationResearch, error) {
	builder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, err
	}
	prompt, err := builder.BuildResearchPrompt(locationName, lang)
	if err != nil {
		return nil, err
	}

	var out domain.LocationResearch
	if _, err := c.GenerateStructured(ctx, prompt, prompts.LocationResearchSchema, &out); err != nil {
		return nil, fmt.Errorf("撮影地リサーチに失敗したのだ: %w", err)
	}
	return &out, nil
}
