// Package pipeline は物語生成の多段フロー（登場人物 → シーン設計 → シーン画像 → 履歴保存）を
// 統括します。各段の実体はランナーとクライアントに委譲し、ここでは順序と失敗方針だけを持ちます。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/history"
	"github.com/shouni/go-story-kit/pkg/prompts"
	"github.com/shouni/go-story-kit/pkg/runner"
)

// FixedSceneCount はドキュメンタリー構成の固定シーン数なのだ（8シーン × 8秒 = 64秒）。
const FixedSceneCount = 8

// TextClient は物語パイプラインが使うテキスト生成面の契約です。
type TextClient interface {
	StoryPlan(ctx context.Context, script, style string, sceneCount int) (*domain.StoryPlanResult, error)
	ResearchLocation(ctx context.Context, locationName, lang string) (*domain.LocationResearch, error)
}

// BatchGenerator はシーン画像の生成面の契約です。実体は runner.BatchRunner です。
type BatchGenerator interface {
	Generate(ctx context.Context, req runner.BatchRequest) (*domain.BatchImageResult, error)
}

// HeroCreator は登場人物の抽出とキャラクターシート生成の契約です。
type HeroCreator interface {
	CreateHeroes(ctx context.Context, script, lang, style string) ([]domain.CharacterProfile, error)
}

// StoryPipeline は物語生成の各段を注入された部品で実行します。
type StoryPipeline struct {
	text   TextClient
	batch  BatchGenerator
	heroes HeroCreator
	store  history.Store
}

// NewStoryPipeline は StoryPipeline を初期化します。store は nil を許容します（保存なし）。
func NewStoryPipeline(text TextClient, batch BatchGenerator, heroes HeroCreator, store history.Store) (*StoryPipeline, error) {
	if text == nil {
		return nil, fmt.Errorf("text (TextClient) is required")
	}
	if batch == nil {
		return nil, fmt.Errorf("batch (BatchGenerator) is required")
	}
	if heroes == nil {
		return nil, fmt.Errorf("heroes (HeroCreator) is required")
	}
	return &StoryPipeline{text: text, batch: batch, heroes: heroes, store: store}, nil
}

// StoryRequest は物語生成1本ぶんの入力です。
// CharacterRefs には手動アップロードの参照と生成済みヒーローの画像を合わせて渡します。
type StoryRequest struct {
	Script        string
	Lang          string
	Style         string
	AspectRatio   string
	SceneCount    int
	LocationName  string
	KnowledgeBase string

	CharacterRefs []domain.ImageData
	LocationRefs  []domain.ImageData

	// PlanOnly はシーン設計まで（画像生成なし）で止めるモードなのだ。
	PlanOnly bool

	// OnScene はシーンの状態が変わるたびに呼ばれる進捗コールバックなのだ。
	// 設計直後（Loading=true）と画像確定後（Loading=false）の2回呼ばれる。
	OnScene func(index int, scene domain.StoryScene)
}

// StoryResult は完成した物語と保存先の履歴IDです。
type StoryResult struct {
	Plan       domain.StoryPlan
	Characters []domain.CharacterProfile
	HistoryID  string
}

// CreateHeroes は台本から登場人物を抽出してキャラクターシートを生成します。
// 物語本体の生成とは独立の前段オペレーションです。
func (p *StoryPipeline) CreateHeroes(ctx context.Context, script, lang, style string) ([]domain.CharacterProfile, error) {
	if script == "" {
		return nil, domain.NewValidationError("台本が空なのだ。先に台本を入力してほしいのだ")
	}
	return p.heroes.CreateHeroes(ctx, script, lang, style)
}

// CreateStory は物語1本を最後まで生成します。
// 使える登場人物参照が1枚も無い場合、リモート呼び出しを一切行わずに検証エラーを返します。
func (p *StoryPipeline) CreateStory(ctx context.Context, req StoryRequest) (*StoryResult, error) {
	if req.Script == "" {
		return nil, domain.NewValidationError("台本が空なのだ")
	}
	// 前提条件: 画像を生成するなら参照キャラクターが最低1人必要なのだ（同一性ロックの起点になるため）
	usable := 0
	for _, ref := range req.CharacterRefs {
		if !ref.IsZero() {
			usable++
		}
	}
	if usable == 0 && !req.PlanOnly {
		return nil, domain.NewValidationError("使える登場人物の参照画像が1枚も無いのだ。先にヒーローを生成するかアップロードしてほしいのだ")
	}

	if req.SceneCount <= 0 {
		req.SceneCount = FixedSceneCount
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}

	// 知識ベースがあれば台本に織り込んで、設計時の史実を固定するのだ
	script := prompts.BuildEnhancedScript(req.Script, req.LocationName, req.KnowledgeBase)

	slog.InfoContext(ctx, "シーン設計を開始するのだ",
		"scene_count", req.SceneCount, "style", req.Style, "character_refs", usable)

	planResult, err := p.text.StoryPlan(ctx, script, req.Style, req.SceneCount)
	if err != nil {
		return nil, fmt.Errorf("シーン設計に失敗したのだ: %w", err)
	}
	plan := planResult.Plan

	// 設計済みシーンを即座に見せるため、画像待ちフラグを立てて通知するのだ
	for i := range plan.Scenes {
		plan.Scenes[i].Loading = !req.PlanOnly
		p.notify(req, i, plan.Scenes[i])
	}

	if req.PlanOnly {
		slog.InfoContext(ctx, "設計のみモードなので画像生成をスキップするのだ", "scenes", len(plan.Scenes))
		return &StoryResult{Plan: plan}, nil
	}

	// シーン画像は直列で生成する。1シーンの失敗で物語全体は止めないのだ
	refs := append(append([]domain.ImageData{}, req.CharacterRefs...), req.LocationRefs...)
	for i := range plan.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.generateSceneImage(ctx, &plan.Scenes[i], req, refs)
		p.notify(req, i, plan.Scenes[i])
	}

	result := &StoryResult{Plan: plan}

	// 物語1本につき履歴レコードは1件なのだ
	if p.store != nil {
		item := domain.HistoryItem{
			ID:   fmt.Sprintf("story-%d", time.Now().UnixNano()),
			Kind: domain.HistoryKindStory,
			Story: &domain.StoryHistory{
				Script: req.Script,
				Plan:   plan,
			},
		}
		if err := p.store.Save(item); err != nil {
			slog.WarnContext(ctx, "履歴の保存に失敗したのだ", "error", err)
		} else {
			result.HistoryID = item.ID
		}
	}

	return result, nil
}

// generateSceneImage は1シーンぶんの画像を生成して scene に書き込むのだ。
// 成否にかかわらず Loading は下ろす。
func (p *StoryPipeline) generateSceneImage(ctx context.Context, scene *domain.StoryScene, req StoryRequest, refs []domain.ImageData) {
	defer func() { scene.Loading = false }()

	prompt := scene.ImagePrompt
	if prompt == "" {
		prompt = scene.Description
	}
	if len(req.LocationRefs) > 0 {
		prompt = prompts.WithLocationReference(prompt)
	}

	res, err := p.batch.Generate(ctx, runner.BatchRequest{
		Prompt:      prompt,
		Refs:        refs,
		AspectRatio: req.AspectRatio,
		Count:       1,
		Mode:        prompts.ModeScene,
		Style:       req.Style,
	})
	if err != nil {
		slog.ErrorContext(ctx, "シーン画像の生成に失敗したのだ", "scene", scene.SceneNumber, "error", err)
		return
	}
	if res.Failed() || len(res.Outputs) == 0 {
		slog.ErrorContext(ctx, "シーン画像が得られなかったのだ", "scene", scene.SceneNumber, "error", res.Err)
		return
	}
	scene.Image = &res.Outputs[0].Image
}

// notify は進捗コールバックを安全に呼ぶのだ。
func (p *StoryPipeline) notify(req StoryRequest, index int, scene domain.StoryScene) {
	if req.OnScene != nil {
		req.OnScene(index, scene)
	}
}

// RegenerateScene は指定シーンだけを修正指示付きで再生成します。
// 成功時は plan.Scenes[index] の画像のみを差し替え、他のシーンには触れません。
func (p *StoryPipeline) RegenerateScene(ctx context.Context, plan *domain.StoryPlan, index int, modification string, req StoryRequest) error {
	if plan == nil || index < 0 || index >= len(plan.Scenes) {
		return domain.NewValidationError("シーン番号が範囲外なのだ: %d", index)
	}
	if modification == "" {
		return domain.NewValidationError("修正指示が空なのだ")
	}

	scene := &plan.Scenes[index]
	prompt := prompts.BuildRegenerationPrompt(scene.Description, modification)
	if len(req.LocationRefs) > 0 {
		prompt = prompts.WithLocationReference(prompt)
	}

	refs := append(append([]domain.ImageData{}, req.CharacterRefs...), req.LocationRefs...)
	res, err := p.batch.Generate(ctx, runner.BatchRequest{
		Prompt:      prompt,
		Refs:        refs,
		AspectRatio: req.AspectRatio,
		Count:       1,
		Mode:        prompts.ModeScene,
		Style:       req.Style,
	})
	if err != nil {
		return err
	}
	if res.Failed() || len(res.Outputs) == 0 {
		return fmt.Errorf("シーンの再生成に失敗したのだ: %w", res.Err)
	}

	scene.Image = &res.Outputs[0].Image
	return nil
}

// ResearchAndScript は撮影地をリサーチし、知識ベースと8シーン構成の台本を組み立てます。
func (p *StoryPipeline) ResearchAndScript(ctx context.Context, locationName, explorerName, lang string) (*domain.LocationResearch, string, string, error) {
	if locationName == "" {
		return nil, "", "", domain.NewValidationError("撮影地の名前が空なのだ")
	}

	research, err := p.text.ResearchLocation(ctx, locationName, lang)
	if err != nil {
		return nil, "", "", err
	}

	knowledgeBase := prompts.FormatKnowledgeBase(*research, lang)
	script := prompts.BuildResearchScript(*research, explorerName, lang)
	return research, knowledgeBase, script, nil
}

// EraseWatermark は消しゴムオペレーション（ウォーターマーク・文字の除去）を実行し、
// before/after ペアを履歴に保存します。
func (p *StoryPipeline) EraseWatermark(ctx context.Context, img domain.ImageData) (*domain.GeneratedImage, error) {
	if img.IsZero() {
		return nil, domain.NewValidationError("対象の画像が空なのだ")
	}

	res, err := p.batch.Generate(ctx, runner.BatchRequest{
		Prompt:      prompts.BuildEraserPrompt(),
		Refs:        []domain.ImageData{img},
		AspectRatio: prompts.AspectRatioCustom,
		Count:       1,
		Mode:        prompts.ModeEdit,
	})
	if err != nil {
		return nil, err
	}
	if res.Failed() || len(res.Outputs) == 0 {
		return nil, fmt.Errorf("消しゴム処理に失敗したのだ: %w", res.Err)
	}
	out := res.Outputs[0]

	if p.store != nil {
		item := domain.HistoryItem{
			ID:   fmt.Sprintf("eraser-%d", time.Now().UnixNano()),
			Kind: domain.HistoryKindEraser,
			Eraser: &domain.EraserHistory{
				Before: img,
				After:  out.Image,
			},
		}
		if err := p.store.Save(item); err != nil {
			slog.WarnContext(ctx, "履歴の保存に失敗したのだ", "error", err)
		}
	}
	return &out, nil
}
