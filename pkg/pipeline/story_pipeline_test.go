package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/history"
	"github.com/shouni/go-story-kit/pkg/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTextClient struct {
	plan        *domain.StoryPlanResult
	planErr     error
	planCalls   int
	lastScript  string
	research    *domain.LocationResearch
	researchErr error
}

func (m *mockTextClient) StoryPlan(ctx context.Context, script, style string, sceneCount int) (*domain.StoryPlanResult, error) {
	m.planCalls++
	m.lastScript = script
	return m.plan, m.planErr
}

func (m *mockTextClient) ResearchLocation(ctx context.Context, locationName, lang string) (*domain.LocationResearch, error) {
	return m.research, m.researchErr
}

type mockBatch struct {
	calls   int
	prompts []string
	refLens []int
	failFor map[int]bool // 呼び出し番号（1始まり）を失敗させるのだ
	hardErr error
}

func (m *mockBatch) Generate(ctx context.Context, req runner.BatchRequest) (*domain.BatchImageResult, error) {
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	m.refLens = append(m.refLens, len(req.Refs))

	if m.hardErr != nil {
		return nil, m.hardErr
	}
	if m.failFor[m.calls] {
		return &domain.BatchImageResult{
			Err: &domain.GenerationError{Code: domain.ErrCodeEmptyResult, Message: "no image"},
		}, nil
	}
	return &domain.BatchImageResult{
		Outputs: []domain.GeneratedImage{
			{Image: domain.ImageData{MIMEType: "image/png", Data: []byte{byte(m.calls)}}},
		},
	}, nil
}

type mockHeroes struct {
	heroes []domain.CharacterProfile
	err    error
	calls  int
}

func (m *mockHeroes) CreateHeroes(ctx context.Context, script, lang, style string) ([]domain.CharacterProfile, error) {
	m.calls++
	return m.heroes, m.err
}

func planWithScenes(n int) *domain.StoryPlanResult {
	scenes := make([]domain.StoryScene, 0, n)
	for i := 1; i <= n; i++ {
		scenes = append(scenes, domain.StoryScene{
			SceneNumber:      i,
			Description:      fmt.Sprintf("scene %d description", i),
			ImagePrompt:      fmt.Sprintf("Same character فارس from reference. Scene %d.", i),
			SceneDurationSec: 8,
		})
	}
	return &domain.StoryPlanResult{
		Plan: domain.StoryPlan{
			Title:      "رحلة إلى أوذنة",
			SceneCount: n,
			Scenes:     scenes,
		},
	}
}

func charRef() domain.ImageData {
	return domain.ImageData{MIMEType: "image/png", Data: []byte{0xAA}}
}

func newTestPipeline(t *testing.T, text TextClient, batch BatchGenerator, heroes HeroCreator, store history.Store) *StoryPipeline {
	t.Helper()
	p, err := NewStoryPipeline(text, batch, heroes, store)
	require.NoError(t, err)
	return p
}

func TestCreateStory(t *testing.T) {
	ctx := context.Background()

	t.Run("登場人物なしならリモート呼び出しゼロで検証エラーになること", func(t *testing.T) {
		text := &mockTextClient{plan: planWithScenes(8)}
		batch := &mockBatch{}
		p := newTestPipeline(t, text, batch, &mockHeroes{}, nil)

		_, err := p.CreateStory(ctx, StoryRequest{Script: "a journey", Style: "Pixar"})
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Zero(t, text.planCalls)
		assert.Zero(t, batch.calls)
	})

	t.Run("8シーンが生成され履歴が1件保存されること", func(t *testing.T) {
		text := &mockTextClient{plan: planWithScenes(8)}
		batch := &mockBatch{}
		store := history.NewCacheStore(time.Hour, time.Hour)
		p := newTestPipeline(t, text, batch, &mockHeroes{}, store)

		var notifications []domain.StoryScene
		res, err := p.CreateStory(ctx, StoryRequest{
			Script:        "a journey to Oudna",
			Lang:          "ar",
			Style:         "Pixar",
			CharacterRefs: []domain.ImageData{charRef()},
			OnScene: func(i int, s domain.StoryScene) {
				notifications = append(notifications, s)
			},
		})
		require.NoError(t, err)
		require.Len(t, res.Plan.Scenes, 8)
		assert.Equal(t, 8, batch.calls)

		for _, s := range res.Plan.Scenes {
			assert.NotNil(t, s.Image)
			assert.False(t, s.Loading)
		}

		// 設計直後（Loading=true）と確定後（Loading=false）の2回ずつ通知されるのだ
		require.Len(t, notifications, 16)
		assert.True(t, notifications[0].Loading)
		assert.False(t, notifications[15].Loading)

		// 履歴は物語1本につき1件なのだ
		items := store.List()
		require.Len(t, items, 1)
		assert.Equal(t, domain.HistoryKindStory, items[0].Kind)
		assert.Equal(t, res.HistoryID, items[0].ID)
		assert.Equal(t, "a journey to Oudna", items[0].Story.Script)
	})

	t.Run("1シーンの失敗で他のシーンが止まらないこと", func(t *testing.T) {
		text := &mockTextClient{plan: planWithScenes(3)}
		batch := &mockBatch{failFor: map[int]bool{2: true}}
		p := newTestPipeline(t, text, batch, &mockHeroes{}, nil)

		res, err := p.CreateStory(ctx, StoryRequest{
			Script:        "s",
			CharacterRefs: []domain.ImageData{charRef()},
		})
		require.NoError(t, err)
		assert.NotNil(t, res.Plan.Scenes[0].Image)
		assert.Nil(t, res.Plan.Scenes[1].Image)
		assert.False(t, res.Plan.Scenes[1].Loading, "失敗してもLoadingは下りるのだ")
		assert.NotNil(t, res.Plan.Scenes[2].Image)
		assert.Equal(t, 3, batch.calls)
	})

	t.Run("PlanOnlyなら画像生成も履歴保存もしないこと", func(t *testing.T) {
		text := &mockTextClient{plan: planWithScenes(8)}
		batch := &mockBatch{}
		store := history.NewCacheStore(time.Hour, time.Hour)
		p := newTestPipeline(t, text, batch, &mockHeroes{}, store)

		res, err := p.CreateStory(ctx, StoryRequest{
			Script:        "s",
			CharacterRefs: []domain.ImageData{charRef()},
			PlanOnly:      true,
		})
		require.NoError(t, err)
		assert.Len(t, res.Plan.Scenes, 8)
		assert.Zero(t, batch.calls)
		assert.Empty(t, store.List())
	})

	t.Run("PlanOnlyなら参照画像なしでも設計できること", func(t *testing.T) {
		text := &mockTextClient{plan: planWithScenes(8)}
		p := newTestPipeline(t, text, &mockBatch{}, &mockHeroes{}, nil)

		res, err := p.CreateStory(ctx, StoryRequest{Script: "s", PlanOnly: true})
		require.NoError(t, err)
		assert.Len(t, res.Plan.Scenes, 8)
	})

	t.Run("撮影地参照があるとプロンプトに前置きが付き参照が合流すること", func(t *testing.T) {
		text := &mockTextClient{plan: planWithScenes(1)}
		batch := &mockBatch{}
		p := newTestPipeline(t, text, batch, &mockHeroes{}, nil)

		_, err := p.CreateStory(ctx, StoryRequest{
			Script:        "s",
			CharacterRefs: []domain.ImageData{charRef()},
			LocationRefs:  []domain.ImageData{{MIMEType: "image/jpeg", Data: []byte{0xBB}}},
		})
		require.NoError(t, err)
		require.Len(t, batch.prompts, 1)
		assert.Contains(t, batch.prompts[0], "LOCATION REFERENCE:")
		assert.Equal(t, 2, batch.refLens[0], "キャラクター参照と撮影地参照が合流するのだ")
	})

	t.Run("知識ベースが台本に織り込まれること", func(t *testing.T) {
		text := &mockTextClient{plan: planWithScenes(1)}
		p := newTestPipeline(t, text, &mockBatch{}, &mockHeroes{}, nil)

		_, err := p.CreateStory(ctx, StoryRequest{
			Script:        "base script",
			LocationName:  "Oudna",
			KnowledgeBase: "📍 Oudna\nFounded around 30 BC",
			CharacterRefs: []domain.ImageData{charRef()},
		})
		require.NoError(t, err)
		assert.Contains(t, text.lastScript, "base script")
		assert.Contains(t, text.lastScript, "USER-PROVIDED HISTORICAL FACTS (USE ONLY THESE)")
		assert.Contains(t, text.lastScript, "=== Oudna ===")
	})

	t.Run("設計エラーはそのまま伝播すること", func(t *testing.T) {
		text := &mockTextClient{planErr: errors.New("plan failed")}
		p := newTestPipeline(t, text, &mockBatch{}, &mockHeroes{}, nil)

		_, err := p.CreateStory(ctx, StoryRequest{
			Script:        "s",
			CharacterRefs: []domain.ImageData{charRef()},
		})
		assert.Error(t, err)
	})
}

func TestRegenerateScene(t *testing.T) {
	ctx := context.Background()

	t.Run("指定シーンの画像だけが差し替わること", func(t *testing.T) {
		batch := &mockBatch{}
		p := newTestPipeline(t, &mockTextClient{}, batch, &mockHeroes{}, nil)

		plan := planWithScenes(3).Plan
		before := domain.ImageData{MIMEType: "image/png", Data: []byte{0x01}}
		for i := range plan.Scenes {
			img := before
			plan.Scenes[i].Image = &img
		}

		err := p.RegenerateScene(ctx, &plan, 1, "add rain", StoryRequest{
			CharacterRefs: []domain.ImageData{charRef()},
			AspectRatio:   "16:9",
			Style:         "Pixar",
		})
		require.NoError(t, err)

		assert.Equal(t, before, *plan.Scenes[0].Image)
		assert.NotEqual(t, before, *plan.Scenes[1].Image)
		assert.Equal(t, before, *plan.Scenes[2].Image)

		require.Len(t, batch.prompts, 1)
		assert.Contains(t, batch.prompts[0], "Original Scene: scene 2 description.")
		assert.Contains(t, batch.prompts[0], "Modification Request: add rain.")
	})

	t.Run("範囲外や空の修正指示は検証エラーになること", func(t *testing.T) {
		p := newTestPipeline(t, &mockTextClient{}, &mockBatch{}, &mockHeroes{}, nil)
		plan := planWithScenes(2).Plan

		var vErr *domain.ValidationError
		assert.ErrorAs(t, p.RegenerateScene(ctx, &plan, 5, "x", StoryRequest{}), &vErr)
		assert.ErrorAs(t, p.RegenerateScene(ctx, &plan, 0, "", StoryRequest{}), &vErr)
	})

	t.Run("再生成が全滅したら元の画像を残してエラーになること", func(t *testing.T) {
		batch := &mockBatch{failFor: map[int]bool{1: true}}
		p := newTestPipeline(t, &mockTextClient{}, batch, &mockHeroes{}, nil)

		plan := planWithScenes(1).Plan
		before := domain.ImageData{MIMEType: "image/png", Data: []byte{0x01}}
		plan.Scenes[0].Image = &before

		err := p.RegenerateScene(ctx, &plan, 0, "add rain", StoryRequest{})
		require.Error(t, err)
		assert.Equal(t, before, *plan.Scenes[0].Image)
	})
}

func TestResearchAndScript(t *testing.T) {
	research := &domain.LocationResearch{
		LocationName:           "Oudna",
		HistoricalEra:          "Roman Period 146 BC - 439 AD",
		KeyFacts:               []string{"Founded around 30 BC", "Amphitheater seated 16,000"},
		Landmarks:              []string{"Amphitheater", "Capitol"},
		HistoricalSignificance: "Major agricultural colony",
	}
	p := newTestPipeline(t, &mockTextClient{research: research}, &mockBatch{}, &mockHeroes{}, nil)

	t.Run("知識ベースと8シーン台本が組み上がること", func(t *testing.T) {
		got, kb, script, err := p.ResearchAndScript(context.Background(), "Oudna", "Faris", "en")
		require.NoError(t, err)
		assert.Equal(t, research, got)
		assert.Contains(t, kb, "📍 Oudna")
		assert.Contains(t, kb, "• Founded around 30 BC")
		assert.Contains(t, script, "Faris's Journey to Oudna:")
		assert.Contains(t, script, "Scene 8 (Farewell)")
		assert.Contains(t, script, "Amphitheater")
	})

	t.Run("撮影地名が空なら検証エラーになること", func(t *testing.T) {
		_, _, _, err := p.ResearchAndScript(context.Background(), "", "Faris", "en")
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestEraseWatermark(t *testing.T) {
	ctx := context.Background()

	t.Run("before/afterペアが履歴に保存されること", func(t *testing.T) {
		batch := &mockBatch{}
		store := history.NewCacheStore(time.Hour, time.Hour)
		p := newTestPipeline(t, &mockTextClient{}, batch, &mockHeroes{}, store)

		src := domain.ImageData{MIMEType: "image/png", Data: []byte{0xCC}}
		out, err := p.EraseWatermark(ctx, src)
		require.NoError(t, err)
		require.NotNil(t, out)

		require.Len(t, batch.prompts, 1)
		assert.Contains(t, batch.prompts[0], "Remove all watermarks")

		items := store.List()
		require.Len(t, items, 1)
		assert.Equal(t, domain.HistoryKindEraser, items[0].Kind)
		assert.Equal(t, src, items[0].Eraser.Before)
		assert.Equal(t, out.Image, items[0].Eraser.After)
	})

	t.Run("空の画像は検証エラーになること", func(t *testing.T) {
		p := newTestPipeline(t, &mockTextClient{}, &mockBatch{}, &mockHeroes{}, nil)
		_, err := p.EraseWatermark(ctx, domain.ImageData{})
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}
