package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestClient(t *testing.T, gen ContentGenerator) *Client {
	t.Helper()
	c, err := NewClient(gen, "text-model", "image-model", &retry.Policy{MaxRetries: 1})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("ContentGeneratorが無いと初期化できないこと", func(t *testing.T) {
		_, err := NewClient(nil, "a", "b", nil)
		assert.Error(t, err)
	})

	t.Run("モデル名が空だと初期化できないこと", func(t *testing.T) {
		_, err := NewClient(&mockContentGenerator{}, "", "b", nil)
		assert.Error(t, err)
	})
}

func TestGenerateStructured(t *testing.T) {
	ctx := context.Background()

	t.Run("応答JSONが構造体にデコードされること", func(t *testing.T) {
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{
			textResponse(`{"translated_text":"مرحبا","lang":"ar","direction":"rtl"}`),
		}}
		c := newTestClient(t, gen)

		var out struct {
			TranslatedText string `json:"translated_text"`
			Lang           string `json:"lang"`
			Direction      string `json:"direction"`
		}
		audit, err := c.GenerateStructured(ctx, "translate this", &genai.Schema{Type: genai.TypeObject}, &out)
		require.NoError(t, err)
		assert.Equal(t, "مرحبا", out.TranslatedText)
		assert.Equal(t, "rtl", out.Direction)
		assert.Equal(t, 1, audit.Attempts)
		assert.Equal(t, "text-model", gen.lastModel)
		assert.Equal(t, "application/json", gen.lastConfig.ResponseMIMEType)
		require.NotNil(t, gen.lastConfig.ResponseSchema)
	})

	t.Run("jsonフェンス付きの応答も読めること", func(t *testing.T) {
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{
			textResponse("```json\n{\"title\":\"رحلة\"}\n```"),
		}}
		c := newTestClient(t, gen)

		var out struct {
			Title string `json:"title"`
		}
		_, err := c.GenerateStructured(ctx, "plan", &genai.Schema{}, &out)
		require.NoError(t, err)
		assert.Equal(t, "رحلة", out.Title)
	})

	t.Run("スキーマに無いフィールドはゼロ値のままなこと", func(t *testing.T) {
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{
			textResponse(`{"title":"x"}`),
		}}
		c := newTestClient(t, gen)

		var out struct {
			Title      string `json:"title"`
			SceneCount int    `json:"scene_count"`
		}
		_, err := c.GenerateStructured(ctx, "plan", &genai.Schema{}, &out)
		require.NoError(t, err)
		assert.Zero(t, out.SceneCount)
	})
}

func TestGenerateImage(t *testing.T) {
	ctx := context.Background()
	pngBytes := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	t.Run("参照画像がインラインパートとして先に積まれること", func(t *testing.T) {
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{
			imageResponse("image/png", pngBytes),
		}}
		c := newTestClient(t, gen)

		got, audit, err := c.GenerateImage(ctx, ImageRequest{
			Prompt: "a scene",
			Refs: []domain.ImageData{
				{MIMEType: "image/png", Data: pngBytes},
				{MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8}},
			},
			AspectRatio: "16:9",
		})
		require.NoError(t, err)
		require.NotNil(t, got)

		parts := gen.lastContents[0].Parts
		require.Len(t, parts, 3)
		assert.NotNil(t, parts[0].InlineData)
		assert.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "a scene", parts[2].Text)

		// 明示的な比率は ImageConfig にも反映されるのだ
		require.NotNil(t, gen.lastConfig.ImageConfig)
		assert.Equal(t, "16:9", gen.lastConfig.ImageConfig.AspectRatio)
		assert.Len(t, gen.lastConfig.SafetySettings, 4)

		// 合成メタデータの確認
		assert.Equal(t, domain.SyntheticSeed, got.Seed)
		assert.Equal(t, "image-model", got.Model)
		assert.Equal(t, 1024, got.Width)
		assert.Equal(t, 100, got.CostEstimateTokens)
		assert.Equal(t, 1, audit.Attempts)
	})

	t.Run("customでは比率をモデルに強制しないこと", func(t *testing.T) {
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{
			imageResponse("image/png", pngBytes),
		}}
		c := newTestClient(t, gen)

		_, _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p", AspectRatio: "custom"})
		require.NoError(t, err)
		assert.Nil(t, gen.lastConfig.ImageConfig)
	})

	t.Run("SAFETYで終了したら content_blocked エラーになること", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{resp}}
		c := newTestClient(t, gen)

		_, _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p", AspectRatio: "1:1"})
		var genErr *domain.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, domain.ErrCodeContentBlocked, genErr.Code)
		assert.False(t, genErr.Retryable)
		assert.Contains(t, genErr.Message, "blocked by safety filters")
	})

	t.Run("画像なしでテキストのみなら拒否メッセージを含むこと", func(t *testing.T) {
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{
			textResponse("I cannot generate this image."),
		}}
		c := newTestClient(t, gen)

		_, _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p", AspectRatio: "1:1"})
		var genErr *domain.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, domain.ErrCodeEmptyResult, genErr.Code)
		assert.Contains(t, genErr.Message, "Model refused: I cannot generate this image.")
	})

	t.Run("候補ゼロなら empty_result エラーになること", func(t *testing.T) {
		gen := &mockContentGenerator{responses: []*genai.GenerateContentResponse{{}}}
		c := newTestClient(t, gen)

		_, _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p", AspectRatio: "1:1"})
		var genErr *domain.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, domain.ErrCodeEmptyResult, genErr.Code)
	})

	t.Run("429が続いて上限に達したら transient 扱いになること", func(t *testing.T) {
		rateErr := genai.APIError{Code: 429, Message: "quota exceeded"}
		gen := &mockContentGenerator{errs: []error{rateErr, rateErr}}
		c := newTestClient(t, gen)

		_, audit, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p", AspectRatio: "1:1"})
		var genErr *domain.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, domain.ErrCodeTransient, genErr.Code)
		assert.True(t, genErr.Retryable)
		// MaxRetries=1 なので合計2回試行されるのだ
		assert.Equal(t, 2, audit.Attempts)
		assert.Equal(t, 2, gen.calls)
	})

	t.Run("非リトライ対象のエラーは upstream 扱いになること", func(t *testing.T) {
		gen := &mockContentGenerator{errs: []error{errors.New("invalid argument")}}
		c := newTestClient(t, gen)

		_, _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p", AspectRatio: "1:1"})
		var genErr *domain.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, domain.ErrCodeUpstream, genErr.Code)
		assert.Equal(t, 1, gen.calls)
	})
}
