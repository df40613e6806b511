package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/retry"

	"google.golang.org/genai"
)

// permissiveSafetySettings は全カテゴリのブロックを無効化する設定なのだ。
// 歴史・教育コンテンツが誤検知で弾かれるのを避けるため、全カテゴリで BLOCK_NONE にする。
var permissiveSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// Client はテキスト構造化生成と画像生成の両方を担う生成クライアントです。
// ContentGenerator を注入して使い、リトライポリシーを内包します。
type Client struct {
	gen        ContentGenerator
	textModel  string
	imageModel string
	policy     *retry.Policy
}

// NewClient は依存関係を注入して Client を初期化します。
func NewClient(gen ContentGenerator, textModel, imageModel string, policy *retry.Policy) (*Client, error) {
	if gen == nil {
		return nil, fmt.Errorf("gen (ContentGenerator) is required")
	}
	if textModel == "" || imageModel == "" {
		return nil, fmt.Errorf("モデル名が空なのだ (text=%q, image=%q)", textModel, imageModel)
	}
	if policy == nil {
		policy = retry.New()
	}
	return &Client{gen: gen, textModel: textModel, imageModel: imageModel, policy: policy}, nil
}

// newAudit は試行回数付きの監査情報を発行するのだ。
func newAudit(attempts int) domain.Audit {
	return domain.Audit{
		RequestID: fmt.Sprintf("req-%d", time.Now().UnixMilli()),
		Timestamp: time.Now().UTC(),
		Attempts:  attempts,
	}
}

// stripJSONFence はモデルが付けがちな ```json フェンスを剥がすのだ。
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// GenerateStructured は構造化出力（responseSchema）付きのテキスト生成を実行し、
// 応答 JSON を out にデコードします。スキーマに無いフィールドはゼロ値のままです。
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema, out any) (domain.Audit, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, attempts, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.gen.GenerateContent(ctx, c.textModel, contents, config)
	})
	audit := newAudit(attempts)
	if err != nil {
		return audit, fmt.Errorf("構造化テキスト生成に失敗したのだ: %w", err)
	}

	raw := stripJSONFence(resp.Text())
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return audit, fmt.Errorf("応答JSONのデコードに失敗したのだ: %w", err)
	}
	return audit, nil
}

// ImageRequest は画像生成1回ぶんの入力です。
// Prompt は組み立て済みの実効プロンプトを渡します。
type ImageRequest struct {
	Prompt      string
	Refs        []domain.ImageData
	AspectRatio string
}

// GenerateImage は参照画像付きの画像生成を1回実行します。
// リトライを内包し、失敗は分類済みの *domain.GenerationError で返します。
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*domain.GeneratedImage, domain.Audit, error) {
	parts := make([]*genai.Part, 0, len(req.Refs)+1)
	for _, ref := range req.Refs {
		if ref.IsZero() {
			continue
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: ref.MIMEType, Data: ref.Data}})
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	config := &genai.GenerateContentConfig{
		SafetySettings: permissiveSafetySettings,
	}
	// custom のときは比率をモデル任せにする（プロンプト側の句で誘導済み）
	if req.AspectRatio != "" && req.AspectRatio != "custom" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	start := time.Now()
	resp, attempts, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.gen.GenerateContent(ctx, c.imageModel, contents, config)
	})
	audit := newAudit(attempts)
	timing := domain.Timing{GenerationMS: time.Since(start).Milliseconds()}

	if err != nil {
		code := domain.ErrCodeUpstream
		retryable := false
		if retry.IsRetryable(err) {
			// リトライ上限まで粘っても解消しなかった一時的障害なのだ
			code = domain.ErrCodeTransient
			retryable = true
		}
		return nil, audit, &domain.GenerationError{
			Code: code, Message: err.Error(), Retryable: retryable, Audit: audit, Timing: timing,
		}
	}

	img, gerr := c.extractImage(ctx, resp)
	if gerr != nil {
		gerr.Audit = audit
		gerr.Timing = timing
		return nil, audit, gerr
	}

	return &domain.GeneratedImage{
		Image:              *img,
		Seed:               domain.SyntheticSeed,
		Model:              c.imageModel,
		Width:              domain.SyntheticWidth,
		Height:             domain.SyntheticHeight,
		AspectRatio:        req.AspectRatio,
		CostEstimateTokens: domain.SyntheticCostTokens,
	}, audit, nil
}

// extractImage は応答から最初のインライン画像を取り出すのだ。
// 終了理由が STOP 以外なら警告し、SAFETY は即エラーにする。
func (c *Client) extractImage(ctx context.Context, resp *genai.GenerateContentResponse) (*domain.ImageData, *domain.GenerationError) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &domain.GenerationError{
			Code: domain.ErrCodeEmptyResult, Message: "No candidates returned from the model.",
		}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
		slog.WarnContext(ctx, "生成候補が正常終了しなかったのだ", "finish_reason", candidate.FinishReason)
		if candidate.FinishReason == genai.FinishReasonSafety {
			return nil, &domain.GenerationError{
				Code: domain.ErrCodeContentBlocked, Message: "Image generation was blocked by safety filters.",
			}
		}
	}

	var image *domain.ImageData
	var textOutput strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				image = &domain.ImageData{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}
			} else if part.Text != "" {
				textOutput.WriteString(part.Text)
			}
		}
	}

	if image == nil {
		msg := "No image data found. The model may have blocked the content."
		if textOutput.Len() > 0 {
			msg = "Model refused: " + textOutput.String()
		}
		return nil, &domain.GenerationError{Code: domain.ErrCodeEmptyResult, Message: msg}
	}
	return image, nil
}
