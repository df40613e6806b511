package generator

import (
	"context"
	"time"

	"google.golang.org/genai"
)

// ContentGenerator は Gemini SDK のコンテンツ生成面を抽象化する契約です。
// *genai.Client の Models フィールドがそのまま実装を満たすため、
// 本番はアダプタ無しで注入でき、テストではモックに差し替えられます。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageCacher は参照画像バイト列のキャッシュ契約です。
// patrickmn/go-cache のインターフェースに合わせてあります。
type ImageCacher interface {
	Get(k string) (any, bool)
	Set(k string, x any, d time.Duration)
}
