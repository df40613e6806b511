package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultImageModel  = "gemini-2.5-flash-image"
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultSceneCount はドキュメンタリー構成の固定シーン数なのだ（8シーン × 8秒）
	DefaultSceneCount  = 8
	DefaultAspectRatio = "16:9"
	DefaultStyle       = "Pixar style"
	DefaultLang        = "ar"

	// DefaultBatchRateLimit はバッチ/シーン画像生成の呼び出し間隔なのだ
	DefaultBatchRateLimit = 2 * time.Second
	// DefaultHeroRateLimit はキャラクターシート並列生成の呼び出し間隔なのだ
	DefaultHeroRateLimit = 5 * time.Second

	// 参照画像キャッシュと履歴ストアの生存期間
	DefaultCacheTTL        = 30 * time.Minute
	DefaultHistoryTTL      = 24 * time.Hour
	DefaultCleanupInterval = 1 * time.Hour

	DefaultLocalFile     = "output/story_plan.json" // 設計JSONのデフォルト保存先なのだ
	DefaultLocalImageDir = "output/images"          // 生成画像のデフォルト保存先なのだ
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	ProjectID        string
	LocationID       string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		ProjectID:        envutil.GetEnv("PROJECT_ID", ""),
		LocationID:       envutil.GetEnv("REGION", ""),
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	ScriptFile     string // --script-file: 台本テキストのパス（ローカル or gs://）
	Prompt         string // --prompt: 単発画像生成の指示
	OutputFile     string // --output-file
	OutputImageDir string // --output-image-dir

	// 参照画像（データURL・http(s)・gs:// を混在可）
	CharacterRefs []string // --char-ref
	LocationRefs  []string // --location-ref
	InputImage    string   // --input-image: 消しゴム対象などの単一入力画像

	// CharacterConfig は事前定義の登場人物表（JSON）のパスなのだ。
	CharacterConfig string // --char-config

	// 生成挙動
	AspectRatio string // --aspect: 比率（"custom" で自然な比率）
	Count       int    // --count: バッチ枚数
	Mode        string // --mode: fusion / scene / edit
	Style       string // --style
	Lang        string // --lang: ar / en
	SceneCount  int    // --scene-count
	PlanOnly    bool   // --plan-only: シーン設計のみで画像生成をスキップ

	// 撮影地リサーチ関連
	Location     string // --location: 撮影地の名前
	ExplorerName string // --explorer: 主人公の名前

	// AI挙動設定
	AIModel    string // --model: テキスト生成用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}
