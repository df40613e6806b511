package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/history"
	"github.com/shouni/go-story-kit/pkg/pipeline"
	"github.com/shouni/go-story-kit/pkg/publisher"
	"github.com/shouni/go-story-kit/pkg/retry"
	"github.com/shouni/go-story-kit/pkg/runner"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	mdbuilder "github.com/shouni/go-text-format/pkg/builder"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// InitializeAIClient は genai クライアントを初期化して ContentGenerator を返します。
func InitializeAIClient(ctx context.Context, apiKey string) (generator.ContentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client.Models, nil
}

// NewAppContext は全部品を組み立てて AppContext を返すのだ。
// 部品の生成順は 生成クライアント → 解決器 → ランナー → パイプライン の一方向で、循環はない。
func NewAppContext(
	ctx context.Context,
	cfg *config.Config,
	httpClient httpkit.HTTPClient,
	gen generator.ContentGenerator,
	reader remoteio.InputReader,
	writer remoteio.OutputWriter,
) (*AppContext, error) {
	client, err := generator.NewClient(gen, cfg.GeminiModel, cfg.GeminiImageModel, retry.New())
	if err != nil {
		return nil, fmt.Errorf("生成クライアントの初期化に失敗したのだ: %w", err)
	}

	refCache := gocache.New(config.DefaultCacheTTL, config.DefaultCleanupInterval)
	resolver, err := generator.NewResolver(reader, httpClient, refCache, config.DefaultCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("参照画像リゾルバの初期化に失敗したのだ: %w", err)
	}

	// 流量制限: Burst 2 により、開始直後は2件まで連続でリクエストを開始できるのだ
	batchLimiter := rate.NewLimiter(rate.Every(config.DefaultBatchRateLimit), 2)
	heroLimiter := rate.NewLimiter(rate.Every(config.DefaultHeroRateLimit), 2)

	batch, err := runner.NewBatchRunner(client, batchLimiter)
	if err != nil {
		return nil, fmt.Errorf("バッチランナーの初期化に失敗したのだ: %w", err)
	}
	heroes, err := runner.NewHeroRunner(client, client, heroLimiter)
	if err != nil {
		return nil, fmt.Errorf("ヒーローランナーの初期化に失敗したのだ: %w", err)
	}

	store := history.NewCacheStore(config.DefaultHistoryTTL, config.DefaultCleanupInterval)

	story, err := pipeline.NewStoryPipeline(client, batch, heroes, store)
	if err != nil {
		return nil, fmt.Errorf("物語パイプラインの初期化に失敗したのだ: %w", err)
	}

	pub, err := buildStoryPublisher(writer)
	if err != nil {
		return nil, err
	}

	return &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Reader:     reader,
		Writer:     writer,
		Client:     client,
		Resolver:   resolver,
		Batch:      batch,
		Heroes:     heroes,
		Story:      story,
		History:    store,
		Publisher:  pub,
		httpClient: httpClient,
	}, nil
}

// buildStoryPublisher は Markdown→HTML 変換ランナー込みの StoryPublisher を組み立てるのだ。
func buildStoryPublisher(writer remoteio.OutputWriter) (*publisher.StoryPublisher, error) {
	htmlCfg := mdbuilder.BuilderConfig{
		EnableHardWraps: true,
	}
	md2htmlBuilder, err := mdbuilder.NewBuilder(htmlCfg)
	if err != nil {
		return nil, fmt.Errorf("md2htmlBuilderの初期化に失敗しました: %w", err)
	}
	md2htmlRunner, err := md2htmlBuilder.BuildRunner()
	if err != nil {
		return nil, fmt.Errorf("md2htmlrunnerの初期化に失敗しました: %w", err)
	}

	return publisher.NewStoryPublisher(writer, md2htmlRunner), nil
}
