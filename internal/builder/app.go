package builder

import (
	"github.com/shouni/go-story-kit/internal/config"

	"github.com/shouni/go-story-kit/pkg/generator"
	"github.com/shouni/go-story-kit/pkg/history"
	"github.com/shouni/go-story-kit/pkg/pipeline"
	"github.com/shouni/go-story-kit/pkg/publisher"
	"github.com/shouni/go-story-kit/pkg/runner"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する。
// これを各実行関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Reader  remoteio.InputReader   // Readerは、台本や参照データの読み込みに使用する入力元です。
	Writer  remoteio.OutputWriter  // Writerは、生成された画像や設計JSONを保存するための出力先です。

	Client    *generator.Client         // Client はテキスト・画像生成を担う生成クライアント
	Resolver  *generator.Resolver       // Resolver は参照画像の解決器
	Batch     *runner.BatchRunner       // Batch は画像バッチの実行体
	Heroes    *runner.HeroRunner        // Heroes はキャラクターシート生成の実行体
	Story     *pipeline.StoryPipeline   // Story は物語生成の統括パイプライン
	History   history.Store             // History は生成履歴ストア
	Publisher *publisher.StoryPublisher // Publisher は成果物（絵コンテ・画像）の保存役

	httpClient httpkit.HTTPClient // httpClient は外部APIとの通信に使う共通クライアント
}
