package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// researchCmd は、撮影地の史実をリサーチして知識ベースと台本の下書きを作るのだ。
var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "撮影地をリサーチして8シーン構成の台本を作るのだ。",
	Long: `撮影地の名前から歴史・ランドマーク・人物をリサーチし、確認できた事実だけの
知識ベースと、探検家視点の8シーン構成台本（ドキュメンタリー形式）を出力するのだ。`,
	Example: "  go-story-kit research --location \"Petra\" --explorer \"Layla\" --lang ar",
	RunE:    researchCommand,
}

func init() {
	researchCmd.Flags().StringVar(&opts.Location, "location", "", "リサーチ対象の撮影地の名前なのだ。")
	researchCmd.Flags().StringVar(&opts.ExplorerName, "explorer", "", "台本の主人公（探検家）の名前なのだ。")
}

// researchCommand は、research サブコマンドの実行ロジック本体なのだ。
func researchCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.Location == "" {
		return fmt.Errorf("撮影地（--location）を指定してほしいのだ")
	}

	// research のデフォルト出力はテキストなので、設計JSONのパスは使わないのだ
	if !cmd.Flags().Changed("output-file") {
		opts.OutputFile = "output/research_script.txt"
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("撮影地リサーチを起動するのだ！",
		"location", opts.Location,
		"lang", opts.Lang,
		"output", opts.OutputFile)

	return pipeline.ExecuteResearch(ctx, cfg)
}
