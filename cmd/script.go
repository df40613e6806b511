package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// translateCmd は、台本やプロンプトの対訳（アラビア語 ⇔ 英語）を行うのだ。
var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "台本やプロンプトを対象言語に翻訳するのだ。",
	Long: `入力テキストを --lang で指定した言語に翻訳するのだ。
アラビア語の台本を英語の生成プロンプトに直すときなどに使うのだよ。`,
	Example: "  go-story-kit translate -p \"مرحبا بالعالم\" --lang en",
	RunE:    translateCommand,
}

// enhanceCmd は、説明文を画像生成向けに豊かに書き直すのだ。
var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "説明文を画像生成向けに強化して差分を出すのだ。",
	Long: `短い説明文を、照明・構図・質感などを補った画像生成向けの記述に書き直すのだ。
追加・削除・変更されたフレーズの差分も併せて出力するのだよ。`,
	Example: "  go-story-kit enhance -p \"a castle on a hill\" --lang en",
	RunE:    enhanceCommand,
}

func init() {
}

// translateCommand は、translate サブコマンドの実行ロジック本体なのだ。
func translateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.ScriptFile == "" && opts.Prompt == "" {
		return fmt.Errorf("翻訳するテキスト（--script-file または --prompt）を指定してほしいのだ")
	}

	// 未指定なら標準出力に吐くのだ
	if !cmd.Flags().Changed("output-file") {
		opts.OutputFile = ""
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("翻訳モードを起動するのだ！", "lang", opts.Lang, "text_model", cfg.GeminiModel)

	return pipeline.ExecuteTranslate(ctx, cfg)
}

// enhanceCommand は、enhance サブコマンドの実行ロジック本体なのだ。
func enhanceCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.ScriptFile == "" && opts.Prompt == "" {
		return fmt.Errorf("強化するテキスト（--script-file または --prompt）を指定してほしいのだ")
	}

	if !cmd.Flags().Changed("output-file") {
		opts.OutputFile = ""
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("プロンプト強化モードを起動するのだ！", "lang", opts.Lang, "text_model", cfg.GeminiModel)

	return pipeline.ExecuteEnhance(ctx, cfg)
}
