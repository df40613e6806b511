package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// imageCmd は、プロンプトと参照画像から単発の画像バッチを生成するサブコマンドなのだ。
// 物語生成をスキップして、画像の生成・調整だけを行いたい場合に便利なのだ。
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "プロンプトから画像バッチを生成して保存するのだ。",
	Long: `プロンプト（と任意の参照画像）から画像を複数枚生成して保存するのだ。
参照画像が複数あれば統合（fusion）、1枚なら編集、0枚なら新規生成になるのだよ。`,
	Example: "  go-story-kit image -p \"a cat astronaut\" -n 4 -a 1:1",
	RunE:    imageCommand,
}

func init() {
}

// imageCommand は、image サブコマンドの実行ロジック本体なのだ。
func imageCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.Prompt == "" {
		return fmt.Errorf("生成指示（--prompt）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("画像生成モードを起動するのだ！",
		"mode", opts.Mode,
		"count", opts.Count,
		"image_model", cfg.GeminiImageModel,
		"output_dir", opts.OutputImageDir)

	return pipeline.ExecuteImageBatch(ctx, cfg)
}
