package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// eraserCmd は、入力画像からウォーターマークや文字を除去するサブコマンドなのだ。
var eraserCmd = &cobra.Command{
	Use:   "eraser",
	Short: "画像からウォーターマークや文字を消すのだ。",
	Long: `入力画像を編集モードで再生成し、ウォーターマーク・テキストオーバーレイ・ロゴを
除去するのだ。元画像と処理後のペアは履歴に残るのだよ。`,
	Example: "  go-story-kit eraser --input-image photo.jpg -o output/images/clean.png",
	RunE:    eraserCommand,
}

func init() {
	eraserCmd.Flags().StringVar(&opts.InputImage, "input-image", "", "処理対象の画像（データURL・http(s)・gs:// いずれも可）なのだ。")
}

// eraserCommand は、eraser サブコマンドの実行ロジック本体なのだ。
func eraserCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.InputImage == "" {
		return fmt.Errorf("対象画像（--input-image）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	// eraser のデフォルト出力はローカル画像ディレクトリ配下にするのだ
	if !cmd.Flags().Changed("output-file") {
		opts.OutputFile = ""
		cfg.Options.OutputFile = ""
	}

	slog.Info("消しゴムモードを起動するのだ！",
		"input", opts.InputImage,
		"image_model", cfg.GeminiImageModel)

	return pipeline.ExecuteEraser(ctx, cfg)
}
