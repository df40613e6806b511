package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// storyCmd は、台本から物語1本（登場人物 → シーン設計 → シーン画像）を生成するメインコマンドなのだ！
var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "台本からドキュメンタリー物語（8シーン）を一括生成するのだ！",
	Long: `台本テキストを解析し、登場人物のキャラクターシート、シーン設計（JSON）、
各シーンの画像を順に生成するのだ。参照画像を渡せば登場人物の見た目を固定できるのだよ。`,
	Example: "  go-story-kit story -f script.txt -c hero.png --style \"Pixar style\" -o output/story_plan.json",
	RunE:    storyCommand,
}

func init() {
	storyCmd.Flags().BoolVar(&opts.PlanOnly, "plan-only", false, "シーン設計（JSON）のみで画像生成をスキップするのだ。")
	storyCmd.Flags().IntVar(&opts.SceneCount, "scene-count", config.DefaultSceneCount, "生成するシーンの数なのだ。")
	storyCmd.Flags().StringVar(&opts.Location, "location", "", "舞台となる撮影地の名前なのだ（史実を設計に織り込むのだ）。")
	storyCmd.Flags().StringVar(&opts.CharacterConfig, "char-config", "", "登場人物表（JSON）のパスなのだ。参照画像URLをまとめて渡せるのだ。")
}

// storyCommand は、story サブコマンドの実行ロジック本体なのだ。
func storyCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.ScriptFile == "" && opts.Prompt == "" {
		return fmt.Errorf("台本（--script-file または --prompt）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("物語生成パイプラインを起動するのだ！",
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"scene_count", opts.SceneCount,
		"plan_only", opts.PlanOnly,
		"output", opts.OutputFile)

	if err := pipeline.ExecuteStory(ctx, cfg); err != nil {
		return fmt.Errorf("物語生成中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
