package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-story-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は addAppFlags で各フラグに紐付けられる実行時オプションの共有インスタンスなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ScriptFile, "script-file", "f", "", "台本ファイルのパス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Prompt, "prompt", "p", "", "生成指示のテキストなのだ（台本ファイルの代わりに使えるのだ）。")

	// --- 参照画像 ---
	rootCmd.PersistentFlags().StringSliceVarP(&opts.CharacterRefs, "char-ref", "c", nil, "登場人物の参照画像（データURL・http(s)・gs:// 混在可）なのだ。")
	rootCmd.PersistentFlags().StringSliceVar(&opts.LocationRefs, "location-ref", nil, "撮影地の参照画像なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultLocalFile, "保存パス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputImageDir, "output-image-dir", "i", config.DefaultLocalImageDir, "生成された画像を保存するディレクトリ（ローカル or gs://...）なのだ。")

	// --- 生成挙動 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Mode, "mode", "m", "fusion", "プロンプト構築モード（fusion / scene / edit）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.AspectRatio, "aspect", "a", config.DefaultAspectRatio, "画像の縦横比なのだ（'custom' で自然な比率に任せるのだ）。")
	rootCmd.PersistentFlags().IntVarP(&opts.Count, "count", "n", 1, "生成する画像の枚数なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", config.DefaultStyle, "画風の指定なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Lang, "lang", config.DefaultLang, "言語（ar / en）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "テキスト生成に使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "画像生成に使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"go-story-kit",
		addAppFlags,
		preRunAppE,
		storyCmd,
		imageCmd,
		eraserCmd,
		researchCmd,
		translateCmd,
		enhanceCmd,
	)
}
