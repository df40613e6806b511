package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-story-kit/internal/builder"
	"github.com/shouni/go-story-kit/internal/config"
	"github.com/shouni/go-story-kit/pkg/domain"
	"github.com/shouni/go-story-kit/pkg/pipeline"
	"github.com/shouni/go-story-kit/pkg/prompts"
	"github.com/shouni/go-story-kit/pkg/publisher"
	"github.com/shouni/go-story-kit/pkg/runner"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// ExecuteImageBatch は、プロンプトと参照画像から画像バッチを生成して保存するのだ。
// 一部のみ成功した場合も、得られた画像はすべて保存する。
func ExecuteImageBatch(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := cfg.Options

	if opts.Prompt == "" {
		return fmt.Errorf("プロンプトが空なのだ（--prompt で指定してほしいのだ）")
	}

	refs := appCtx.Resolver.Resolve(ctx, opts.CharacterRefs)

	slog.Info("画像バッチ生成を開始するのだ", "count", opts.Count, "mode", opts.Mode, "refs", len(refs))

	res, err := appCtx.Batch.Generate(ctx, runner.BatchRequest{
		Prompt:      opts.Prompt,
		Refs:        refs,
		AspectRatio: opts.AspectRatio,
		Count:       opts.Count,
		Mode:        prompts.ImageMode(opts.Mode),
		Style:       opts.Style,
	})
	if err != nil {
		return err
	}
	if res.Failed() {
		return fmt.Errorf("画像バッチ生成に失敗したのだ: %w", res.Err)
	}

	dir := opts.OutputImageDir
	if dir == "" {
		dir = config.DefaultLocalImageDir
	}
	for i, out := range res.Outputs {
		path, err := publisher.ResolveOutputPath(dir, fmt.Sprintf("image_%02d%s", i+1, extFromMIME(out.Image.MIMEType)))
		if err != nil {
			return err
		}
		if err := appCtx.Writer.Write(ctx, path, bytes.NewReader(out.Image.Data), out.Image.MIMEType); err != nil {
			return fmt.Errorf("画像 '%s' の保存に失敗したのだ: %w", path, err)
		}
		slog.Info("画像を保存したのだ", "path", path)
	}

	saveImageHistory(ctx, appCtx, opts.Prompt, res.Outputs)

	slog.Info("画像バッチ生成が完了したのだ！", "generated", len(res.Outputs))
	return nil
}

// ExecuteStory は、台本から物語1本（登場人物 → シーン設計 → シーン画像）を生成する
// メインフローなのだ。--plan-only 指定時はシーン設計JSONだけを出力する。
func ExecuteStory(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := cfg.Options

	script, err := loadScript(ctx, appCtx, opts)
	if err != nil {
		return err
	}

	// 参照画像の準備: 手動指定 + 登場人物表の参照URLを合わせて解決するのだ
	refURLs := opts.CharacterRefs
	if opts.CharacterConfig != "" {
		rosterRefs, err := loadRosterRefs(ctx, appCtx, opts.CharacterConfig)
		if err != nil {
			return err
		}
		refURLs = append(refURLs, rosterRefs...)
	}
	charRefs := appCtx.Resolver.Resolve(ctx, refURLs)
	var characters []domain.CharacterProfile
	if len(charRefs) == 0 && !opts.PlanOnly {
		slog.Info("参照画像が未指定なので、台本から登場人物を生成するのだ")
		characters, err = appCtx.Story.CreateHeroes(ctx, script, opts.Lang, opts.Style)
		if err != nil {
			return fmt.Errorf("登場人物の生成に失敗したのだ: %w", err)
		}
		for _, ch := range characters {
			if ch.Usable() {
				charRefs = append(charRefs, *ch.Image)
			}
		}
	}
	locRefs := appCtx.Resolver.Resolve(ctx, opts.LocationRefs)

	req := pipeline.StoryRequest{
		Script:        script,
		Lang:          opts.Lang,
		Style:         opts.Style,
		AspectRatio:   opts.AspectRatio,
		SceneCount:    opts.SceneCount,
		LocationName:  opts.Location,
		CharacterRefs: charRefs,
		LocationRefs:  locRefs,
		PlanOnly:      opts.PlanOnly,
		OnScene: func(index int, scene domain.StoryScene) {
			if scene.Loading {
				slog.Info("シーン設計が完了したのだ", "scene", scene.SceneNumber, "mood", scene.Mood)
			} else {
				slog.Info("シーン画像が確定したのだ", "scene", scene.SceneNumber, "has_image", scene.Image != nil)
			}
		},
	}

	result, err := appCtx.Story.CreateStory(ctx, req)
	if err != nil {
		return fmt.Errorf("物語の生成に失敗したのだ: %w", err)
	}

	// 設計JSONの保存
	outputPath := opts.OutputFile
	if outputPath == "" {
		outputPath = config.DefaultLocalFile
	}
	planJSON, err := json.MarshalIndent(result.Plan, "", "  ")
	if err != nil {
		return fmt.Errorf("設計JSONのエンコードに失敗したのだ: %w", err)
	}
	if err := appCtx.Writer.Write(ctx, outputPath, bytes.NewReader(planJSON), "application/json"); err != nil {
		return fmt.Errorf("設計JSON '%s' の保存に失敗したのだ: %w", outputPath, err)
	}

	// 生成したヒーローがいれば、動画編集などで使う同一性記述（DNA）も書き出すのだ
	if len(characters) > 0 {
		if err := writeCharacterDNA(ctx, appCtx, outputPath, characters, opts); err != nil {
			slog.WarnContext(ctx, "同一性記述の保存に失敗したのだ", "error", err)
		}
	}

	// シーン画像と絵コンテ（Markdown/HTML）は設計JSONと同じ場所にまとめて出すのだ
	if !opts.PlanOnly {
		pubResult, err := appCtx.Publisher.Publish(ctx, result.Plan, publisher.Options{
			OutputDir: publisher.ResolveBaseURL(outputPath),
		})
		if err != nil {
			return fmt.Errorf("成果物の保存に失敗したのだ: %w", err)
		}
		slog.Info("絵コンテを保存したのだ",
			"markdown", pubResult.MarkdownPath, "html", pubResult.HTMLPath, "images", len(pubResult.ImagePaths))
	}

	slog.Info("物語の生成が完了したのだ！",
		"title", result.Plan.Title, "scenes", len(result.Plan.Scenes),
		"plan", outputPath, "history_id", result.HistoryID)
	return nil
}

// ExecuteResearch は撮影地をリサーチし、知識ベースと8シーン構成の台本を書き出すのだ。
func ExecuteResearch(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := cfg.Options

	research, knowledgeBase, script, err := appCtx.Story.ResearchAndScript(ctx, opts.Location, opts.ExplorerName, opts.Lang)
	if err != nil {
		return fmt.Errorf("撮影地リサーチに失敗したのだ: %w", err)
	}

	slog.Info("撮影地リサーチが完了したのだ",
		"location", research.LocationName, "era", research.HistoricalEra,
		"facts", len(research.KeyFacts))

	// 知識ベースと台本を1つのテキストにまとめて保存するのだ
	var buf bytes.Buffer
	buf.WriteString(knowledgeBase)
	buf.WriteString("\n\n---\n\n")
	buf.WriteString(script)

	outputPath := opts.OutputFile
	if outputPath == "" {
		outputPath = "output/research_script.txt"
	}
	if err := appCtx.Writer.Write(ctx, outputPath, &buf, "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("リサーチ結果 '%s' の保存に失敗したのだ: %w", outputPath, err)
	}

	slog.Info("リサーチ台本を保存したのだ", "path", outputPath)
	return nil
}

// ExecuteTranslate は台本（またはプロンプト文字列）を対象言語に翻訳するのだ。
func ExecuteTranslate(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := cfg.Options

	text, err := loadScript(ctx, appCtx, opts)
	if err != nil {
		return err
	}

	result, err := appCtx.Client.Translate(ctx, text, opts.Lang)
	if err != nil {
		return fmt.Errorf("翻訳に失敗したのだ: %w", err)
	}

	return writeText(ctx, appCtx, opts.OutputFile, result.TranslatedText)
}

// ExecuteEnhance は説明文を指定の強度で豊かに書き直し、変更差分も併せて出力するのだ。
func ExecuteEnhance(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := cfg.Options

	text, err := loadScript(ctx, appCtx, opts)
	if err != nil {
		return err
	}

	result, err := appCtx.Client.Enhance(ctx, text, opts.Lang, prompts.EnhanceMedium)
	if err != nil {
		return fmt.Errorf("プロンプト強化に失敗したのだ: %w", err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return writeText(ctx, appCtx, opts.OutputFile, string(payload))
}

// ExecuteEraser は入力画像からウォーターマークや文字を除去して保存するのだ。
func ExecuteEraser(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := cfg.Options

	if opts.InputImage == "" {
		return fmt.Errorf("対象画像が未指定なのだ（--input-image で指定してほしいのだ）")
	}
	img, err := appCtx.Resolver.ResolveOne(ctx, opts.InputImage)
	if err != nil {
		return fmt.Errorf("対象画像の読み込みに失敗したのだ: %w", err)
	}

	out, err := appCtx.Story.EraseWatermark(ctx, img)
	if err != nil {
		return fmt.Errorf("消しゴム処理に失敗したのだ: %w", err)
	}

	outputPath := opts.OutputFile
	if outputPath == "" {
		outputPath, err = publisher.ResolveOutputPath(config.DefaultLocalImageDir, "erased"+extFromMIME(out.Image.MIMEType))
		if err != nil {
			return err
		}
	}
	if err := appCtx.Writer.Write(ctx, outputPath, bytes.NewReader(out.Image.Data), out.Image.MIMEType); err != nil {
		return fmt.Errorf("結果画像 '%s' の保存に失敗したのだ: %w", outputPath, err)
	}

	slog.Info("消しゴム処理が完了したのだ！", "path", outputPath)
	return nil
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
// ライフサイクル管理用の context と設定オブジェクトを受け取るのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	httpClient := httpkit.New(config.DefaultHTTPTimeout)
	aiClient, err := builder.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai client: %w", err)
	}

	gcsFactory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.InputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.OutputWriter()
	if err != nil {
		return nil, err
	}

	return builder.NewAppContext(ctx, cfg, httpClient, aiClient, reader, writer)
}

// loadRosterRefs は登場人物表（JSON）を読み込み、参照画像URLをID順に返すのだ。
func loadRosterRefs(ctx context.Context, appCtx *builder.AppContext, path string) ([]string, error) {
	rc, err := appCtx.Reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("登場人物表 '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	roster, err := domain.ParseRoster(data)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, id := range roster.SortedIDs() {
		if url := roster[id].ReferenceURL; url != "" {
			refs = append(refs, url)
		}
	}
	slog.Info("登場人物表を読み込んだのだ", "characters", len(roster), "refs", len(refs))
	return refs, nil
}

// loadScript は --script-file（ローカル or gs://）か --prompt のどちらかから本文を得るのだ。
func loadScript(ctx context.Context, appCtx *builder.AppContext, opts config.GenerateOptions) (string, error) {
	if opts.ScriptFile != "" {
		rc, err := appCtx.Reader.Open(ctx, opts.ScriptFile)
		if err != nil {
			return "", fmt.Errorf("台本ファイル '%s' の読み込みに失敗したのだ: %w", opts.ScriptFile, err)
		}
		defer rc.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, rc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	if opts.Prompt != "" {
		return opts.Prompt, nil
	}
	return "", fmt.Errorf("台本が未指定なのだ（--script-file か --prompt で指定してほしいのだ）")
}

// writeText はテキスト成果物を保存先（未指定なら標準出力）に出力するのだ。
func writeText(ctx context.Context, appCtx *builder.AppContext, outputPath, text string) error {
	if outputPath == "" {
		fmt.Println(text)
		return nil
	}
	if err := appCtx.Writer.Write(ctx, outputPath, strings.NewReader(text), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("テキスト成果物 '%s' の保存に失敗したのだ: %w", outputPath, err)
	}
	slog.Info("テキスト成果物を保存したのだ", "path", outputPath)
	return nil
}

// writeCharacterDNA は登場人物ごとの同一性記述を設計JSONと同じ場所に書き出すのだ。
func writeCharacterDNA(ctx context.Context, appCtx *builder.AppContext, planPath string, characters []domain.CharacterProfile, opts config.GenerateOptions) error {
	var sb strings.Builder
	for _, ch := range characters {
		sb.WriteString(prompts.CharacterDNA(ch.Name, ch.VisualDescription, opts.Style, opts.Lang))
		sb.WriteString("\n\n")
	}

	dnaPath, err := publisher.ResolveOutputPath(publisher.ResolveBaseURL(planPath), "characters_dna.txt")
	if err != nil {
		return err
	}
	if err := appCtx.Writer.Write(ctx, dnaPath, strings.NewReader(sb.String()), "text/plain; charset=utf-8"); err != nil {
		return err
	}
	slog.Info("同一性記述を保存したのだ", "path", dnaPath, "characters", len(characters))
	return nil
}

// saveImageHistory は単発バッチの生成履歴を保存するのだ。失敗しても処理は続行する。
func saveImageHistory(ctx context.Context, appCtx *builder.AppContext, prompt string, outputs []domain.GeneratedImage) {
	item := domain.HistoryItem{
		ID:   fmt.Sprintf("image-%d", time.Now().UnixNano()),
		Kind: domain.HistoryKindImage,
		Image: &domain.ImageHistory{
			Prompt:  prompt,
			Outputs: outputs,
		},
	}
	if err := appCtx.History.Save(item); err != nil {
		slog.WarnContext(ctx, "履歴の保存に失敗したのだ", "error", err)
	}
}

// extFromMIME は MIME タイプから保存用の拡張子を決めるのだ。
func extFromMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
