package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-story-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-text-format/pkg/md2htmlrunner"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成された storyboard.md のパス
	HTMLPath     string   // 生成された HTML のパス
	ImagePaths   []string // 保存された全シーン画像のパスリスト
}

const (
	defaultStoryboardName = "storyboard.md"
	defaultImageDirName   = "images"
	placeholder           = "placeholder.png"
)

// StoryPublisher は物語の成果物（シーン画像・絵コンテ）の永続化とフォーマット変換を担います。
type StoryPublisher struct {
	writer     remoteio.OutputWriter
	htmlRunner md2htmlrunner.Runner
}

// NewStoryPublisher は StoryPublisher を初期化して返すのだ。htmlRunner は nil を許容する（HTML変換なし）。
func NewStoryPublisher(writer remoteio.OutputWriter, htmlRunner md2htmlrunner.Runner) *StoryPublisher {
	return &StoryPublisher{
		writer:     writer,
		htmlRunner: htmlRunner,
	}
}

// Publish はシーン画像の保存、絵コンテMarkdownの構築、HTML変換を一括して実行し、
// 生成されたファイル情報を返却するのだ！
func (p *StoryPublisher) Publish(ctx context.Context, plan domain.StoryPlan, opts Options) (PublishResult, error) {
	result := PublishResult{}

	markdown, err := ResolveOutputPath(opts.OutputDir, defaultStoryboardName)
	if err != nil {
		return result, err
	}
	result.MarkdownPath = markdown

	imgDir, err := ResolveOutputPath(opts.OutputDir, defaultImageDirName)
	if err != nil {
		return result, err
	}

	savedPaths, err := p.saveSceneImages(ctx, plan.Scenes, imgDir)
	if err != nil {
		return result, fmt.Errorf("シーン画像の書き込みに失敗しました: %w", err)
	}
	result.ImagePaths = savedPaths

	// Markdown には画像ディレクトリからの相対パスを埋め込むのだ
	relativePaths := make(map[int]string, len(savedPaths))
	for i, scene := range plan.Scenes {
		if scene.Image == nil {
			continue
		}
		relativePaths[i] = path.Join(defaultImageDirName, sceneFileName(scene))
	}

	content := buildStoryboardMarkdown(plan, relativePaths)

	if err := p.writer.Write(ctx, markdown, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}

	if p.htmlRunner != nil {
		slog.Info("絵コンテをHTMLに変換するのだ", "title", plan.Title)
		htmlBuffer, err := p.htmlRunner.Run(ctx, plan.Title, []byte(content))
		if err != nil {
			return result, fmt.Errorf("HTMLの変換に失敗しました: %w", err)
		}

		htmlPath := strings.TrimSuffix(markdown, filepath.Ext(markdown)) + ".html"
		if err := p.writer.Write(ctx, htmlPath, htmlBuffer, "text/html; charset=utf-8"); err != nil {
			return result, fmt.Errorf("HTMLファイルの書き込みに失敗しました: %w", err)
		}
		result.HTMLPath = htmlPath
	}

	return result, nil
}

// saveSceneImages は画像付きのシーンを指定ディレクトリ（ローカル or GCS）へ保存してパスを返すのだ。
func (p *StoryPublisher) saveSceneImages(ctx context.Context, scenes []domain.StoryScene, baseDir string) ([]string, error) {
	var paths []string
	for _, scene := range scenes {
		if scene.Image == nil || scene.Image.IsZero() {
			continue
		}
		fullPath, err := ResolveOutputPath(baseDir, sceneFileName(scene))
		if err != nil {
			return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}

		if err := p.writer.Write(ctx, fullPath, bytes.NewReader(scene.Image.Data), scene.Image.MIMEType); err != nil {
			return nil, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
		}
		paths = append(paths, fullPath)
	}
	return paths, nil
}

// sceneFileName はシーン番号から保存用のファイル名を決めるのだ。
func sceneFileName(scene domain.StoryScene) string {
	ext := ".png"
	if scene.Image != nil {
		switch scene.Image.MIMEType {
		case "image/jpeg":
			ext = ".jpg"
		case "image/webp":
			ext = ".webp"
		}
	}
	return fmt.Sprintf("scene_%02d%s", scene.SceneNumber, ext)
}
