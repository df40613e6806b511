package publisher

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/shouni/go-story-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	written map[string]string
	types   map[string]string
}

func newMockWriter() *mockWriter {
	return &mockWriter{written: map[string]string{}, types: map[string]string{}}
}

func (m *mockWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.written[path] = string(data)
	m.types[path] = contentType
	return nil
}

func testPlan() domain.StoryPlan {
	return domain.StoryPlan{
		Title:             "البتراء",
		SceneCount:        2,
		HistoricalContext: "Nabataean capital",
		Scenes: []domain.StoryScene{
			{
				SceneNumber:      1,
				Description:      "Arrival at the Siq",
				VoiceoverFusha:   "وصلنا",
				CameraMovement:   "dolly in",
				SceneDurationSec: 8,
				Image:            &domain.ImageData{MIMEType: "image/png", Data: []byte("img1")},
			},
			{
				SceneNumber: 2,
				Description: "The Treasury at dawn",
			},
		},
	}
}

func TestStoryPublisher_Publish(t *testing.T) {
	t.Run("画像と絵コンテMarkdownが保存されること", func(t *testing.T) {
		w := newMockWriter()
		pub := NewStoryPublisher(w, nil)

		result, err := pub.Publish(context.Background(), testPlan(), Options{OutputDir: "output"})
		require.NoError(t, err)

		require.Len(t, result.ImagePaths, 1)
		assert.Contains(t, result.ImagePaths[0], "scene_01.png")
		assert.Equal(t, "img1", w.written[result.ImagePaths[0]])

		md, ok := w.written[result.MarkdownPath]
		require.True(t, ok, "storyboard.md が書き出されていないのだ")
		assert.Contains(t, md, "# البتراء")
		assert.Contains(t, md, "![Scene 1](images/scene_01.png)")
		assert.Contains(t, md, "- voiceover: وصلنا")
		assert.Contains(t, md, "- duration: 8s")
		// 画像の無いシーンはプレースホルダーになるのだ
		assert.Contains(t, md, "![Scene 2](placeholder.png)")
	})

	t.Run("htmlRunnerがnilならHTMLを出さないこと", func(t *testing.T) {
		w := newMockWriter()
		pub := NewStoryPublisher(w, nil)

		result, err := pub.Publish(context.Background(), testPlan(), Options{OutputDir: "output"})
		require.NoError(t, err)
		assert.Empty(t, result.HTMLPath)
	})
}

func TestResolveOutputPath(t *testing.T) {
	t.Run("GCSパスはスキームを保って結合されること", func(t *testing.T) {
		got, err := ResolveOutputPath("gs://bucket/stories", "storyboard.md")
		require.NoError(t, err)
		assert.Equal(t, "gs://bucket/stories/storyboard.md", got)
	})

	t.Run("ローカルパスはOSの区切りで結合されること", func(t *testing.T) {
		got, err := ResolveOutputPath("output", "storyboard.md")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(got, "storyboard.md"))
	})
}

func TestResolveBaseURL(t *testing.T) {
	assert.Equal(t, "gs://bucket/stories/", ResolveBaseURL("gs://bucket/stories/story_plan.json"))
	assert.Equal(t, "./", ResolveBaseURL("story_plan.json"))
}
