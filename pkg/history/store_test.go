package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageItem(id string) domain.HistoryItem {
	return domain.HistoryItem{
		ID:   id,
		Kind: domain.HistoryKindImage,
		Image: &domain.ImageHistory{
			Prompt:  "a fox",
			Outputs: []domain.GeneratedImage{{Image: domain.ImageData{MIMEType: "image/png", Data: []byte{1}}}},
		},
	}
}

func TestCacheStore(t *testing.T) {
	t.Run("保存したレコードが新しい順で一覧されること", func(t *testing.T) {
		s := NewCacheStore(time.Hour, time.Hour)
		for i := 1; i <= 3; i++ {
			require.NoError(t, s.Save(imageItem(fmt.Sprintf("item-%d", i))))
		}

		got := s.List()
		require.Len(t, got, 3)
		assert.Equal(t, "item-3", got[0].ID)
		assert.Equal(t, "item-1", got[2].ID)
	})

	t.Run("削除後は一覧から消えること", func(t *testing.T) {
		s := NewCacheStore(time.Hour, time.Hour)
		require.NoError(t, s.Save(imageItem("keep")))
		require.NoError(t, s.Save(imageItem("drop")))

		require.NoError(t, s.Delete("drop"))
		got := s.List()
		require.Len(t, got, 1)
		assert.Equal(t, "keep", got[0].ID)

		assert.Error(t, s.Delete("drop"), "二重削除はエラーになるのだ")
	})

	t.Run("ID重複の保存は拒否されること", func(t *testing.T) {
		s := NewCacheStore(time.Hour, time.Hour)
		require.NoError(t, s.Save(imageItem("dup")))
		assert.Error(t, s.Save(imageItem("dup")))
	})

	t.Run("ペイロード不整合のレコードは保存できないこと", func(t *testing.T) {
		s := NewCacheStore(time.Hour, time.Hour)

		// ペイロード無し
		err := s.Save(domain.HistoryItem{ID: "empty", Kind: domain.HistoryKindImage})
		assert.Error(t, err)

		// 種別とペイロードの不一致
		err = s.Save(domain.HistoryItem{
			ID:    "mismatch",
			Kind:  domain.HistoryKindStory,
			Image: &domain.ImageHistory{Prompt: "x"},
		})
		assert.Error(t, err)

		// ペイロード2つ
		err = s.Save(domain.HistoryItem{
			ID:    "double",
			Kind:  domain.HistoryKindStory,
			Image: &domain.ImageHistory{Prompt: "x"},
			Story: &domain.StoryHistory{Script: "y"},
		})
		assert.Error(t, err)
	})

	t.Run("物語と消しゴムのレコードも保存できること", func(t *testing.T) {
		s := NewCacheStore(time.Hour, time.Hour)

		require.NoError(t, s.Save(domain.HistoryItem{
			ID:   "story-1",
			Kind: domain.HistoryKindStory,
			Story: &domain.StoryHistory{
				Script: "a journey",
				Plan:   domain.StoryPlan{Title: "رحلة", SceneCount: 8},
			},
		}))
		require.NoError(t, s.Save(domain.HistoryItem{
			ID:   "eraser-1",
			Kind: domain.HistoryKindEraser,
			Eraser: &domain.EraserHistory{
				Before: domain.ImageData{MIMEType: "image/png", Data: []byte{1}},
				After:  domain.ImageData{MIMEType: "image/png", Data: []byte{2}},
			},
		}))

		got := s.List()
		require.Len(t, got, 2)
		assert.Equal(t, domain.HistoryKindEraser, got[0].Kind)
		assert.Equal(t, domain.HistoryKindStory, got[1].Kind)
	})

	t.Run("Timestampが空なら保存時に現在時刻が入ること", func(t *testing.T) {
		s := NewCacheStore(time.Hour, time.Hour)
		require.NoError(t, s.Save(imageItem("ts")))
		got := s.List()
		require.Len(t, got, 1)
		assert.False(t, got[0].Timestamp.IsZero())
	})
}
