// Package history は生成履歴（画像・物語・消しゴム）の保存と参照を提供します。
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"

	gocache "github.com/patrickmn/go-cache"
)

// Store は履歴の永続化契約です。保存済みレコードは不変として扱います。
type Store interface {
	// Save は検証済みのレコードを保存します。ID 重複はエラーです。
	Save(item domain.HistoryItem) error
	// List は新しい順のスナップショットを返します。
	List() []domain.HistoryItem
	// Delete は ID 指定でレコードを削除します。存在しなければエラーです。
	Delete(id string) error
}

// CacheStore は go-cache を裏に持つ Store 実装です。
// TTL 付きで古いレコードは自然に失効します。
type CacheStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
	ids   []string // 保存順の ID 列。List で新しい順に反転するのだ
}

// NewCacheStore は TTL と掃除間隔を指定して CacheStore を初期化します。
func NewCacheStore(ttl, cleanupInterval time.Duration) *CacheStore {
	return &CacheStore{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Save はレコードを検証して保存するのだ。Timestamp が空なら現在時刻を入れる。
func (s *CacheStore) Save(item domain.HistoryItem) error {
	if item.ID == "" {
		return fmt.Errorf("履歴レコードのIDが空なのだ")
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("履歴レコードの検証に失敗したのだ: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cache.Get(item.ID); exists {
		return fmt.Errorf("履歴レコードのIDが重複しているのだ: %s", item.ID)
	}
	s.cache.Set(item.ID, item, gocache.DefaultExpiration)
	s.ids = append(s.ids, item.ID)
	return nil
}

// List は新しい順（最後に保存したものが先頭）のスナップショットを返すのだ。
// TTL で失効したレコードはここで ID 列からも間引かれる。
func (s *CacheStore) List() []domain.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	alive := make([]string, 0, len(s.ids))
	items := make([]domain.HistoryItem, 0, len(s.ids))
	// 保存順の逆から辿って、新しいものを先頭にするのだ
	for i := len(s.ids) - 1; i >= 0; i-- {
		val, ok := s.cache.Get(s.ids[i])
		if !ok {
			continue
		}
		item, ok := val.(domain.HistoryItem)
		if !ok {
			continue
		}
		alive = append([]string{s.ids[i]}, alive...)
		items = append(items, item)
	}
	s.ids = alive
	return items
}

// Delete は ID 指定でレコードを削除するのだ。
func (s *CacheStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.Get(id); !ok {
		return fmt.Errorf("履歴レコードが見つからないのだ: %s", id)
	}
	s.cache.Delete(id)
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}
