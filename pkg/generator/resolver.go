package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-story-kit/pkg/domain"

	"github.com/shouni/gemini-image-kit/imgutil"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// 参照画像の取り扱い設定なのだ。
const (
	// UseImageCompression を有効にすると、取得した参照画像を JPEG に圧縮して
	// リクエストサイズを抑える。
	UseImageCompression     = true
	ImageCompressionQuality = 85

	cacheKeyRefImage = "ref-image:"
)

// Resolver は参照画像の指定（data URL / http(s) / gs://）を ImageData に解決します。
// リモート取得はキャッシュされ、同じ参照が物語全体で再利用されても再取得しません。
type Resolver struct {
	reader     remoteio.InputReader
	httpClient httpkit.HTTPClient
	cache      ImageCacher
	expiration time.Duration
}

// NewResolver は依存関係を注入して Resolver を初期化します。cache は nil を許容します。
func NewResolver(reader remoteio.InputReader, httpClient httpkit.HTTPClient, cache ImageCacher, cacheTTL time.Duration) (*Resolver, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Resolver{
		reader:     reader,
		httpClient: httpClient,
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// Resolve は参照指定のリストをまとめて解決するのだ。
// 解決に失敗した参照はスキップして残りを返す（1枚の失敗で全体を止めない）。
func (r *Resolver) Resolve(ctx context.Context, refs []string) []domain.ImageData {
	resolved := make([]domain.ImageData, 0, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		img, err := r.resolveOne(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "参照画像の解決に失敗したのでスキップするのだ", "ref", truncateRef(ref), "error", err)
			continue
		}
		resolved = append(resolved, img)
	}
	return resolved
}

// ResolveOne は単一の参照指定を解決します。
func (r *Resolver) ResolveOne(ctx context.Context, ref string) (domain.ImageData, error) {
	return r.resolveOne(ctx, ref)
}

func (r *Resolver) resolveOne(ctx context.Context, ref string) (domain.ImageData, error) {
	// data URL はローカルでデコードするだけなのだ
	if strings.HasPrefix(ref, "data:") {
		return domain.ParseDataURL(ref)
	}

	if r.cache != nil {
		if val, ok := r.cache.Get(cacheKeyRefImage + ref); ok {
			if img, ok := val.(domain.ImageData); ok {
				return img, nil
			}
		}
	}

	data, err := r.fetchImageData(ctx, ref)
	if err != nil {
		return domain.ImageData{}, err
	}

	finalData := data
	if UseImageCompression {
		if compressed, err := imgutil.CompressToJPEG(bytes.NewReader(data), ImageCompressionQuality); err == nil {
			finalData = compressed
		}
	}

	img := domain.DetectImageData(finalData)
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return domain.ImageData{}, fmt.Errorf("画像ではないコンテンツが返されたのだ: %s", img.MIMEType)
	}

	if r.cache != nil {
		r.cache.Set(cacheKeyRefImage+ref, img, r.expiration)
	}
	return img, nil
}

func (r *Resolver) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		if r.reader == nil {
			return nil, fmt.Errorf("gs:// の参照には InputReader が必要なのだ")
		}
		rc, err := r.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if safe, err := r.httpClient.IsSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return r.httpClient.FetchBytes(ctx, rawURL)
}

func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
