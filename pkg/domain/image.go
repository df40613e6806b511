package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// ImageData は画像バイナリとその MIME タイプのペアを保持します。
// モジュール内部では常にこの形式で画像を受け渡し、data URL 文字列への
// エンコードは外部境界（保存・表示）でのみ行います。
type ImageData struct {
	MIMEType string
	Data     []byte
}

// IsZero は画像データが空かどうかを返すのだ。
func (d ImageData) IsZero() bool {
	return len(d.Data) == 0
}

// DataURL は data URL 形式（data:<mime>;base64,...）の文字列に変換するのだ。
func (d ImageData) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", d.MIMEType, base64.StdEncoding.EncodeToString(d.Data))
}

// ParseDataURL は data URL 文字列を ImageData にデコードします。
// MIME タイプが読み取れない場合は image/png を仮定します。
func ParseDataURL(raw string) (ImageData, error) {
	if !strings.HasPrefix(raw, "data:") {
		return ImageData{}, fmt.Errorf("data URL 形式ではないのだ: %.32q", raw)
	}
	idx := strings.Index(raw, ",")
	if idx < 0 {
		return ImageData{}, fmt.Errorf("data URL にカンマ区切りが見つからないのだ")
	}

	meta := raw[len("data:"):idx]
	mimeType := "image/png"
	if semi := strings.Index(meta, ";"); semi > 0 {
		mimeType = meta[:semi]
	} else if meta != "" && !strings.Contains(meta, ";") {
		mimeType = meta
	}

	data, err := base64.StdEncoding.DecodeString(raw[idx+1:])
	if err != nil {
		return ImageData{}, fmt.Errorf("base64 デコードに失敗したのだ: %w", err)
	}
	return ImageData{MIMEType: mimeType, Data: data}, nil
}

// DetectImageData は生バイト列から MIME タイプを推定して ImageData を作るのだ。
func DetectImageData(data []byte) ImageData {
	return ImageData{MIMEType: http.DetectContentType(data), Data: data}
}

// GeneratedImage は1回の画像生成の成果物と監査用メタデータです。
// ホスト側 API がシード等を返さないため、メタデータは固定の合成値を埋めます。
type GeneratedImage struct {
	Image              ImageData
	Seed               string
	Model              string
	Width              int
	Height             int
	AspectRatio        string
	CostEstimateTokens int
}

// 合成メタデータの既定値なのだ。API が実値を返すようになったら差し替える。
const (
	SyntheticSeed       = "12345"
	SyntheticWidth      = 1024
	SyntheticHeight     = 1024
	SyntheticCostTokens = 100
)

// NewGeneratedImage は合成メタデータ付きの成果物を組み立てるのだ。
func NewGeneratedImage(img ImageData, model, aspectRatio string) GeneratedImage {
	return GeneratedImage{
		Image:              img,
		Seed:               SyntheticSeed,
		Model:              model,
		Width:              SyntheticWidth,
		Height:             SyntheticHeight,
		AspectRatio:        aspectRatio,
		CostEstimateTokens: SyntheticCostTokens,
	}
}
