package domain

import (
	"fmt"
	"time"
)

// HistoryKind は履歴レコードの種別です。
type HistoryKind string

const (
	HistoryKindImage  HistoryKind = "image"
	HistoryKindStory  HistoryKind = "story"
	HistoryKindEraser HistoryKind = "eraser"
)

// ImageHistory は単発の画像生成レコードなのだ。
type ImageHistory struct {
	Prompt  string
	Outputs []GeneratedImage
}

// StoryHistory は完成した物語1本ぶんのレコードなのだ。
type StoryHistory struct {
	Script     string
	Plan       StoryPlan
	Characters []CharacterProfile
}

// EraserHistory は消しゴム（ウォーターマーク除去）の before/after ペアなのだ。
type EraserHistory struct {
	Before ImageData
	After  ImageData
}

// HistoryItem は生成履歴の1レコードです。保存後は不変として扱います。
// Kind に対応するペイロードがちょうど1つだけ設定されている必要があります。
type HistoryItem struct {
	ID        string
	Timestamp time.Time
	Kind      HistoryKind

	Image  *ImageHistory
	Story  *StoryHistory
	Eraser *EraserHistory
}

// Validate は種別とペイロードの整合（ちょうど1つ）を検査するのだ。
func (h *HistoryItem) Validate() error {
	set := 0
	if h.Image != nil {
		set++
	}
	if h.Story != nil {
		set++
	}
	if h.Eraser != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("履歴レコードのペイロードはちょうど1つでなければならないのだ（検出: %d）", set)
	}

	switch h.Kind {
	case HistoryKindImage:
		if h.Image == nil {
			return fmt.Errorf("種別 %s に対して Image ペイロードが無いのだ", h.Kind)
		}
	case HistoryKindStory:
		if h.Story == nil {
			return fmt.Errorf("種別 %s に対して Story ペイロードが無いのだ", h.Kind)
		}
	case HistoryKindEraser:
		if h.Eraser == nil {
			return fmt.Errorf("種別 %s に対して Eraser ペイロードが無いのだ", h.Kind)
		}
	default:
		return fmt.Errorf("未知の履歴種別なのだ: %q", h.Kind)
	}
	return nil
}
