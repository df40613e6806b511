package domain

import (
	"fmt"
	"time"
)

// ErrorCode は生成エラーの分類コードです。
type ErrorCode string

const (
	// ErrCodeTransient はリトライ上限まで粘っても解消しなかった一時的障害です。
	ErrCodeTransient ErrorCode = "transient"
	// ErrCodeContentBlocked は安全フィルタによる生成拒否です。リトライ対象外です。
	ErrCodeContentBlocked ErrorCode = "content_blocked"
	// ErrCodeEmptyResult は応答に画像が1枚も含まれなかったケースです。
	ErrCodeEmptyResult ErrorCode = "empty_result"
	// ErrCodeUpstream は上記以外のモデル側エラーです。
	ErrCodeUpstream ErrorCode = "upstream"
)

// Audit はリクエスト1件ぶんの監査情報なのだ。成功・失敗を問わず必ず付く。
type Audit struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Attempts  int       `json:"attempts"`
}

// Timing は処理時間の計測値なのだ。
type Timing struct {
	GenerationMS int64 `json:"generation_ms"`
}

// GenerationError はリモート生成の失敗を表すエラー型です。
// コード・リトライ可否・監査情報を保持し、呼び出し側は errors.As で判別できます。
type GenerationError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Audit     Audit
	Timing    Timing
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationError はリモート呼び出し前のローカル入力検証の失敗です。
// リモート由来のエラーをこの型で包むことはありません。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError はメッセージ付きの検証エラーを作るのだ。
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TranslateResult は翻訳オペレーションの結果です。
// Direction は表示側が使う書字方向（アラビア語なら rtl）です。
type TranslateResult struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	Lang           string `json:"lang"`
	Direction      string `json:"direction"`
	Audit          Audit  `json:"audit"`
	Timing         Timing `json:"timing"`
}

// PhraseChange は言い換え1件（from → to）なのだ。
type PhraseChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DescriptionDiff は強化前後のプロンプト差分なのだ。
type DescriptionDiff struct {
	Added    []string       `json:"added_phrases"`
	Removed  []string       `json:"removed_phrases"`
	Modified []PhraseChange `json:"modified_phrases"`
}

// EnhanceResult はプロンプト強化オペレーションの結果です。
type EnhanceResult struct {
	EnhancedText string          `json:"enhanced_text"`
	Diff         DescriptionDiff `json:"diff"`
	Audit        Audit           `json:"audit"`
	Timing       Timing          `json:"timing"`
}

// BatchImageResult は画像バッチ1件の結果です。
// Outputs は成功した画像のみを投入順に保持し、要求枚数より少ないことがあります。
// 全滅した場合のみ Err が立ち、部分成功は成功として扱います。
type BatchImageResult struct {
	InputIndex int
	Outputs    []GeneratedImage
	Err        *GenerationError
	Audit      Audit
	Timing     Timing
}

// Failed はバッチ全体が失敗扱いかどうかを返すのだ。
func (r *BatchImageResult) Failed() bool {
	return r.Err != nil
}
