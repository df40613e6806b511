package prompts

import (
	"fmt"
	"strings"
)

// ImageMode は画像生成プロンプトの組み立てモードです。
type ImageMode string

const (
	// ModeFusion は参照画像の枚数に応じて 生成/編集/合成 を切り替える既定モードです。
	ModeFusion ImageMode = "fusion"
	// ModeScene は物語シーン用（参照キャラクターの同一性ロック付き）です。
	ModeScene ImageMode = "scene"
	// ModeEdit は既存画像への修正指示モードです。
	ModeEdit ImageMode = "edit"
)

// qualitySuffix は全モード共通で末尾に付く品質強制句なのだ。
const qualitySuffix = " Generate high quality, 8k resolution, detailed image. Ensure the image is fully generated and not empty."

// AspectRatioCustom を指定すると比率強制をやめて入力画像の自然な比率に従うのだ。
const AspectRatioCustom = "custom"

// BuildImagePrompt はモード・参照枚数・アスペクト比から実効プロンプトを組み立てます。
// 結果は決定的で、同じ入力からは常に同じ文字列が返ります。
func BuildImagePrompt(mode ImageMode, prompt string, refCount int, aspectRatio, style string) string {
	var sb strings.Builder

	switch mode {
	case ModeScene:
		if refCount > 0 {
			// 参照画像からキャラクターの見た目を完全コピーさせる同一性ロックなのだ
			sb.WriteString(fmt.Sprintf(`
=== CHARACTER IDENTITY (FROM REFERENCE IMAGE) ===
The reference image shows the EXACT character. Copy their appearance EXACTLY:
- Same face, hair, skin tone, age
- Same clothing and accessories
- Same art style (%s)

=== OUTPUT IMAGE REQUIREMENTS ===
Generate a HIGH QUALITY scene image optimized for VIDEO GENERATION:

COMPOSITION:
- Character clearly visible, not cropped
- Clean, uncluttered background
- Strong foreground/background separation
- Cinematic 16:9 framing

LIGHTING (CRITICAL FOR VIDEO):
- Neutral, even lighting (no harsh shadows)
- Golden hour or soft diffused light preferred
- Avoid complex multi-source lighting
- Consistent light direction

TECHNICAL:
- Sharp focus on character
- Smooth, film-like color grading
- No text, logos, or watermarks
- Static pose (easier for video animation)

=== SCENE TO GENERATE ===
%s

STYLE: %s, cinematic, film quality, 4K detail
`, style, prompt, style))
		} else {
			sb.WriteString(fmt.Sprintf(`Generate a cinematic scene image optimized for video generation.

STYLE: %s
SCENE: %s

QUALITY REQUIREMENTS:
- Cinematic 16:9 composition
- Neutral, even lighting
- Clear subject focus
- No text or watermarks
- Film-like color grading
- Sharp details, 4K quality`, style, prompt))
		}

	case ModeEdit:
		sb.WriteString(fmt.Sprintf(`Edit the provided image (or generate a new one if no image) to match this modified description: %q.
         Maintain the original style and character consistency. High quality.`, prompt))

	default: // ModeFusion
		switch {
		case refCount > 1:
			sb.WriteString(fmt.Sprintf("Combine all uploaded images into one coherent visual output according to this description: %s. Maintain consistent lighting, perspective, and realism. No text, no logos, no watermarks.", prompt))
		case refCount == 1:
			sb.WriteString(fmt.Sprintf("Edit the image based on this instruction: %s. Keep the original composition where possible unless asked to change it. High quality.", prompt))
		default:
			sb.WriteString(fmt.Sprintf("Generate an image described as: %s", prompt))
		}
	}

	sb.WriteString(qualitySuffix)

	if aspectRatio != AspectRatioCustom {
		sb.WriteString(fmt.Sprintf(" The output image must be generated with a strict %s aspect ratio, cropping or filling as necessary to fit the frame perfectly.", aspectRatio))
	} else {
		sb.WriteString(" Follow the natural aspect ratio of the input image(s) or the most appropriate composition.")
	}

	return sb.String()
}

// BuildHeroSheetPrompt はキャラクターシート（正面ポートレート）用のプロンプトを作るのだ。
// シーン生成の参照画像になるため、白背景・立ちポーズで固定する。
func BuildHeroSheetPrompt(name, visualDescription, style string) string {
	return fmt.Sprintf("Character design of %s, %s. Full body, standing pose, neutral expression, white background. High quality character sheet style. Style: %s.", name, visualDescription, style)
}

// locationReferenceClause は撮影地写真を背景参照として使わせる前置き句なのだ。
const locationReferenceClause = "LOCATION REFERENCE: Use the location/architecture from reference images as the background. Match the exact architecture, textures, and atmosphere.\n\n"

// WithLocationReference はプロンプトに撮影地参照の前置きを付けます。
func WithLocationReference(prompt string) string {
	return locationReferenceClause + prompt
}

// BuildRegenerationPrompt はシーン再生成用の複合プロンプトを組み立てます。
// 元のシーン記述と修正指示を結合し、キャラクターとスタイルの維持を強制します。
func BuildRegenerationPrompt(originalDescription, modification string) string {
	return fmt.Sprintf(`Original Scene: %s.
      Modification Request: %s.
      Re-generate the scene image implementing this change while keeping the same characters and style.`, originalDescription, modification)
}

// BuildEraserPrompt はウォーターマーク・文字除去（消しゴム）の指示を返すのだ。
func BuildEraserPrompt() string {
	return "Remove all watermarks, text overlays, and logos from the image. Reconstruct the underlying content naturally. Do not alter anything else."
}

// CharacterDNA はキャラクターの同一性記述（エクスポート用）を言語別に生成します。
func CharacterDNA(name, age, style, lang string) string {
	if lang == "ar" {
		return fmt.Sprintf("%s: نفس الشخصية من الصورة المرجعية. %s، بشرة زيتونية دافئة. يرتدي ملابس مستكشف عصرية. أسلوب %s.", name, age, style)
	}
	return fmt.Sprintf("%s: Same character from reference image. %s, warm olive skin. Modern explorer outfit. %s style.", name, age, style)
}
