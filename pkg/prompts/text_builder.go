package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-story-kit/pkg/domain"
)

// langName は言語コードを英語名に変換するのだ。
func langName(lang string) string {
	if lang == "ar" {
		return "Arabic"
	}
	return "English"
}

// BuildTranslatePrompt は翻訳指示プロンプトを組み立てます。
func BuildTranslatePrompt(text, targetLang string) string {
	return fmt.Sprintf(`Translate the following description to %s.
      Input: %q`, langName(targetLang), text)
}

// EnhanceLevel はプロンプト強化の強度です。
type EnhanceLevel string

const (
	EnhanceLight  EnhanceLevel = "light"
	EnhanceMedium EnhanceLevel = "medium"
	EnhanceStrong EnhanceLevel = "strong"
)

// BuildEnhancePrompt はプロンプト強化の指示を組み立てます。
// 中核の意味を保ったまま、照明・スタイル・カメラの詳細を追加させます。
func BuildEnhancePrompt(description, lang string, level EnhanceLevel) string {
	return fmt.Sprintf(`Enhance the following image description for an AI image generator.
    Level: %s. Language: %s.
    Description: %q
    Maintain the core meaning but add details about lighting, style, and camera.
    Return strictly JSON matching the schema.`, level, lang, description)
}

// BuildCharacterProfilesPrompt は台本から主要人物を抽出させる指示を組み立てます。
func BuildCharacterProfilesPrompt(script, lang string) string {
	return fmt.Sprintf(`Identify the main characters in the following story script.
        Extract their names and provide a detailed visual description for each (face, body, clothes, key features) to be used for image generation.
        Script: %q
        Language: %s.
        `, script, lang)
}

// FormatKnowledgeBase はリサーチ結果を台本に添える知識ベーステキストに整形するのだ。
func FormatKnowledgeBase(r domain.LocationResearch, lang string) string {
	factsLabel, landmarksLabel, significanceLabel := "📚 Historical Facts:", "🏛️ Landmarks:", "📖 Significance:"
	if lang == "ar" {
		factsLabel, landmarksLabel, significanceLabel = "📚 الحقائق التاريخية:", "🏛️ المعالم:", "📖 الأهمية:"
	}

	lines := []string{
		"📍 " + r.LocationName,
		"📅 " + r.HistoricalEra,
		"",
		factsLabel,
	}
	for _, f := range r.KeyFacts {
		lines = append(lines, "• "+f)
	}
	lines = append(lines, "", landmarksLabel)
	for _, l := range r.Landmarks {
		lines = append(lines, "• "+l)
	}
	lines = append(lines, "", significanceLabel, r.HistoricalSignificance)
	return strings.Join(lines, "\n")
}

// BuildEnhancedScript は知識ベース付きの台本を組み立てます。
// モデルに「提供された史実だけを使う」よう強制する前置きを付けます。
func BuildEnhancedScript(script, locationName, knowledgeBase string) string {
	if strings.TrimSpace(knowledgeBase) == "" {
		return script
	}
	if locationName == "" {
		locationName = "Location"
	}
	context := fmt.Sprintf("=== %s ===\n%s", locationName, knowledgeBase)
	return fmt.Sprintf("%s\n\n=== USER-PROVIDED HISTORICAL FACTS (USE ONLY THESE) ===\n%s", script, context)
}

// pick はスライスの i 番目の要素、無ければ代替文字列を返す小さなヘルパーなのだ。
func pick(items []string, i int, fallback string) string {
	if i < len(items) {
		return items[i]
	}
	return fallback
}

// BuildResearchScript はリサーチ結果から8シーン構成のドキュメンタリー台本を生成します。
// 到着→発見→詳細→歴史→探索→感動→学び→別れ の固定構成です。
func BuildResearchScript(r domain.LocationResearch, explorerName, lang string) string {
	if explorerName == "" {
		if lang == "ar" {
			explorerName = "المستكشف"
		} else {
			explorerName = "the explorer"
		}
	}

	if lang == "ar" {
		return fmt.Sprintf(`رحلة %[1]s إلى %[2]s:

المشهد 1 (الوصول): %[1]s يصل إلى %[2]s، ينظر بإعجاب إلى الأطلال العريقة.
المشهد 2 (الاكتشاف): %[1]s يكتشف %[3]s.
المشهد 3 (التفاصيل): %[1]s يتأمل التفاصيل المعمارية القديمة.
المشهد 4 (التاريخ): %[1]s يستمع إلى قصة %[2]s: %[4]s.
المشهد 5 (الاستكشاف): %[1]s يتجول في %[5]s.
المشهد 6 (الإعجاب): %[1]s يقف مندهشاً أمام عظمة الحضارة القديمة.
المشهد 7 (التعلم): %[1]s يقرأ النقوش ويتعلم %[6]s.
المشهد 8 (الوداع): %[1]s ينظر إلى %[2]s مع غروب الشمس، يعد بالعودة.`,
			explorerName, r.LocationName,
			pick(r.Landmarks, 0, "المعالم الأثرية"),
			pick(r.KeyFacts, 0, ""),
			pick(r.Landmarks, 1, "أرجاء الموقع"),
			pick(r.KeyFacts, 1, "عن التاريخ"))
	}

	return fmt.Sprintf(`%[1]s's Journey to %[2]s:

Scene 1 (Arrival): %[1]s arrives at %[2]s, looking up at ancient ruins in wonder.
Scene 2 (Discovery): %[1]s discovers %[3]s.
Scene 3 (Detail): %[1]s examines ancient architectural details.
Scene 4 (History): %[1]s learns: %[4]s.
Scene 5 (Exploration): %[1]s walks through %[5]s.
Scene 6 (Wonder): %[1]s stands in awe of ancient civilization.
Scene 7 (Learning): %[1]s reads inscriptions, discovering %[6]s.
Scene 8 (Farewell): %[1]s gazes at %[2]s at sunset, promising to return.`,
		explorerName, r.LocationName,
		pick(r.Landmarks, 0, "the archaeological sites"),
		pick(r.KeyFacts, 0, ""),
		pick(r.Landmarks, 1, "the site"),
		pick(r.KeyFacts, 1, "history"))
}
