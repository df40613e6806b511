package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

// テンプレートのモード識別子なのだ。
const (
	TemplateStoryPlan  = "story_plan"
	TemplateResearchEN = "research_en"
	TemplateResearchAR = "research_ar"
)

//go:embed templates/story_plan.md
var storyPlanTemplate string

//go:embed templates/research_en.md
var researchENTemplate string

//go:embed templates/research_ar.md
var researchARTemplate string

// allTemplates はモードとテンプレート本文を紐づけるマップなのだ。
var allTemplates = map[string]string{
	TemplateStoryPlan:  storyPlanTemplate,
	TemplateResearchEN: researchENTemplate,
	TemplateResearchAR: researchARTemplate,
}

// StoryPlanData はシーン設計テンプレートに流し込むデータです。
type StoryPlanData struct {
	Script     string
	Style      string
	SceneCount int
}

// ResearchData は撮影地リサーチテンプレートに流し込むデータです。
type ResearchData struct {
	LocationName string
}

// TextPromptBuilder は長文プロンプトの構成を管理し、モード選択のロジックを内包します。
type TextPromptBuilder struct {
	templates map[string]*template.Template
}

// NewTextPromptBuilder は埋め込みテンプレートを解析して TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	parsedTemplates := make(map[string]*template.Template)
	for mode, content := range allTemplates {
		if content == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}

		tmpl, err := template.New(mode).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsedTemplates[mode] = tmpl
	}

	return &TextPromptBuilder{
		templates: parsedTemplates,
	}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data any) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}

	return sb.String(), nil
}

// BuildResearchPrompt は言語に応じたリサーチプロンプトを返すのだ。
func (b *TextPromptBuilder) BuildResearchPrompt(locationName, lang string) (string, error) {
	mode := TemplateResearchEN
	if lang == "ar" {
		mode = TemplateResearchAR
	}
	return b.Build(mode, ResearchData{LocationName: locationName})
}
