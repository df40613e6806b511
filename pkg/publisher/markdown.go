package publisher

import (
	"fmt"
	"strings"

	"github.com/shouni/go-story-kit/pkg/domain"
)

// buildStoryboardMarkdown は物語の設計図から絵コンテ形式の Markdown を組み立てるのだ。
// imagePaths はシーンのインデックスをキーとした相対パスで、無いシーンはプレースホルダーになる。
func buildStoryboardMarkdown(plan domain.StoryPlan, imagePaths map[int]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", plan.Title))

	if plan.HistoricalContext != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", plan.HistoricalContext))
	}
	if plan.CharacterBible != "" {
		sb.WriteString("## Characters\n\n")
		sb.WriteString(plan.CharacterBible)
		sb.WriteString("\n\n")
	}

	for i, scene := range plan.Scenes {
		img := placeholder
		if p, ok := imagePaths[i]; ok {
			img = p
		}

		sb.WriteString(fmt.Sprintf("## Scene %d\n\n", scene.SceneNumber))
		sb.WriteString(fmt.Sprintf("![Scene %d](%s)\n\n", scene.SceneNumber, img))
		sb.WriteString(fmt.Sprintf("%s\n\n", scene.Description))

		if scene.VoiceoverFusha != "" {
			sb.WriteString(fmt.Sprintf("- voiceover: %s\n", scene.VoiceoverFusha))
		}
		if scene.CameraMovement != "" {
			sb.WriteString(fmt.Sprintf("- camera: %s\n", scene.CameraMovement))
		}
		if scene.SceneDurationSec > 0 {
			sb.WriteString(fmt.Sprintf("- duration: %ds\n", scene.SceneDurationSec))
		}
		if scene.Mood != "" {
			sb.WriteString(fmt.Sprintf("- mood: %s\n", scene.Mood))
		}
		if scene.HistoricalFacts != "" {
			sb.WriteString(fmt.Sprintf("- facts: %s\n", scene.HistoricalFacts))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
