package domain

// CharacterProfile は台本から抽出した登場人物の視覚プロフィールです。
// Image はキャラクターシート（正面ポートレート）生成後に埋まります。
type CharacterProfile struct {
	Name              string     `json:"name"`
	VisualDescription string     `json:"visual_description"`
	Image             *ImageData `json:"-"`
}

// Usable はシーン生成の参照として使えるか（画像が揃っているか）を返すのだ。
func (p CharacterProfile) Usable() bool {
	return p.Image != nil && !p.Image.IsZero()
}

// StoryScene は物語1シーンの設計図と生成結果を保持します。
// 設計直後は Loading が true で、画像生成の完了（成否問わず）で false に落ちます。
type StoryScene struct {
	SceneNumber      int    `json:"scene_number"`
	Description      string `json:"description"`
	PromptAR         string `json:"prompt_ar"`
	PromptEN         string `json:"prompt_en"`
	VoiceoverFusha   string `json:"voiceover_fusha"`
	ImagePrompt      string `json:"image_prompt"`
	NegativePrompt   string `json:"negative_prompt"`
	VideoPrompt      string `json:"video_prompt"`
	CameraMovement   string `json:"camera_movement"`
	SceneDurationSec int    `json:"scene_duration_sec"`
	Mood             string `json:"mood"`
	HistoricalFacts  string `json:"historical_facts"`
	HistoricalPeriod string `json:"historical_period"`

	Image   *ImageData `json:"-"`
	Loading bool       `json:"-"`
}

// StoryPlan はシーン設計オペレーションが返す物語全体の設計図です。
type StoryPlan struct {
	Title             string       `json:"title"`
	SceneCount        int          `json:"scene_count"`
	CharacterBible    string       `json:"character_bible"`
	HistoricalContext string       `json:"historical_context"`
	Scenes            []StoryScene `json:"scenes"`
}

// StoryPlanResult はシーン設計の結果に監査情報を添えたものなのだ。
type StoryPlanResult struct {
	Plan   StoryPlan `json:"plan"`
	Audit  Audit     `json:"audit"`
	Timing Timing    `json:"timing"`
}

// LocationResearch は撮影地リサーチの構造化結果です。
// モデルが事実を確認できなかった項目は空のまま返ります（捏造させない方針）。
type LocationResearch struct {
	LocationName           string   `json:"location_name"`
	HistoricalEra          string   `json:"historical_era"`
	KeyFacts               []string `json:"key_facts"`
	Landmarks              []string `json:"landmarks"`
	NotableFigures         []string `json:"notable_figures"`
	HistoricalSignificance string   `json:"historical_significance"`
	RecommendedScenes      []string `json:"recommended_scenes"`
}
