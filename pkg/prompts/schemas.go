package prompts

import "google.golang.org/genai"

// 構造化出力（responseSchema）の定義群なのだ。
// モデルにはこのスキーマに厳密一致する JSON を返させる。

// TranslateSchema は翻訳オペレーションの応答スキーマです。
var TranslateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"original_text":   {Type: genai.TypeString},
		"translated_text": {Type: genai.TypeString},
		"lang":            {Type: genai.TypeString, Enum: []string{"ar", "en"}},
		"direction":       {Type: genai.TypeString, Enum: []string{"rtl", "ltr"}},
	},
	Required: []string{"translated_text", "lang", "direction"},
}

// EnhanceSchema はプロンプト強化の応答スキーマです。差分リスト付き。
var EnhanceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"original_description": {Type: genai.TypeString},
		"enhanced_description": {Type: genai.TypeString},
		"lang":                 {Type: genai.TypeString, Enum: []string{"ar", "en"}},
		"diff": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"added_phrases":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"removed_phrases": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"modified_phrases": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"from": {Type: genai.TypeString},
							"to":   {Type: genai.TypeString},
						},
					},
				},
			},
		},
	},
	Required: []string{"enhanced_description", "diff"},
}

// CharacterProfilesSchema は台本からの登場人物抽出の応答スキーマです。
var CharacterProfilesSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"characters": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":               {Type: genai.TypeString},
					"visual_description": {Type: genai.TypeString, Description: "Detailed visual description of face, hair, body, and clothing."},
				},
				Required: []string{"name", "visual_description"},
			},
		},
	},
	Required: []string{"characters"},
}

// StoryboardSchema はシーン設計（物語プラン）の応答スキーマです。
// 映像生成向けのフィールド（video_prompt 等）と史実フィールドを含みます。
var StoryboardSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":              {Type: genai.TypeString},
		"scene_count":        {Type: genai.TypeInteger},
		"character_bible":    {Type: genai.TypeString, Description: "Complete visual description of ALL main characters. This MUST be included in every video_prompt for consistency."},
		"historical_context": {Type: genai.TypeString, Description: "Brief historical context for the entire story - era, location, key historical facts"},
		"scenes": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"scene_number":      {Type: genai.TypeInteger},
					"description":       {Type: genai.TypeString},
					"prompt_ar":         {Type: genai.TypeString, Description: "Detailed scene prompt in Arabic"},
					"prompt_en":         {Type: genai.TypeString, Description: "Detailed scene prompt in English"},
					"voiceover_fusha":   {Type: genai.TypeString, Description: "Voiceover script in Standard Arabic (Fusha) - educational and historically accurate"},
					"camera":            {Type: genai.TypeString},
					"style":             {Type: genai.TypeString},
					"video_prompt":      {Type: genai.TypeString, Description: "Complete English video prompt. MUST include camera movement, scene action, mood, and technical specs."},
					"camera_movement":   {Type: genai.TypeString, Description: "Camera movement type: 'static', 'dolly in', 'dolly out', 'pan left', 'pan right', 'tilt up', 'tilt down', 'orbit', 'tracking', 'crane up', 'crane down'"},
					"scene_duration":    {Type: genai.TypeInteger, Description: "Scene duration in seconds (default: 8)"},
					"mood":              {Type: genai.TypeString, Description: "Emotional tone: 'tense', 'joyful', 'mysterious', 'calm', 'exciting', 'sad', 'romantic'"},
					"historical_facts":  {Type: genai.TypeString, Description: "Key verified historical facts mentioned in this scene - dates, events, people, architectural details"},
					"historical_period": {Type: genai.TypeString, Description: "The historical era/period: e.g., 'Roman Era (146 BC - 439 AD)', 'Byzantine Period', 'Islamic Golden Age'"},
					"image_generation": {
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"prompt":          {Type: genai.TypeString},
							"negative_prompt": {Type: genai.TypeString},
						},
					},
				},
				Required: []string{"scene_number", "description", "prompt_ar", "prompt_en", "voiceover_fusha", "video_prompt", "camera_movement", "scene_duration", "mood", "historical_facts", "historical_period", "image_generation"},
			},
		},
	},
	Required: []string{"title", "scene_count", "character_bible", "historical_context", "scenes"},
}

// LocationResearchSchema は撮影地リサーチの応答スキーマです。
var LocationResearchSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"location_name":           {Type: genai.TypeString},
		"historical_era":          {Type: genai.TypeString},
		"key_facts":               {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"landmarks":               {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"notable_figures":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"historical_significance": {Type: genai.TypeString},
		"recommended_scenes":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"location_name", "historical_era", "key_facts", "landmarks", "historical_significance", "recommended_scenes"},
}
