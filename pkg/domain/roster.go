package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CharacterSpec は設定ファイルで事前定義する登場人物の仕様を保持します。
type CharacterSpec struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	VisualDescription string `json:"visual_description"` // 生成プロンプトに注入する外見の説明
	ReferenceURL      string `json:"reference_url"`      // 一貫性保持のための参照画像URL
}

// RosterMap はIDをキーとした登場人物の検索用マップなのだ。
type RosterMap map[string]CharacterSpec

// ParseRoster はJSONバイト列から登場人物マップをパースして返します。
// この関数はステートレスであり、キャッシュを行いません。
func ParseRoster(rosterJSON []byte) (RosterMap, error) {
	var roster RosterMap
	if err := json.Unmarshal(rosterJSON, &roster); err != nil {
		return nil, fmt.Errorf("登場人物設定のJSONパースに失敗しました: %w", err)
	}
	return roster, nil
}

// FindCharacter は 直接のIDから登場人物を特定します。
func (m RosterMap) FindCharacter(id string) *CharacterSpec {
	if m == nil {
		return nil
	}
	if spec, ok := m[id]; ok {
		res := spec
		return &res
	}
	if spec, ok := m[strings.ToLower(id)]; ok {
		res := spec
		return &res
	}
	return nil
}

// SortedIDs はIDをソートして返すのだ。参照画像の並び順を決定論的にするために使う。
func (m RosterMap) SortedIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Profile は仕様をプロフィール（画像未設定）に変換するのだ。
func (s CharacterSpec) Profile() CharacterProfile {
	return CharacterProfile{
		Name:              s.Name,
		VisualDescription: s.VisualDescription,
	}
}

// String は登場人物の情報を文字列で返すのだ。
func (s CharacterSpec) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.ID)
}
