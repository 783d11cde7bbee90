// Package prompts builds the Japanese prompts sent to the LLM for question
// generation and answer grading.
package prompts

import (
	"fmt"

	"github.com/mondaiapp/mondai/internal/model"
)

var difficultyLevels = map[model.Difficulty]string{
	model.DifficultyBasic:         "初級レベル",
	model.DifficultyIntermediate:  "中級レベル",
	model.DifficultyAdvanced:      "上級レベル",
	model.DifficultySuperAdvanced: "超上級レベル",
	model.DifficultyMaster:        "最上級レベル",
}

// LevelLabel returns the Japanese label for a difficulty. Unknown values
// fall back to the advanced label.
func LevelLabel(d model.Difficulty) string {
	if level, ok := difficultyLevels[d]; ok {
		return level
	}
	return "上級"
}

// BuildTopicPrompt returns the user prompt and system instruction for
// generating ten questions about a topic at the given difficulty.
func BuildTopicPrompt(topic string, difficulty model.Difficulty) (prompt, system string) {
	level := LevelLabel(difficulty)
	prompt = fmt.Sprintf(`%sに関する、実用的な4択問題を10個作成してください。
作成する問題の難易度は%sです。
しっかりとこのレベルの問題を作成してください。
選択肢は(A)~(D)の4つです。
正解はまだ表示しないでください。`, topic, level)
	system = "問題はきちんと1~10の順番で出力してください。"
	return prompt, system
}

// BuildDocumentPrompt returns the user prompt, system instruction, and the
// derived topic (the first ten runes of the extracted text) for generating
// questions from an uploaded document.
func BuildDocumentPrompt(extractedText string) (prompt, system, topic string) {
	runes := []rune(extractedText)
	if len(runes) > 10 {
		runes = runes[:10]
	}
	topic = string(runes)
	prompt = fmt.Sprintf("次のテキストを読み、実用的な4択問題を10個作成してください。:%s正解はまだ表示しないでください。", extractedText)
	system = "問題の選択肢は (A)選択肢の内容 (B)選択肢の内容 (C)選択肢の内容 (D)選択肢の内容 という形で出力してください。"
	return prompt, system, topic
}

// GradingSystem is the system instruction for answer grading. It pins the
// output format the grading parser expects and the explanation length.
const GradingSystem = `正解は必ず(A)〜(D)の中から1つ選んでください。
以下の形式で出力してください：
正解:(A/B/C/D)
解説:解説内容

【重要】解説の文字数制限：
- 解説は必ず180文字以上200文字以内で出力してください。
- この制限を厳守してください。200文字を超える場合は、内容を簡潔にまとめてください。
- 文字数を数えて確認してから出力してください。`

// BuildGradingPrompt returns the user prompt asking the LLM to judge an
// answer to a question.
func BuildGradingPrompt(questionText, userAnswer string) string {
	return fmt.Sprintf(`問題: %s
ユーザーの回答: %s

この回答が正しいかどうかを判定し、解説を提供してください。`, questionText, userAnswer)
}
