package chat

import "github.com/abadojack/whatlanggo"

// The assistant preamble is prepended to every prompt. English prompts get
// the English preamble; everything else gets the Russian one, matching the
// bilingual audience the UI ships for.
const (
	instructionEN = "I am a chatbot created to help with any questions. I use my knowledge and abilities to provide useful and meaningful answers in any language"
	instructionRU = "Я чат-бот, созданный для помощи по любым вопросам. Я использую свои знания и способности, чтобы давать полезные и содержательные ответы на любом языке"
)

func promptIsEnglish(text string) bool {
	return whatlanggo.Detect(text).Lang == whatlanggo.Eng
}

// TransformersPrompt builds the raw prompt for the transformers runtime:
// the preamble concatenated directly with the user text.
func TransformersPrompt(text string) string {
	if promptIsEnglish(text) {
		return instructionEN + text
	}
	return instructionRU + text
}

// LlamaPrompt builds the dialogue-framed prompt for the llama runtime.
func LlamaPrompt(text string) string {
	if promptIsEnglish(text) {
		return instructionEN + "\n\nHuman: " + text + "\nAssistant: "
	}
	return instructionRU + "\n\nЧеловек: " + text + "\nAssistant: "
}
