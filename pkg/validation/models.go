// Package validation provides the chat model names llm nodes are expected to use
package validation

import (
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

// knownChatModels are the chat completion models the graph service
// is known to accept for llm nodes.
var knownChatModels = map[string]struct{}{
	openai.GPT4:             {},
	openai.GPT40613:         {},
	openai.GPT432K:          {},
	openai.GPT432K0613:      {},
	openai.GPT3Dot5Turbo:    {},
	openai.GPT3Dot5Turbo16K: {},
}

// IsKnownModel reports whether name is a recognized chat model.
func IsKnownModel(name string) bool {
	_, ok := knownChatModels[name]
	return ok
}

// KnownModels returns the recognized chat models, sorted.
func KnownModels() []string {
	out := make([]string, 0, len(knownChatModels))
	for name := range knownChatModels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
