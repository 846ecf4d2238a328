package services

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/cloudymate/cloudymate/models"
)

// noContextSentinel is returned by FormatContext when retrieval found nothing.
const noContextSentinel = "No relevant context found."

// ragTemplate is the fixed generation template. Downstream answer quality
// depends on this exact wording; treat changes as a contract change.
const ragTemplate = `You are CloudyMate, an AI assistant that helps users understand AWS documentation. Your role is to answer questions based on the provided AWS documentation context.

## CONTEXT
The following context has been retrieved from relevant AWS documents:

{{.context}}

## INSTRUCTIONS
1. Answer the user's question using the information provided in the context above
2. If the context contains relevant information, provide a helpful answer
3. If the context doesn't contain enough information, say: "I don't have enough information in the uploaded documents to fully answer this question."
4. Stay focused on the information in the context - don't add external knowledge
5. Be helpful and conversational while staying accurate to the source material

## QUESTION
{{.question}}

## RESPONSE
Please provide a clear, helpful answer based on the context above.`

var ragPrompt = prompts.NewPromptTemplate(ragTemplate, []string{"context", "question"})

// FormatContext renders retrieved passages into a single context block,
// numbered in retrieval-rank order.
func FormatContext(passages []models.RetrievedPassage) string {
	if len(passages) == 0 {
		return noContextSentinel
	}

	parts := make([]string, 0, len(passages))
	for i, p := range passages {
		parts = append(parts, fmt.Sprintf("[Document %d]\n%s\n", i+1, p.Content))
	}
	return strings.Join(parts, "\n")
}

// BuildPrompt fills the RAG template with a context block and the question.
func BuildPrompt(contextBlock, question string) (string, error) {
	prompt, err := ragPrompt.Format(map[string]any{
		"context":  contextBlock,
		"question": question,
	})
	if err != nil {
		return "", &BackendError{Op: "prompt assembly", Err: err}
	}
	return prompt, nil
}
