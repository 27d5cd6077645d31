package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// Prompt text sent to the generation service.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const (
	answerSystemPrompt  = "You are a helpful assistant that answers questions based on the provided context."
	summarySystemPrompt = "You are a helpful assistant that summarizes documents accurately."

	answerTemplate = "You are a helpful and informative bot that answers questions using text from the reference context included below. Be sure to respond in a complete sentence, providing in depth, in detail information and including all relevant background information. However, you are talking to a non-technical audience, so be sure to break down complicated concepts and strike a friendly and conversational tone. If the passage is irrelevant to the answer, you may ignore it.\n\nContext: %s\n\nQuestion: %s"

	summaryTemplate = "Please provide a concise summary of the following document. Focus on the main topics and key information.\n\nDocument excerpt:\n%s\n\nSummary:"
)

// summarySampleChunks is how many leading chunks feed a summary.
const summarySampleChunks = 5

// AssembleContext formats retrieved chunks as labelled blocks in rank order.
// No size cap is applied; callers bound it through k and the chunk size.
func AssembleContext(result domain.RetrievalResult) string {
	blocks := make([]string, len(result))
	for i, r := range result {
		blocks[i] = fmt.Sprintf("[Document: %s, Page: %d]\n%s",
			r.Chunk.Metadata.Source, r.Chunk.Metadata.Page, r.Chunk.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// AnswerPrompt combines assembled context and the question.
func AnswerPrompt(context, question string) string {
	return fmt.Sprintf(answerTemplate, context, question)
}

// SummaryPrompt samples the first chunks of an index.
func SummaryPrompt(chunks []domain.Chunk) string {
	n := min(len(chunks), summarySampleChunks)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = chunks[i].Content
	}
	return fmt.Sprintf(summaryTemplate, strings.Join(parts, "\n\n"))
}
