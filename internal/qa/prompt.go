// ABOUTME: Prompt assembly for grounded question answering over retrieved chunks
// ABOUTME: Each context block is labelled with its source and page for citation
package qa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// EmptyContextNotice replaces the context section when retrieval found nothing
const EmptyContextNotice = "No context was provided. Please inform the user."

const notAvailable = "N/A"

// BuildPrompt assembles the generation prompt for question from the retrieved contexts
func BuildPrompt(question string, contexts []models.QueryResult) string {
	var ctx strings.Builder
	if len(contexts) == 0 {
		ctx.WriteString(EmptyContextNotice)
	}
	for i, c := range contexts {
		source, page := label(c.Metadata)
		ctx.WriteString(fmt.Sprintf("--- START CONTEXT %d (Source: %s, Page: %s) ---\n", i+1, source, page))
		ctx.WriteString(c.Text)
		ctx.WriteString(fmt.Sprintf("\n--- END CONTEXT %d ---\n\n", i+1))
	}

	var sb strings.Builder
	sb.WriteString("You are an expert Q&A engine. Your task is to answer the user's question based *only* on the text from the context blocks provided below. The user has provided these documents.\n\n")
	sb.WriteString("Do not use any outside knowledge.\n")
	sb.WriteString("If the context does not contain the answer, state clearly that the answer is not in the provided documents.\n\n")
	sb.WriteString("**Contexts:**\n")
	sb.WriteString(ctx.String())
	sb.WriteString("\n\n**Question:**\n")
	sb.WriteString(question)
	sb.WriteString("\n\n**Answer:**\n")
	sb.WriteString("(Cite the source and page number, like [Source: filename.pdf, Page: 12], for *all* information you use.)\n")
	return sb.String()
}

func label(m models.Metadata) (string, string) {
	source := m.Source
	if source == "" {
		source = notAvailable
	}
	page := notAvailable
	if m.Page > 0 {
		page = strconv.Itoa(m.Page)
	}
	return source, page
}
