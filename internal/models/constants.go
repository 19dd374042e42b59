package models

const (
	// ContextSeparator joins ranked chunks inside the prompt context.
	ContextSeparator = "\n\n---\n\n"

	// NoSources is the citation sentinel for an empty result set.
	NoSources = "No sources"

	// NoSourcesFound is the answer-level sentinel when retrieval
	// comes back empty.
	NoSourcesFound = "No sources found"

	// NoInformationAnswer is returned when nothing relevant exists
	// in the corpus. Not an error.
	NoInformationAnswer = "I couldn't find any relevant information in the knowledge base to answer your question."

	// CannotFindPhrase is the phrase the model is instructed to emit
	// when the context does not contain the answer.
	CannotFindPhrase = "I cannot find this information"

	// FallbackEmptyContext is used when even the extractive fallback
	// has nothing usable to quote.
	FallbackEmptyContext = "I found relevant information but couldn't process it properly. Please try rephrasing your question."
)

var (
	// AnswerPromptTemplate builds the generation prompt. Arguments:
	// context, question.
	AnswerPromptTemplate = `You are a helpful AI assistant. Answer the question based on the context provided.

Context:
%s

Question: %s

Instructions:
- Give a clear, concise answer (2-4 sentences maximum)
- Use ONLY information from the context
- Mention page numbers when relevant
- If the answer isn't in the context, say '` + CannotFindPhrase + `'

Answer:`

	// FallbackTemplate wraps an extracted paragraph when generation
	// fails or is degenerate. Argument: paragraph.
	FallbackTemplate = `**Based on the document:**

%s

*Note: The AI couldn't generate a custom answer. This is direct content from your document.*`
)
