package prompt

import (
	"fmt"
	"strings"

	"docchat-be/internal/entity"
)

// GroundedBuilder builds the system prompt for document-grounded
// answers. The context chunks are the single source of truth: the model
// is instructed to answer only from them.
type GroundedBuilder struct {
	assistantName string
	contactEmail  string
	query         string
	chunks        []*entity.RetrievedChunk
}

func NewGroundedBuilder(assistantName, contactEmail, query string, chunks []*entity.RetrievedChunk) *GroundedBuilder {
	if assistantName == "" {
		assistantName = "Assistant"
	}
	return &GroundedBuilder{
		assistantName: assistantName,
		contactEmail:  contactEmail,
		query:         query,
		chunks:        chunks,
	}
}

func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.chunks) == 0 {
		return
	}

	prompt.WriteString("<reference_material>\n")
	for i, chunk := range b.chunks {
		prompt.WriteString(fmt.Sprintf("[Source %d: %s]\n", i+1, chunk.Filename))
		prompt.WriteString(chunk.Content)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString(fmt.Sprintf("You are %s, a helpful assistant answering questions about the organization's documents.\n", b.assistantName))
	prompt.WriteString("Your goal is to provide exactly what the user needs based on their question and the reference material.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. If the material contains contact details (phone numbers, emails, addresses, websites), include them verbatim\n")
	prompt.WriteString("3. If the material lists providers or services, present them clearly\n")
	prompt.WriteString("4. Be complete - don't skip relevant information from the material\n")
	if b.contactEmail != "" {
		prompt.WriteString(fmt.Sprintf("5. If the material doesn't contain what's being asked, say so honestly and refer the user to %s\n", b.contactEmail))
	} else {
		prompt.WriteString("5. If the material doesn't contain what's being asked, say so honestly\n")
	}
	prompt.WriteString("</guidelines>\n\n")
}

func (b *GroundedBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n")
}
