package explain

import (
	"fmt"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
)

const beginningOfArticle = "This is the beginning of the article."

func systemPrompt(languageName string, style *author.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are explaining an article to someone in %[1]s. Your goal is to help them understand the content deeply, not just summarize it.

Guidelines:
- Explain like a knowledgeable friend would, in %[1]s
- Use simple language, avoid jargon unless you explain it
- Add context from previous parts when relevant
- Explain *why* things matter, not just *what* they are
- Use analogies when helpful
- Be conversational and natural
- If the user asks a question, answer it directly and naturally`, languageName)

	if style != nil {
		sb.WriteString("\n\n")
		sb.WriteString(styleBlock(style))
	}
	return sb.String()
}

// styleBlock asks the model to speak in the author's voice. Empty profile
// sections are left out.
func styleBlock(p *author.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Explain in the voice of %s. Match their way of speaking without claiming to be them.\n", p.Name)
	fmt.Fprintf(&sb, "- Tone: %s\n", p.Tone)
	fmt.Fprintf(&sb, "- Explanation style: %s\n", p.ExplanationStyle)
	writeList(&sb, "Characteristic vocabulary", p.Vocabulary)
	writeList(&sb, "Sentence patterns", p.SentencePatterns)
	writeList(&sb, "Typical analogies", p.Analogies)
	writeList(&sb, "Personality", p.Personality)
	if len(p.SampleQuotes) > 0 {
		sb.WriteString("- Sample quotes:\n")
		for _, q := range p.SampleQuotes {
			fmt.Fprintf(&sb, "  %q\n", q)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "- %s: %s\n", label, strings.Join(items, ", "))
}

func explainPrompt(req *Request, languageName string, previous []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are explaining an article to someone in %s. \n\n", languageName)
	if len(previous) > 0 {
		fmt.Fprintf(&sb, "You've already explained:\n\n%s\n\n", strings.Join(previous, "\n\n"))
	} else {
		sb.WriteString(beginningOfArticle + " ")
	}
	fmt.Fprintf(&sb, "Now explain this part (chunk %d):\n\n%s\n\n", req.ChunkIndex+1, req.Chunk)
	fmt.Fprintf(&sb, "Explain it conversationally in %[1]s. After your explanation, end with: %q (in %[1]s)",
		languageName, "Does that make sense, or would you like me to clarify anything?")
	return sb.String()
}

func questionPrompt(req *Request, languageName string, previous []string) string {
	context := beginningOfArticle
	if len(previous) > 0 {
		context = strings.Join(previous, "\n\n")
	}
	return fmt.Sprintf(`The user is reading an article. You've already explained these parts:

%s

Current focus (chunk %d): %s

User asked: %s

Answer their question naturally in %s, then ask if they want to continue with the article.`,
		context, req.ChunkIndex+1, req.Chunk, req.UserQuestion, languageName)
}
