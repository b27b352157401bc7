package llm

import (
	"fmt"
	"strings"
)

// ProcessContext is the database context assembled into a prompt. All
// fields are plain text; JSON blobs are passed through verbatim.
type ProcessContext struct {
	Name        string
	Type        string
	Status      string
	Charter     string
	Approach    string
	Deployment  string
	Learning    string
	Integration string
	MetricNames []string
}

// NarrativeDraftPrompt builds the prompt for drafting one ADLI
// narrative field from the rest of the process documentation.
func NarrativeDraftPrompt(p ProcessContext, field string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft the %q narrative for the business process below, ", field)
	b.WriteString("following the Baldrige ADLI model (Approach, Deployment, Learning, Integration).\n")
	b.WriteString("Write 2-4 short paragraphs of plain prose. Do not invent metrics or facts not present in the context.\n\n")
	writeProcessContext(&b, p)
	b.WriteString("\nReturn only the narrative text, no headings.")
	return b.String()
}

// CharterSuggestionPrompt builds the prompt for suggesting a process
// charter. The model is asked for JSON so the client can populate the
// charter form fields directly.
func CharterSuggestionPrompt(p ProcessContext) string {
	var b strings.Builder
	b.WriteString("Suggest a charter for the business process below.\n")
	b.WriteString("Respond with a single JSON object with exactly these string fields: ")
	b.WriteString(`"purpose", "scope", "inputs", "outputs", "stakeholders".` + "\n\n")
	writeProcessContext(&b, p)
	return b.String()
}

// ImprovementPrompt builds the prompt for coaching suggestions against
// a process's unmet health checklist items.
func ImprovementPrompt(p ProcessContext, unmetActions []string) string {
	var b strings.Builder
	b.WriteString("The process below is missing the following documentation and hygiene items:\n")
	for _, a := range unmetActions {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	b.WriteString("\nFor each item, give one concrete next step the process owner can take this week.\n\n")
	writeProcessContext(&b, p)
	return b.String()
}

func writeProcessContext(b *strings.Builder, p ProcessContext) {
	fmt.Fprintf(b, "Process: %s\nType: %s\nStatus: %s\n", p.Name, p.Type, p.Status)
	writeSection(b, "Charter", p.Charter)
	writeSection(b, "Approach", p.Approach)
	writeSection(b, "Deployment", p.Deployment)
	writeSection(b, "Learning", p.Learning)
	writeSection(b, "Integration", p.Integration)
	if len(p.MetricNames) > 0 {
		fmt.Fprintf(b, "Linked metrics: %s\n", strings.Join(p.MetricNames, ", "))
	}
}

func writeSection(b *strings.Builder, label, content string) {
	content = strings.TrimSpace(content)
	if content == "" || content == "{}" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, content)
}
