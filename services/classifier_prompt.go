package services

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"jobfill/models"
)

//go:embed prompts/*.json
var promptFiles embed.FS

var (
	classifierPrompts     map[string]string
	classifierPromptsErr  error
	classifierPromptsOnce sync.Once
)

func loadClassifierPrompts() (map[string]string, error) {
	classifierPromptsOnce.Do(func() {
		data, err := promptFiles.ReadFile("prompts/classifier.json")
		if err != nil {
			classifierPromptsErr = fmt.Errorf("failed to read classifier prompts: %w", err)
			return
		}
		if err := json.Unmarshal(data, &classifierPrompts); err != nil {
			classifierPromptsErr = fmt.Errorf("failed to parse classifier prompts: %w", err)
		}
	})
	return classifierPrompts, classifierPromptsErr
}

// formatPrompt replaces {{.Key}} placeholders with values from data.
func formatPrompt(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{.%s}}", key), value)
	}
	return result
}

// PromptInput is everything rendered into one classification prompt.
type PromptInput struct {
	Fields         []models.FieldDescriptor
	Pending        []int
	ProfileContext string
	KeyFacts       map[string]string
	ResumeText     string
	JobTitle       string
	JobDescription string
	EmployerName   string
}

// BuildClassifierPrompt returns the system and user messages for the fields
// listed in Pending, grouped by cluster.
func BuildClassifierPrompt(in PromptInput) (system, user string, err error) {
	prompts, err := loadClassifierPrompts()
	if err != nil {
		return "", "", err
	}

	resume := prompts["no_resume"]
	if strings.TrimSpace(in.ResumeText) != "" {
		resume = formatPrompt(prompts["resume"], map[string]string{"ResumeText": in.ResumeText})
	}

	user = formatPrompt(prompts["user"], map[string]string{
		"Job":      renderJob(in),
		"KeyFacts": RenderKeyFacts(in.KeyFacts),
		"Profile":  in.ProfileContext,
		"Resume":   resume,
		"Fields":   renderFields(in.Fields, in.Pending),
	})
	return prompts["system"], user, nil
}

func renderJob(in PromptInput) string {
	var b strings.Builder
	if in.JobTitle != "" {
		fmt.Fprintf(&b, "Title: %s\n", in.JobTitle)
	}
	if in.EmployerName != "" {
		fmt.Fprintf(&b, "Employer: %s\n", in.EmployerName)
	}
	if in.JobDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", truncateRunes(in.JobDescription, 2000))
	}
	if b.Len() == 0 {
		return "(not provided)\n"
	}
	return b.String()
}

func renderFields(fields []models.FieldDescriptor, pending []int) string {
	var b strings.Builder
	for _, cluster := range ClusterFields(fields, pending) {
		fmt.Fprintf(&b, "### %s\n", cluster.Name)
		for _, i := range cluster.Indices {
			renderField(&b, i, fields[i])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderField(b *strings.Builder, index int, f models.FieldDescriptor) {
	fmt.Fprintf(b, "[%d] type=%s", index, f.FieldType)
	if f.Label != "" {
		fmt.Fprintf(b, " label=%q", f.Label)
	}
	if f.Placeholder != "" {
		fmt.Fprintf(b, " placeholder=%q", f.Placeholder)
	}
	for _, attr := range []string{"name", "id", "aria-label"} {
		if v := f.Attr(attr); v != "" {
			fmt.Fprintf(b, " %s=%q", attr, v)
		}
	}
	b.WriteString("\n")
	if len(f.Options) > 0 {
		quoted := make([]string, len(f.Options))
		for i, o := range f.Options {
			quoted[i] = fmt.Sprintf("%q", o)
		}
		fmt.Fprintf(b, "    options: [%s]\n", strings.Join(quoted, ", "))
		b.WriteString("    value MUST exactly match one of the options above\n")
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
