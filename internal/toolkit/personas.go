package toolkit

import (
	"fmt"
	"sort"
	"strings"
)

// Persona is a writing or reviewing role the planning tool can adopt
type Persona struct {
	Name      string
	Title     string
	Style     string
	Strengths []string
}

// personas is the static persona table; planning requests pick a writer and
// a reviewer by name
var personas = map[string]Persona{
	"strategist": {
		Name:      "strategist",
		Title:     "Product Strategist",
		Style:     "structured, outcome-driven, always ties tasks back to measurable goals",
		Strengths: []string{"scoping", "roadmaps", "risk analysis"},
	},
	"engineer": {
		Name:      "engineer",
		Title:     "Senior Engineer",
		Style:     "precise and implementation-minded, flags technical constraints early",
		Strengths: []string{"architecture", "estimation", "feasibility review"},
	},
	"designer": {
		Name:      "designer",
		Title:     "UX Designer",
		Style:     "user-centered, challenges assumptions about what users actually need",
		Strengths: []string{"user flows", "requirements critique", "accessibility"},
	},
	"pm": {
		Name:      "pm",
		Title:     "Project Manager",
		Style:     "pragmatic, focused on dependencies, timelines and stakeholder clarity",
		Strengths: []string{"scheduling", "resourcing", "status communication"},
	},
}

// documentTemplates maps a template name to its section outline
var documentTemplates = map[string][]string{
	"project_plan": {
		"Overview", "Objectives", "Scope", "Deliverables", "Timeline", "Risks & Mitigations", "Success Criteria",
	},
	"feature_spec": {
		"Summary", "Problem", "Proposed Solution", "Requirements", "Out of Scope", "Open Questions",
	},
	"retrospective": {
		"Context", "What Went Well", "What Didn't", "Action Items",
	},
}

// personaNames lists the registered persona names in stable order
func personaNames() []string {
	names := make([]string, 0, len(personas))
	for name := range personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// templateNames lists the registered template names in stable order
func templateNames() []string {
	names := make([]string, 0, len(documentTemplates))
	for name := range documentTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func personaDescription(p Persona) string {
	return fmt.Sprintf("You are the '%s' persona [%s]. Writing style: %s. Strengths: %s.",
		p.Name, p.Title, p.Style, strings.Join(p.Strengths, ", "))
}

// draftPrompt asks the writer persona for a first draft following the
// template outline
func draftPrompt(userInput string, writer Persona, templateName string, sections []string) string {
	return fmt.Sprintf(`%s

Write a planning document of type '%s' for the following request:

%s

Structure the document with exactly these sections, using markdown headings:
%s

Be concrete and actionable. Do not include any preamble outside the document itself.`,
		personaDescription(writer), templateName, userInput, "- "+strings.Join(sections, "\n- "))
}

// feedbackPrompt asks the reviewer persona to critique the draft
func feedbackPrompt(reviewer Persona, draft string) string {
	return fmt.Sprintf(`%s

Review the following planning document draft. List its weaknesses, missing
considerations and concrete improvement suggestions. Be direct.

--- DRAFT ---
%s`, personaDescription(reviewer), draft)
}

// revisionPrompt asks the writer persona to fold the feedback into a final
// version
func revisionPrompt(writer Persona, draft, feedback string) string {
	return fmt.Sprintf(`%s

Revise your draft below by incorporating the reviewer feedback. Keep the
section structure. Output only the final document.

--- DRAFT ---
%s

--- FEEDBACK ---
%s`, personaDescription(writer), draft, feedback)
}

// summaryPrompt asks for a concise summary of an existing document
func summaryPrompt(title, content string) string {
	return fmt.Sprintf(`Summarize the following planning document titled '%s' in a few
sentences, then list its key action items as bullets.

%s`, title, content)
}
