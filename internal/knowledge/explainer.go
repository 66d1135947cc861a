package knowledge

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
)

//go:embed explainer_prompt.md
var explainerPrompt string

// Explanation is a grounded answer about the plan: the text, the source ids
// it cites, and whether it explicitly admits that no source covers the claim.
type Explanation struct {
	Text     string   `json:"text"`
	Cited    []string `json:"cited_sources"`
	NoSource bool     `json:"no_source"`
}

type explainerPromptData struct {
	Question string
	Referent string
	City     string
	Plan     string
	Snippets []Snippet
}

type rawExplanation struct {
	Text     string   `json:"text"`
	Cited    []string `json:"cited_sources"`
	NoSource bool     `json:"no_source"`
}

// Explainer composes cited explanations about an itinerary from retrieved
// snippets.
type Explainer struct {
	retriever Retriever
	textGen   llm.TextGenerator
}

// NewExplainer creates an Explainer on top of the retriever and a text
// generator.
func NewExplainer(retriever Retriever, textGen llm.TextGenerator) *Explainer {
	return &Explainer{retriever: retriever, textGen: textGen}
}

// Explain answers a question about the plan. When retrieval returns nothing,
// the snippet list is empty and the prompt instructs the model to say no
// source exists; the returned citations are filtered to ids that were
// actually retrieved, so the model cannot invent a reference.
func (e *Explainer) Explain(ctx context.Context, question, referent string, it *trip.Itinerary) (Explanation, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Explainer"}

	city := ""
	if it != nil {
		city = it.City
	}
	snippets, err := e.retriever.Retrieve(ctx, city, referent)
	if err != nil {
		return Explanation{}, meta, fmt.Errorf("context retrieval failed: %w", err)
	}

	prompt, err := buildExplainerPrompt(explainerPromptData{
		Question: question,
		Referent: referent,
		City:     city,
		Plan:     summarizePlan(it),
		Snippets: snippets,
	})
	if err != nil {
		return Explanation{}, meta, err
	}

	resp, err := e.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return Explanation{}, meta, fmt.Errorf("explanation generation failed: %w", err)
	}
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)

	raw := rawExplanation{}
	if err := json.Unmarshal([]byte(resp.Content), &raw); err != nil {
		return Explanation{}, meta, fmt.Errorf("failed to parse explainer response %w. Response: %s", err, resp.Content)
	}

	known := make(map[string]bool, len(snippets))
	for _, s := range snippets {
		known[s.SourceID] = true
	}
	var cited []string
	for _, id := range raw.Cited {
		if known[id] {
			cited = append(cited, id)
		}
	}

	out := Explanation{Text: raw.Text, Cited: cited, NoSource: raw.NoSource}
	if len(cited) == 0 {
		out.NoSource = true
	}
	return out, meta, nil
}

// summarizePlan renders the itinerary compactly for the prompt.
func summarizePlan(it *trip.Itinerary) string {
	if it == nil {
		return "(no itinerary yet)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %s pace\n", it.City, it.Pace)
	for _, day := range it.Days {
		fmt.Fprintf(&sb, "Day %d:", day.Day)
		for _, a := range day.Activities() {
			fmt.Fprintf(&sb, " %s %s (%s, source %s);",
				trip.Clock(a.StartMinute), a.POI.Name, a.POI.Category, a.POI.SourceID)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func buildExplainerPrompt(data explainerPromptData) (string, error) {
	tmpl, err := template.New("explainer").Parse(explainerPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
