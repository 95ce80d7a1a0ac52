package checklist

import (
	"strings"

	"sitedocs/internal/domain/documents"
)

// DefaultRequirements are the mandatory subcontractor documents.
var DefaultRequirements = []string{
	"Adhesión Plan Seguridad y Salud",
	"Certificado Inscripción REA",
	"Seguro Responsabilidad Civil (RC) + Recibo",
	"TC1/TC2 (Seguridad Social)",
	"Certificado Corriente Pagos (Hacienda/SS)",
	"Evaluación de Riesgos Específica",
}

// Category holds the documents the checklist is evaluated against.
const Category = documents.CategorySubcontractor

const probeRunes = 10

// Toggles records requirements a user marked as satisfied by hand.
type Toggles map[string]bool

// Toggle returns a copy with label flipped.
func (t Toggles) Toggle(label string) Toggles {
	next := make(Toggles, len(t)+1)
	for k, v := range t {
		next[k] = v
	}
	next[label] = !t[label]
	return next
}

type Item struct {
	Label     string `json:"label"`
	Manual    bool   `json:"manual"`
	Matched   bool   `json:"matched"`
	Satisfied bool   `json:"satisfied"`
}

type Result struct {
	Items          []Item          `json:"items"`
	Satisfied      map[string]bool `json:"satisfied"`
	SatisfiedCount int             `json:"satisfiedCount"`
	Total          int             `json:"total"`
}

// Evaluate scores labels against the subcontractor documents in docs. A
// requirement is satisfied when toggled by hand or when a document's summary
// contains the label, or its name contains the label's first ten characters,
// ignoring case.
func Evaluate(labels []string, docs []documents.Record, toggles Toggles) Result {
	var candidates []documents.Metadata
	for _, d := range docs {
		if m := d.Meta(); m.Category == Category {
			candidates = append(candidates, m)
		}
	}

	res := Result{
		Items:     make([]Item, 0, len(labels)),
		Satisfied: make(map[string]bool, len(labels)),
		Total:     len(labels),
	}
	for _, label := range labels {
		item := Item{Label: label, Manual: toggles[label], Matched: Matches(label, candidates)}
		item.Satisfied = item.Manual || item.Matched
		if item.Satisfied {
			res.SatisfiedCount++
		}
		res.Items = append(res.Items, item)
		res.Satisfied[label] = item.Satisfied
	}
	return res
}

// Matches reports whether any document appears to fulfil label.
func Matches(label string, docs []documents.Metadata) bool {
	full := strings.ToLower(label)
	if full == "" {
		return false
	}
	prefix := full
	if r := []rune(full); len(r) > probeRunes {
		prefix = string(r[:probeRunes])
	}
	for _, d := range docs {
		if d.Summary != "" && strings.Contains(strings.ToLower(d.Summary), full) {
			return true
		}
		if d.Name != "" && strings.Contains(strings.ToLower(d.Name), prefix) {
			return true
		}
	}
	return false
}
