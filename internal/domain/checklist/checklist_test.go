package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitedocs/internal/domain/documents"
)

func subDoc(name, summary string) documents.Record {
	return documents.FileDocument{Metadata: documents.Metadata{
		ID:       name,
		Name:     name,
		Summary:  summary,
		Category: documents.CategorySubcontractor,
	}}
}

func TestExactNameSatisfiesRequirement(t *testing.T) {
	res := Evaluate(DefaultRequirements, []documents.Record{subDoc("Seguro Responsabilidad Civil (RC) + Recibo", "")}, nil)

	assert.True(t, res.Satisfied["Seguro Responsabilidad Civil (RC) + Recibo"])
	assert.Equal(t, 1, res.SatisfiedCount)
	assert.Equal(t, 6, res.Total)
}

func TestUnrelatedDocumentSatisfiesNothing(t *testing.T) {
	res := Evaluate(DefaultRequirements, []documents.Record{subDoc("Factura de Material", "Factura de compra de cemento")}, nil)

	assert.Equal(t, 0, res.SatisfiedCount)
	for _, label := range DefaultRequirements {
		assert.False(t, res.Satisfied[label], label)
	}
}

func TestNamePrefixAndSummaryMatch(t *testing.T) {
	docs := []documents.Record{
		subDoc("certificado inscripción rea 2024.pdf", ""),
		subDoc("escaneo.pdf", "Copia de la evaluación de riesgos específica de la obra"),
	}
	res := Evaluate(DefaultRequirements, docs, nil)

	assert.True(t, res.Satisfied["Certificado Inscripción REA"])
	assert.True(t, res.Satisfied["Evaluación de Riesgos Específica"])
	// Both certificates share the "certificad" probe.
	assert.True(t, res.Satisfied["Certificado Corriente Pagos (Hacienda/SS)"])
	assert.Equal(t, 3, res.SatisfiedCount)
}

func TestOnlySubcontractorDocumentsCount(t *testing.T) {
	other := documents.FileDocument{Metadata: documents.Metadata{
		Name:     "Seguro Responsabilidad Civil (RC) + Recibo",
		Category: documents.CategoryAdministrative,
	}}
	res := Evaluate(DefaultRequirements, []documents.Record{other}, nil)
	assert.Equal(t, 0, res.SatisfiedCount)
}

func TestManualToggleIsNeverOverridden(t *testing.T) {
	toggles := Toggles{}.Toggle("TC1/TC2 (Seguridad Social)")
	res := Evaluate(DefaultRequirements, nil, toggles)

	require.Len(t, res.Items, len(DefaultRequirements))
	item := res.Items[3]
	assert.Equal(t, "TC1/TC2 (Seguridad Social)", item.Label)
	assert.True(t, item.Manual)
	assert.False(t, item.Matched)
	assert.True(t, item.Satisfied)
	assert.Equal(t, 1, res.SatisfiedCount)
}

func TestToggleIsCopyOnWrite(t *testing.T) {
	first := Toggles{}.Toggle("A")
	second := first.Toggle("A")

	assert.True(t, first["A"])
	assert.False(t, second["A"])
}

func TestPrefixCountsRunes(t *testing.T) {
	docs := []documents.Metadata{{Name: "adhesión p"}}
	assert.True(t, Matches("Adhesión Plan Seguridad y Salud", docs))
	assert.False(t, Matches("", docs))
}
