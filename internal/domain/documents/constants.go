package documents

import "strings"

type Category string

const (
	CategoryAdministrative Category = "Administrativa"
	CategorySite           Category = "Documentación de Obra"
	CategoryWorkers        Category = "Documentación de Trabajadores"
	CategoryMedical        Category = "Reconocimientos Médicos"
	CategorySubcontractor  Category = "Documentación Subcontratas"
	CategoryTraining       Category = "Formación de Trabajadores"
	CategoryContract       Category = "Contratos de Trabajo"
	CategoryAgency         Category = "Documentación SAE"
)

const DefaultCategory = CategorySite

// Categories is the closed set in display order.
var Categories = []Category{
	CategoryContract,
	CategoryAgency,
	CategoryAdministrative,
	CategorySite,
	CategorySubcontractor,
	CategoryWorkers,
	CategoryTraining,
	CategoryMedical,
}

// ParseCategory matches value against the closed set, ignoring case and
// surrounding space.
func ParseCategory(value string) (Category, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	for _, c := range Categories {
		if strings.EqualFold(string(c), value) {
			return c, true
		}
	}
	return "", false
}

func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// Signable reports whether documents of this category accept a signature.
func (c Category) Signable() bool {
	return c == CategoryContract
}

type RecordType string

const (
	RecordTypeFile        RecordType = "file"
	RecordTypeAppointment RecordType = "appointment"
)

const (
	DateLayout      = "2006-01-02"
	PDFExtension    = ".pdf"
	SignedSuffix    = "_FIRMADO"
	MIMEPDF         = "application/pdf"
	FallbackSummary = "No se pudo analizar automáticamente el documento."
)
