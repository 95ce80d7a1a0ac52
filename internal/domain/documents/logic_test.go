package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitedocs/internal/platform/blob"
)

func TestApplyEditKeepsShape(t *testing.T) {
	doc := FileDocument{
		Metadata:  Metadata{ID: "1", Name: "old.pdf", Category: CategoryContract, ExpiryDate: "2024-01-01"},
		Archival:  "data:image/jpeg;base64,AAAA",
		Thumbnail: "data:image/jpeg;base64,BBBB",
		PDF:       blob.Handle("blob:1"),
	}

	edited, err := ApplyEdit(doc, Edit{Name: strPtr("  nuevo.pdf "), ExpiryDate: strPtr("2026-03-31")})
	require.NoError(t, err)

	got, ok := edited.(FileDocument)
	require.True(t, ok)
	assert.Equal(t, "nuevo.pdf", got.Name)
	assert.Equal(t, "2026-03-31", got.ExpiryDate)
	assert.Equal(t, CategoryContract, got.Category)
	assert.Equal(t, doc.Archival, got.Archival)
	assert.Equal(t, doc.PDF, got.PDF)
	assert.Equal(t, "old.pdf", doc.Name)

	cleared, err := ApplyEdit(doc, Edit{ExpiryDate: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "", cleared.Meta().ExpiryDate)
	assert.Equal(t, "old.pdf", cleared.Meta().Name)
}

func TestApplyEditValidation(t *testing.T) {
	appt := AppointmentDocument{Metadata: Metadata{ID: "1", Name: "Cita"}}

	_, err := ApplyEdit(appt, Edit{Name: strPtr("   ")})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = ApplyEdit(appt, Edit{ExpiryDate: strPtr("01-02-2024")})
	assert.ErrorIs(t, err, ErrInvalidDate)

	edited, err := ApplyEdit(appt, Edit{Name: strPtr("Cita nueva")})
	require.NoError(t, err)
	assert.Equal(t, RecordTypeAppointment, edited.Type())
}

func TestNewAppointment(t *testing.T) {
	training, ok := NewAppointment(AppointmentForm{
		Category:   CategoryTraining,
		WorkerName: "Luis García",
		Date:       "2024-06-01",
		Time:       "10:00",
		Location:   "Aula 2",
		Period:     "1ª Junio 2024",
	}, "appt-1", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "Cita PRL 20h - Luis García", training.Name)
	assert.Equal(t, "Cita programada formación 20h", training.Summary)
	assert.Equal(t, "2024-06-01", training.ExpiryDate)
	assert.Equal(t, "10:00", training.Time)
	assert.Equal(t, "Aula 2", training.Location)
	assert.True(t, training.Valid)

	medical, ok := NewAppointment(AppointmentForm{Category: CategoryMedical, WorkerName: "Ana", Date: "2024-06-02"}, "appt-2", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "Cita Médica - Ana", medical.Name)
	assert.Equal(t, "Cita programada reconocimiento médico", medical.Summary)
}

func TestNewAppointmentNoOps(t *testing.T) {
	forms := []AppointmentForm{
		{Category: CategoryTraining, Date: "2024-06-01"},
		{Category: CategoryTraining, WorkerName: "Ana"},
		{Category: CategoryTraining, WorkerName: "Ana", Date: "junio"},
		{Category: CategoryContract, WorkerName: "Ana", Date: "2024-06-01"},
	}
	for _, form := range forms {
		_, ok := NewAppointment(form, "x", fixedNow)
		assert.False(t, ok)
	}
}

func TestScheduledAppointment(t *testing.T) {
	prl := ScheduledAppointment(CategoryTraining, "Ana Ruiz", "2024-07-01", "", "Centro", "1ª Julio 2024", "id", fixedNow)
	assert.Equal(t, "Cita PRL - Ana Ruiz", prl.Name)
	assert.Equal(t, "Cita automática: 2024-07-01", prl.Summary)

	med := ScheduledAppointment(CategoryMedical, "Ana Ruiz", "2024-07-02", "08:30", "Mutua", "", "id2", fixedNow)
	assert.Equal(t, "Cita Médica - Ana Ruiz", med.Name)
	assert.Equal(t, "Cita automática: 2024-07-02 08:30", med.Summary)
	assert.Equal(t, "08:30", med.Time)
}
