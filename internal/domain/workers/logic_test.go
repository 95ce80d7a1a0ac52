package workers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitedocs/internal/domain/documents"
)

var now = time.Date(2024, 5, 10, 17, 45, 0, 0, time.UTC)

func TestRemindersBoundaries(t *testing.T) {
	list := []Worker{
		{ID: "1", FirstName: "Ana", LastName: "Ruiz", MedicalAppointment: &Appointment{Date: "2024-05-10", Time: "08:00"}},
		{ID: "2", FirstName: "Luis", LastName: "Gil", HasPRL20h: true, PRLAppointment: &Appointment{Date: "2024-05-01"}},
		{ID: "3", FirstName: "Eva", LastName: "Sanz", HasPRL20h: true, PRLAppointment: &Appointment{Date: "2024-06-01"}},
		{ID: "4", FirstName: "Pablo", LastName: "Mora", PRLAppointment: &Appointment{Date: "2024-05-09"}},
		{ID: "5", FirstName: "Rosa", LastName: "León", PRLAppointment: &Appointment{Date: "no es fecha"}},
	}

	got := Reminders(list, now)
	require.Len(t, got, 1)
	assert.Equal(t, Reminder{ID: "med-1", Type: ReminderMedical, WorkerName: "Ana Ruiz", Date: "2024-05-10", Time: "08:00"}, got[0])
}

func TestRemindersSortedByDate(t *testing.T) {
	list := []Worker{
		{ID: "a", FirstName: "A", LastName: "Uno", PRLAppointment: &Appointment{Date: "2024-07-01"}, MedicalAppointment: &Appointment{Date: "2024-05-20", Location: "Mutua"}},
		{ID: "b", FirstName: "B", LastName: "Dos", MedicalAppointment: &Appointment{Date: "2024-06-15"}},
		{ID: "c", FirstName: "C", LastName: "Tres", PRLAppointment: &Appointment{Date: "2024-05-20T00:00:00Z"}},
	}

	got := Reminders(list, now)
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"med-a", "prl-c", "med-b", "prl-a"}, ids)
	assert.Equal(t, ReminderPRL, got[1].Type)
	assert.Equal(t, "Mutua", got[0].Location)
}

func TestRemindersUseCallerLocation(t *testing.T) {
	madrid := time.FixedZone("CEST", 2*60*60)
	lateNightUTC := time.Date(2024, 5, 9, 23, 30, 0, 0, time.UTC)
	list := []Worker{{ID: "1", FirstName: "A", LastName: "B", MedicalAppointment: &Appointment{Date: "2024-05-09"}}}

	assert.Len(t, Reminders(list, lateNightUTC), 1)
	assert.Empty(t, Reminders(list, lateNightUTC.In(madrid)))
}

func TestNewWorker(t *testing.T) {
	_, ok := New(Form{FirstName: "Ana", LastName: "Ruiz"}, "1")
	assert.False(t, ok)

	w, ok := New(Form{
		FirstName:          " Ana ",
		LastName:           "Ruiz",
		NationalID:         "12345678Z",
		HasPRL20h:          true,
		PRLAppointment:     &Appointment{Date: "2024-06-01"},
		MedicalCheckDone:   false,
		MedicalAppointment: &Appointment{Date: "2024-06-02", Location: "Mutua"},
	}, "1")
	require.True(t, ok)
	assert.Equal(t, "Ana Ruiz", w.FullName())
	assert.Nil(t, w.PRLAppointment)
	require.NotNil(t, w.MedicalAppointment)
	assert.Equal(t, defaultShoeSize, w.ShoeSize)

	done, ok := New(Form{FirstName: "A", LastName: "B", NationalID: "X", MedicalCheckDone: true, MedicalAppointment: &Appointment{Date: "2024-06-02"}}, "2")
	require.True(t, ok)
	assert.Nil(t, done.MedicalAppointment)
}

func TestScheduledAppointments(t *testing.T) {
	n := 0
	ids := func() string { n++; return fmt.Sprintf("appt-%d", n) }

	w, ok := New(Form{
		FirstName:          "Ana",
		LastName:           "Ruiz",
		NationalID:         "X",
		Period:             "1ª Junio 2024",
		PRLAppointment:     &Appointment{Date: "2024-06-01", Time: "09:00", Location: "Aula"},
		MedicalAppointment: &Appointment{Date: "2024-06-03"},
	}, "w1")
	require.True(t, ok)

	docs := ScheduledAppointments(w, ids, now)
	require.Len(t, docs, 2)
	assert.Equal(t, "Cita PRL - Ana Ruiz", docs[0].Name)
	assert.Equal(t, documents.CategoryTraining, docs[0].Category)
	assert.Equal(t, "Cita automática: 2024-06-01 09:00", docs[0].Summary)
	assert.Equal(t, "1ª Junio 2024", docs[0].Period)
	assert.Equal(t, "Cita Médica - Ana Ruiz", docs[1].Name)
	assert.Equal(t, documents.CategoryMedical, docs[1].Category)
	assert.Equal(t, "appt-2", docs[1].ID)

	trained := w
	trained.HasPRL20h = true
	trained.MedicalAppointment = nil
	assert.Empty(t, ScheduledAppointments(trained, ids, now))
}

func TestPending(t *testing.T) {
	list := []Worker{
		{ID: "1", FirstName: "Ana", LastName: "Ruiz"},
		{ID: "2", FirstName: "Luis", LastName: "Gil", HasPRL20h: true},
		{ID: "3", FirstName: "Eva", LastName: "Sanz", MedicalAppointment: &Appointment{Date: "2024-06-01"}},
	}
	docs := []documents.Record{
		documents.FileDocument{Metadata: documents.Metadata{ID: "d1", Category: documents.CategoryTraining, WorkerName: "Eva Sanz"}},
		documents.FileDocument{Metadata: documents.Metadata{ID: "d2", Category: documents.CategoryMedical, WorkerName: "Ana Ruiz"}},
	}

	training := Pending(list, documents.CategoryTraining, docs)
	require.Len(t, training, 1)
	assert.Equal(t, "1", training[0].ID)

	medical := Pending(list, documents.CategoryMedical, docs)
	require.Len(t, medical, 1)
	assert.Equal(t, "2", medical[0].ID)

	assert.Nil(t, Pending(list, documents.CategorySite, docs))
}
