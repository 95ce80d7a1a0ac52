package documents

import (
	"strings"
	"time"
)

// Edit changes a filed record in place. Nil fields are left as they are.
type Edit struct {
	Name       *string `json:"name"`
	ExpiryDate *string `json:"expiryDate"`
}

// ApplyEdit returns r with the edit applied. Record type, payloads and
// category are never touched.
func ApplyEdit(r Record, e Edit) (Record, error) {
	m := r.Meta()
	if e.Name != nil {
		name := strings.TrimSpace(*e.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		m.Name = name
	}
	if e.ExpiryDate != nil {
		expiry, err := ParseDate(*e.ExpiryDate)
		if err != nil {
			return nil, err
		}
		m.ExpiryDate = expiry
	}
	return r.withMeta(m), nil
}

// AppointmentForm is a manually entered appointment.
type AppointmentForm struct {
	Category   Category `json:"category"`
	WorkerName string   `json:"workerName"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Location   string   `json:"location"`
	Period     string   `json:"quincena"`
}

// NewAppointment builds a manual training or medical appointment. It returns
// false when the worker name or date is missing, or the category takes no
// appointments.
func NewAppointment(form AppointmentForm, id string, now time.Time) (AppointmentDocument, bool) {
	worker := strings.TrimSpace(form.WorkerName)
	date, err := ParseDate(form.Date)
	if worker == "" || date == "" || err != nil {
		return AppointmentDocument{}, false
	}
	category, _ := ParseCategory(string(form.Category))
	var name, summary string
	switch category {
	case CategoryTraining:
		name = "Cita PRL 20h - " + worker
		summary = "Cita programada formación 20h"
	case CategoryMedical:
		name = "Cita Médica - " + worker
		summary = "Cita programada reconocimiento médico"
	default:
		return AppointmentDocument{}, false
	}
	return AppointmentDocument{
		Metadata: Metadata{
			ID:         id,
			Name:       name,
			Category:   category,
			UploadedAt: now,
			ExpiryDate: date,
			Summary:    summary,
			WorkerName: worker,
			Location:   strings.TrimSpace(form.Location),
			Period:     strings.TrimSpace(form.Period),
			Valid:      true,
		},
		Time: strings.TrimSpace(form.Time),
	}, true
}

// ScheduledAppointment is filed automatically when a worker is registered with
// a pending training or medical appointment.
func ScheduledAppointment(category Category, fullName, date, at, location, period, id string, now time.Time) AppointmentDocument {
	prefix := "Cita Médica - "
	if category == CategoryTraining {
		prefix = "Cita PRL - "
	}
	return AppointmentDocument{
		Metadata: Metadata{
			ID:         id,
			Name:       prefix + fullName,
			Category:   category,
			UploadedAt: now,
			ExpiryDate: date,
			Summary:    strings.TrimSpace("Cita automática: " + date + " " + at),
			WorkerName: fullName,
			Location:   location,
			Period:     period,
			Valid:      true,
		},
		Time: at,
	}
}
