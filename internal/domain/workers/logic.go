package workers

import (
	"sort"
	"strings"
	"time"

	"sitedocs/internal/domain/documents"
)

// New builds a worker from a form. It returns false when first name, last
// name or national id is missing.
func New(form Form, id string) (Worker, bool) {
	first := strings.TrimSpace(form.FirstName)
	last := strings.TrimSpace(form.LastName)
	nationalID := strings.TrimSpace(form.NationalID)
	if first == "" || last == "" || nationalID == "" {
		return Worker{}, false
	}
	shoe := form.ShoeSize
	if shoe <= 0 {
		shoe = defaultShoeSize
	}
	w := Worker{
		ID:            id,
		OfferNumber:   strings.TrimSpace(form.OfferNumber),
		FirstName:     first,
		LastName:      last,
		NationalID:    nationalID,
		BirthDate:     form.BirthDate,
		Period:        strings.TrimSpace(form.Period),
		ContractStart: form.ContractStart,
		ContractEnd:   form.ContractEnd,
		Phone:         strings.TrimSpace(form.Phone),
		ShoeSize:      shoe,
		HasPRL20h:     form.HasPRL20h,
	}
	if !form.HasPRL20h {
		w.PRLAppointment = cleanAppointment(form.PRLAppointment)
	}
	if !form.MedicalCheckDone {
		w.MedicalAppointment = cleanAppointment(form.MedicalAppointment)
	}
	return w, true
}

// ScheduledAppointments lists the appointment records filed alongside a newly
// registered worker. newID is called once per record.
func ScheduledAppointments(w Worker, newID func() string, now time.Time) []documents.AppointmentDocument {
	var out []documents.AppointmentDocument
	full := w.FullName()
	if !w.HasPRL20h && w.PRLAppointment != nil && w.PRLAppointment.Date != "" {
		a := w.PRLAppointment
		out = append(out, documents.ScheduledAppointment(documents.CategoryTraining, full, a.Date, a.Time, a.Location, w.Period, newID(), now))
	}
	if w.MedicalAppointment != nil && w.MedicalAppointment.Date != "" {
		a := w.MedicalAppointment
		out = append(out, documents.ScheduledAppointment(documents.CategoryMedical, full, a.Date, a.Time, a.Location, w.Period, newID(), now))
	}
	return out
}

// Reminders lists upcoming training and medical appointments sorted by date.
// Dates are compared without time of day in now's location; past and
// unparseable dates are left out.
func Reminders(list []Worker, now time.Time) []Reminder {
	today := startOfDay(now)
	type dated struct {
		at time.Time
		r  Reminder
	}
	var pending []dated
	for _, w := range list {
		if !w.HasPRL20h && w.PRLAppointment != nil {
			if at, ok := upcoming(w.PRLAppointment.Date, today); ok {
				pending = append(pending, dated{at: at, r: reminder("prl-", ReminderPRL, w, w.PRLAppointment)})
			}
		}
		if w.MedicalAppointment != nil {
			if at, ok := upcoming(w.MedicalAppointment.Date, today); ok {
				pending = append(pending, dated{at: at, r: reminder("med-", ReminderMedical, w, w.MedicalAppointment)})
			}
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].at.Before(pending[j].at) })

	out := make([]Reminder, 0, len(pending))
	for _, p := range pending {
		out = append(out, p.r)
	}
	return out
}

// Pending lists workers still owing a training course or medical exam. A
// document in the category whose worker name mentions the worker's last name
// counts as covering them.
func Pending(list []Worker, category documents.Category, docs []documents.Record) []Worker {
	var needs func(Worker) bool
	switch category {
	case documents.CategoryTraining:
		needs = func(w Worker) bool { return !w.HasPRL20h }
	case documents.CategoryMedical:
		needs = func(w Worker) bool { return w.MedicalAppointment == nil }
	default:
		return nil
	}
	var out []Worker
	for _, w := range list {
		if needs(w) && !mentioned(w, category, docs) {
			out = append(out, w)
		}
	}
	return out
}

func mentioned(w Worker, category documents.Category, docs []documents.Record) bool {
	if w.LastName == "" {
		return false
	}
	for _, d := range docs {
		m := d.Meta()
		if m.Category == category && m.WorkerName != "" && strings.Contains(m.WorkerName, w.LastName) {
			return true
		}
	}
	return false
}

func reminder(prefix string, kind ReminderType, w Worker, a *Appointment) Reminder {
	return Reminder{
		ID:         prefix + w.ID,
		Type:       kind,
		WorkerName: w.FullName(),
		Date:       a.Date,
		Time:       a.Time,
		Location:   a.Location,
	}
}

func upcoming(date string, today time.Time) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	if len(date) > 10 && date[10] == 'T' {
		date = date[:10]
	}
	at, err := time.ParseInLocation(documents.DateLayout, date, today.Location())
	if err != nil || at.Before(today) {
		return time.Time{}, false
	}
	return at, true
}

func cleanAppointment(a *Appointment) *Appointment {
	if a == nil {
		return nil
	}
	out := Appointment{
		Date:     strings.TrimSpace(a.Date),
		Time:     strings.TrimSpace(a.Time),
		Location: strings.TrimSpace(a.Location),
	}
	if out == (Appointment{}) {
		return nil
	}
	return &out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
