package workers

import "strings"

type Appointment struct {
	Date     string `json:"date" yaml:"date"`
	Time     string `json:"time,omitempty" yaml:"time,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

type Worker struct {
	ID                 string       `json:"id" yaml:"id"`
	OfferNumber        string       `json:"offerNumber,omitempty" yaml:"offerNumber,omitempty"`
	FirstName          string       `json:"firstName" yaml:"firstName"`
	LastName           string       `json:"lastName" yaml:"lastName"`
	NationalID         string       `json:"dni" yaml:"dni"`
	BirthDate          string       `json:"birthDate,omitempty" yaml:"birthDate,omitempty"`
	Period             string       `json:"quincena,omitempty" yaml:"quincena,omitempty"`
	ContractStart      string       `json:"contractStart,omitempty" yaml:"contractStart,omitempty"`
	ContractEnd        string       `json:"contractEnd,omitempty" yaml:"contractEnd,omitempty"`
	Phone              string       `json:"phone,omitempty" yaml:"phone,omitempty"`
	ShoeSize           int          `json:"shoeSize,omitempty" yaml:"shoeSize,omitempty"`
	HasPRL20h          bool         `json:"hasPrl20h" yaml:"hasPrl20h"`
	PRLAppointment     *Appointment `json:"prlAppointment,omitempty" yaml:"prlAppointment,omitempty"`
	MedicalAppointment *Appointment `json:"medicalAppointment,omitempty" yaml:"medicalAppointment,omitempty"`
}

func (w Worker) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

// Form is the registration input. MedicalCheckDone drops the medical
// appointment; HasPRL20h drops the training one.
type Form struct {
	OfferNumber        string       `json:"offerNumber"`
	FirstName          string       `json:"firstName"`
	LastName           string       `json:"lastName"`
	NationalID         string       `json:"dni"`
	BirthDate          string       `json:"birthDate"`
	Period             string       `json:"quincena"`
	ContractStart      string       `json:"contractStart"`
	ContractEnd        string       `json:"contractEnd"`
	Phone              string       `json:"phone"`
	ShoeSize           int          `json:"shoeSize"`
	HasPRL20h          bool         `json:"hasPrl20h"`
	MedicalCheckDone   bool         `json:"medicalCheckDone"`
	PRLAppointment     *Appointment `json:"prlAppointment"`
	MedicalAppointment *Appointment `json:"medicalAppointment"`
}

type ReminderType string

const (
	ReminderPRL     ReminderType = "PRL"
	ReminderMedical ReminderType = "MED"
)

type Reminder struct {
	ID         string       `json:"id"`
	Type       ReminderType `json:"type"`
	WorkerName string       `json:"workerName"`
	Date       string       `json:"date"`
	Time       string       `json:"time,omitempty"`
	Location   string       `json:"location,omitempty"`
}

const defaultShoeSize = 42
