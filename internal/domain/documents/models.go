package documents

import (
	"strings"
	"time"

	"sitedocs/internal/platform/blob"
)

// Metadata is shared by every record variant.
type Metadata struct {
	ID         string
	Name       string
	Category   Category
	UploadedAt time.Time
	ExpiryDate string
	Summary    string
	WorkerName string
	Location   string
	Period     string
	Valid      bool
}

// Record is either a FileDocument or an AppointmentDocument.
type Record interface {
	Meta() Metadata
	Type() RecordType
	withMeta(Metadata) Record
}

// FileDocument is a captured page with its bitmaps and rendered PDF.
type FileDocument struct {
	Metadata
	Archival  string
	Thumbnail string
	PDF       blob.Handle
	Signature string
	Signed    bool
}

func (d FileDocument) Meta() Metadata   { return d.Metadata }
func (d FileDocument) Type() RecordType { return RecordTypeFile }

func (d FileDocument) withMeta(m Metadata) Record {
	d.Metadata = m
	return d
}

// Filed reports whether every payload is present.
func (d FileDocument) Filed() bool {
	return d.Archival != "" && d.Thumbnail != "" && d.PDF.Valid()
}

// AppointmentDocument is a scheduled training or medical appointment. The
// appointment date is carried in ExpiryDate.
type AppointmentDocument struct {
	Metadata
	Time string
}

func (d AppointmentDocument) Meta() Metadata   { return d.Metadata }
func (d AppointmentDocument) Type() RecordType { return RecordTypeAppointment }

func (d AppointmentDocument) withMeta(m Metadata) Record {
	d.Metadata = m
	return d
}

// Upload is one captured file.
type Upload struct {
	Name string
	Data []byte
}

// Target carries the context an intake was started from.
type Target struct {
	Category   Category
	WorkerName string
	Period     string
}

// Expired reports whether the expiry date lies strictly before today.
func (m Metadata) Expired(today time.Time) bool {
	if m.ExpiryDate == "" {
		return false
	}
	expiry, err := time.ParseInLocation(DateLayout, m.ExpiryDate, today.Location())
	if err != nil {
		return false
	}
	return expiry.Before(startOfDay(today))
}

// View is the flat representation handed to API and CLI consumers.
type View struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   Category   `json:"category"`
	RecordType RecordType `json:"recordType"`
	UploadedAt time.Time  `json:"uploadDate"`
	ExpiryDate string     `json:"expiryDate,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	WorkerName string     `json:"workerName,omitempty"`
	Location   string     `json:"location,omitempty"`
	Period     string     `json:"quincena,omitempty"`
	IsValid    bool       `json:"isValid"`
	Expired    bool       `json:"expired"`
	Time       string     `json:"time,omitempty"`
	IsSigned   bool       `json:"isSigned,omitempty"`
	Signature  string     `json:"signatureUrl,omitempty"`
	Thumbnail  string     `json:"thumbnailUrl,omitempty"`
	PDF        string     `json:"fileUrl,omitempty"`
	MIMEType   string     `json:"mimeType,omitempty"`
}

func NewView(r Record, today time.Time) View {
	m := r.Meta()
	v := View{
		ID:         m.ID,
		Name:       m.Name,
		Category:   m.Category,
		RecordType: r.Type(),
		UploadedAt: m.UploadedAt,
		ExpiryDate: m.ExpiryDate,
		Summary:    m.Summary,
		WorkerName: m.WorkerName,
		Location:   m.Location,
		Period:     m.Period,
		IsValid:    m.Valid,
		Expired:    m.Expired(today),
	}
	switch doc := r.(type) {
	case FileDocument:
		v.IsSigned = doc.Signed
		v.Signature = doc.Signature
		v.Thumbnail = doc.Thumbnail
		v.PDF = string(doc.PDF)
		v.MIMEType = MIMEPDF
	case AppointmentDocument:
		v.Time = doc.Time
	}
	return v
}

// ParseDate accepts an empty string or a YYYY-MM-DD date.
func ParseDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if len(value) > len(DateLayout) && value[len(DateLayout)] == 'T' {
		value = value[:len(DateLayout)]
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return "", ErrInvalidDate
	}
	return value, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
