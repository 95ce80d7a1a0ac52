package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileDoc(id string, category Category, period string) FileDocument {
	return FileDocument{Metadata: Metadata{ID: id, Name: id + ".pdf", Category: category, Period: period, Valid: true}}
}

func TestCollectionIsCopyOnWrite(t *testing.T) {
	original := NewCollection(fileDoc("a", CategorySite, ""))

	added := original.Add(fileDoc("b", CategorySite, ""))
	assert.Equal(t, 1, original.Len())
	assert.Equal(t, 2, added.Len())

	renamed := fileDoc("a", CategorySite, "")
	renamed.Name = "renamed.pdf"
	replaced, ok := added.Replace(renamed)
	require.True(t, ok)
	before, _ := added.Find("a")
	after, _ := replaced.Find("a")
	assert.Equal(t, "a.pdf", before.Meta().Name)
	assert.Equal(t, "renamed.pdf", after.Meta().Name)

	removed, ok := replaced.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1, removed.Len())
	assert.Equal(t, 2, replaced.Len())

	_, ok = removed.Remove("missing")
	assert.False(t, ok)
	_, ok = removed.Replace(fileDoc("missing", CategorySite, ""))
	assert.False(t, ok)
}

func TestCollectionAllReturnsCopy(t *testing.T) {
	c := NewCollection(fileDoc("a", CategorySite, ""))
	all := c.All()
	all[0] = fileDoc("z", CategorySite, "")

	got, ok := c.Find("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Meta().ID)
}

func TestCollectionFilterSortsByPeriod(t *testing.T) {
	c := NewCollection(
		fileDoc("late", CategoryWorkers, "1ª Octubre 2023"),
		fileDoc("none", CategoryWorkers, ""),
		fileDoc("early", CategoryWorkers, "2ª Septiembre 2023"),
		fileDoc("other", CategorySite, "1ª Septiembre 2023"),
		AppointmentDocument{Metadata: Metadata{ID: "appt", Category: CategoryWorkers, Period: "1ª Septiembre 2023"}},
	)

	var ids []string
	for _, r := range c.Filter(Filter{Category: CategoryWorkers}) {
		ids = append(ids, r.Meta().ID)
	}
	assert.Equal(t, []string{"appt", "early", "late", "none"}, ids)

	files := c.Filter(Filter{Category: CategoryWorkers, Type: RecordTypeFile, Period: "1ª Octubre 2023"})
	require.Len(t, files, 1)
	assert.Equal(t, "late", files[0].Meta().ID)

	assert.Len(t, c.Files(CategoryWorkers), 3)
}

func TestViewFlattensVariants(t *testing.T) {
	today := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

	file := fileDoc("f", CategoryContract, "")
	file.ExpiryDate = "2024-05-09"
	file.Signed = true
	file.Signature = "data:image/png;base64,AAAA"
	v := NewView(file, today)
	assert.Equal(t, RecordTypeFile, v.RecordType)
	assert.True(t, v.Expired)
	assert.True(t, v.IsSigned)
	assert.Equal(t, MIMEPDF, v.MIMEType)

	appt := AppointmentDocument{Metadata: Metadata{ID: "a", ExpiryDate: "2024-05-10"}, Time: "09:00"}
	v = NewView(appt, today)
	assert.Equal(t, RecordTypeAppointment, v.RecordType)
	assert.False(t, v.Expired, "expiring today is not expired")
	assert.Equal(t, "09:00", v.Time)
	assert.Empty(t, v.PDF)
}
