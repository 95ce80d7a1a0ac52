package documents

import (
	"sort"

	"sitedocs/internal/domain/periods"
)

// Collection is an ordered, immutable list of records. Every mutation returns
// a new Collection and leaves the receiver untouched.
type Collection struct {
	records []Record
}

func NewCollection(records ...Record) Collection {
	return Collection{records: append([]Record(nil), records...)}
}

func (c Collection) Len() int {
	return len(c.records)
}

// All returns a copy of the records in insertion order.
func (c Collection) All() []Record {
	return append([]Record(nil), c.records...)
}

func (c Collection) Find(id string) (Record, bool) {
	for _, r := range c.records {
		if r.Meta().ID == id {
			return r, true
		}
	}
	return nil, false
}

func (c Collection) Add(records ...Record) Collection {
	next := make([]Record, 0, len(c.records)+len(records))
	next = append(next, c.records...)
	next = append(next, records...)
	return Collection{records: next}
}

// Replace swaps the record sharing r's id.
func (c Collection) Replace(r Record) (Collection, bool) {
	return c.Swap(r.Meta().ID, r)
}

// Swap puts r where the record with id was, keeping its position.
func (c Collection) Swap(id string, r Record) (Collection, bool) {
	for i, existing := range c.records {
		if existing.Meta().ID != id {
			continue
		}
		next := append([]Record(nil), c.records...)
		next[i] = r
		return Collection{records: next}, true
	}
	return c, false
}

func (c Collection) Remove(id string) (Collection, bool) {
	for i, existing := range c.records {
		if existing.Meta().ID != id {
			continue
		}
		next := make([]Record, 0, len(c.records)-1)
		next = append(next, c.records[:i]...)
		next = append(next, c.records[i+1:]...)
		return Collection{records: next}, true
	}
	return c, false
}

type Filter struct {
	Category Category
	Period   string
	Type     RecordType
}

func (f Filter) match(r Record) bool {
	m := r.Meta()
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if f.Period != "" && m.Period != f.Period {
		return false
	}
	if f.Type != "" && r.Type() != f.Type {
		return false
	}
	return true
}

// Filter returns matching records ordered by fortnight. Records without a
// period come last; ties keep insertion order.
func (c Collection) Filter(f Filter) []Record {
	out := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		if f.match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Meta().Period, out[j].Meta().Period
		if a == b {
			return false
		}
		if a == "" || b == "" {
			return b == ""
		}
		return periods.Less(a, b)
	})
	return out
}

// Files returns the file records of a category.
func (c Collection) Files(category Category) []FileDocument {
	var out []FileDocument
	for _, r := range c.records {
		if doc, ok := r.(FileDocument); ok && doc.Category == category {
			out = append(out, doc)
		}
	}
	return out
}
