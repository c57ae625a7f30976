package services

import (
	"strings"

	"jobfill/models"
)

// Slot names one value position in a section's form layout.
type Slot string

const (
	SlotTitle        Slot = "title"
	SlotCompany      Slot = "company"
	SlotLocation     Slot = "location"
	SlotDescription  Slot = "description"
	SlotStartDate    Slot = "start_date"
	SlotEndDate      Slot = "end_date"
	SlotSchool       Slot = "school"
	SlotDegree       Slot = "degree"
	SlotFieldOfStudy Slot = "field_of_study"
)

func (s Slot) isDate() bool {
	return s == SlotStartDate || s == SlotEndDate
}

// SectionSchema is the fixed row/column layout an "Add" action reveals.
type SectionSchema struct {
	Name string
	Rows [][]Slot
	// CurrentPhrase labels the checkbox marking an ongoing entry.
	CurrentPhrase string
}

var ExperienceSchema = SectionSchema{
	Name: "experience",
	Rows: [][]Slot{
		{SlotTitle, SlotCompany},
		{SlotLocation},
		{SlotDescription},
		{SlotStartDate, SlotEndDate},
	},
	CurrentPhrase: "currently work",
}

var EducationSchema = SectionSchema{
	Name: "education",
	Rows: [][]Slot{
		{SlotSchool, SlotDegree},
		{SlotFieldOfStudy},
		{SlotStartDate, SlotEndDate},
	},
	CurrentPhrase: "currently attend",
}

// SectionRecord is the profile entry being written into a section.
type SectionRecord struct {
	Values  map[Slot]string
	Current bool
}

func ExperienceRecord(e models.ExperienceEntry) SectionRecord {
	return SectionRecord{
		Values: map[Slot]string{
			SlotTitle:       e.Title,
			SlotCompany:     e.Company,
			SlotLocation:    e.Location,
			SlotDescription: e.Description,
			SlotStartDate:   e.StartDate,
			SlotEndDate:     e.EndDate,
		},
		Current: e.Current(),
	}
}

func EducationRecord(e models.EducationEntry) SectionRecord {
	return SectionRecord{
		Values: map[Slot]string{
			SlotSchool:       e.School,
			SlotDegree:       e.Degree,
			SlotFieldOfStudy: e.FieldOfStudy,
			SlotStartDate:    e.StartDate,
			SlotEndDate:      e.EndDate,
		},
		Current: e.Current(),
	}
}

// SlotAssignment is one field of a revealed section bound to its value.
type SlotAssignment struct {
	Slot  Slot
	Field DetectedField
	Entry models.FillPlanEntry
}

// Assign maps grouped rows onto the schema. Slots with no matching row or
// column, or with an empty value, are skipped. End dates are skipped for
// current records.
func (s SectionSchema) Assign(rows [][]DetectedField, rec SectionRecord) []SlotAssignment {
	var out []SlotAssignment
	index := 0
	for r, slots := range s.Rows {
		if r >= len(rows) {
			break
		}
		for c, slot := range slots {
			if c >= len(rows[r]) {
				break
			}
			field := rows[r][c]
			value := strings.TrimSpace(rec.Values[slot])
			if value == "" || (slot == SlotEndDate && rec.Current) {
				continue
			}
			strategy := models.StrategyFor(field.Descriptor)
			if slot.isDate() && strategy != models.StrategyDate {
				strategy = models.StrategyText
				value = formatDateForPlaceholder(value, field.Descriptor.Placeholder)
			}
			out = append(out, SlotAssignment{
				Slot:  slot,
				Field: field,
				Entry: models.NewSlotEntry(index, field.Descriptor, value, strategy),
			})
			index++
		}
	}
	return out
}

// formatDateForPlaceholder renders a date for a free-text date box, following
// the placeholder's layout when it names one.
func formatDateForPlaceholder(value, placeholder string) string {
	t, ok := models.ParseDate(value)
	if !ok {
		return value
	}
	switch p := strings.ToLower(strings.ReplaceAll(placeholder, " ", "")); {
	case strings.Contains(p, "mm/dd/yyyy"):
		return t.Format("01/02/2006")
	case strings.Contains(p, "mm/yyyy"):
		return t.Format("01/2006")
	case strings.Contains(p, "yyyy-mm-dd"):
		return t.Format("2006-01-02")
	case strings.Contains(p, "yyyy-mm"):
		return t.Format("2006-01")
	case p == "yyyy":
		return t.Format("2006")
	}
	return value
}
