package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobfill/models"
)

// experiencePage is an application page whose "Add" control reveals a
// title/company row, a location row, a description row and a date row.
type experiencePage struct {
	*fakePage
	addButton                        *fakeElement
	title, company, location         *fakeElement
	description, start, end, current *fakeElement
	save                             *fakeElement
}

func newExperiencePage() *experiencePage {
	p := &experiencePage{fakePage: newFakePage()}
	p.fakePage.add(textInput("First Name", 0, 100))
	p.fakePage.add(textNode("h2", "Experience", 400))
	p.addButton = p.fakePage.add(textNode("button", "Add", 402))
	p.addButton.onClick = func() {
		p.title = p.fakePage.add(textInput("Job Title", 0, 450))
		p.company = p.fakePage.add(textInput("Company", 300, 452))
		p.location = p.fakePage.add(textInput("Location", 0, 500))
		p.description = p.fakePage.add(ElementInfo{Tag: "textarea", Label: "Description", Rect: Rect{Y: 550, Width: 400, Height: 80}})
		start := textInput("From", 0, 650)
		start.Placeholder = "MM/YYYY"
		p.start = p.fakePage.add(start)
		end := textInput("To", 300, 650)
		end.Placeholder = "MM/YYYY"
		p.end = p.fakePage.add(end)
		p.current = p.fakePage.add(ElementInfo{Tag: "input", Type: "checkbox", Rect: Rect{Y: 700, Width: 16, Height: 16}})
		p.fakePage.add(ElementInfo{Tag: "label", Text: "I currently work here", OwnText: "I currently work here",
			ControlID: p.current.ID(), Rect: box(30, 696)})
		p.save = p.fakePage.add(textNode("button", "Save", 760))
	}
	return p
}

func newTestExpander(page Page) (*SectionExpander, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	detector := NewFieldDetector(page, zap.NewNop())
	exec := NewFillExecutor(page, testEngineConfig, sleeper, zap.NewNop())
	return NewSectionExpander(page, detector, exec, DefaultLocators(), testEngineConfig, sleeper, zap.NewNop()), sleeper
}

func TestSectionExpander_CurrentJob(t *testing.T) {
	page := newExperiencePage()
	expander, sleeper := newTestExpander(page)

	rec := ExperienceRecord(models.ExperienceEntry{
		Title:       "Senior Engineer",
		Company:     "Acme",
		Location:    "Austin, TX",
		Description: "Built the billing platform",
		StartDate:   "2021-06",
		IsCurrent:   true,
	})
	res, err := expander.Expand(context.Background(), ExperienceSchema, rec)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, "text-proximity", res.Locator)
	assert.Equal(t, 6, res.NewFields)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, 5, res.Filled)
	assert.True(t, res.CurrentChecked)
	assert.True(t, res.Saved)

	assert.Equal(t, "Senior Engineer", page.title.info.Value)
	assert.Equal(t, "Acme", page.company.info.Value)
	assert.Equal(t, "Austin, TX", page.location.info.Value)
	assert.Equal(t, "Built the billing platform", page.description.info.Value)
	assert.Equal(t, "06/2021", page.start.info.Value)
	assert.Empty(t, page.end.info.Value)
	assert.True(t, page.current.info.Checked)
	assert.Equal(t, 1, page.save.clicks)
	assert.Equal(t, 1, page.addButton.clicks)
	assert.Equal(t, testEngineConfig.SettleDelay, sleeper.waits[0])
}

func TestSectionExpander_FinishedJob(t *testing.T) {
	page := newExperiencePage()
	expander, _ := newTestExpander(page)

	rec := ExperienceRecord(models.ExperienceEntry{
		Title: "Engineer", Company: "Initech", StartDate: "2018-02", EndDate: "2021-05",
	})
	res, err := expander.Expand(context.Background(), ExperienceSchema, rec)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Filled)
	assert.False(t, res.CurrentChecked)
	assert.Equal(t, "05/2021", page.end.info.Value)
	assert.Empty(t, page.location.info.Value)
	assert.False(t, page.current.info.Checked)
}

func TestSectionExpander_Skips(t *testing.T) {
	ctx := context.Background()
	rec := SectionRecord{Values: map[Slot]string{SlotSchool: "MIT"}}

	t.Run("no heading", func(t *testing.T) {
		expander, _ := newTestExpander(newFakePage())
		res, err := expander.Expand(ctx, EducationSchema, rec)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Equal(t, "heading not found", res.Reason)
	})

	t.Run("no add control", func(t *testing.T) {
		page := newFakePage()
		page.add(textNode("h2", "Education", 400))
		expander, _ := newTestExpander(page)
		res, err := expander.Expand(ctx, EducationSchema, rec)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Equal(t, "add control not found", res.Reason)
	})

	t.Run("nothing revealed", func(t *testing.T) {
		page := newFakePage()
		page.add(textNode("h2", "Education", 400))
		add := page.add(textNode("button", "Add", 402))
		expander, _ := newTestExpander(page)
		res, err := expander.Expand(ctx, EducationSchema, rec)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Equal(t, "no new fields", res.Reason)
		assert.Equal(t, 1, add.clicks)
	})
}

func TestSectionSchema_Assign(t *testing.T) {
	page := newFakePage()
	school := page.add(textInput("School", 0, 100))
	degree := page.add(ElementInfo{Tag: "select", Label: "Degree", Options: []string{"Bachelor's", "Master's"}, Rect: box(300, 100)})
	start := page.add(ElementInfo{Tag: "input", Type: "date", Rect: box(0, 200)})
	end := page.add(ElementInfo{Tag: "input", Type: "date", Rect: box(300, 200)})

	fields := func(els ...*fakeElement) []DetectedField {
		var out []DetectedField
		for _, el := range els {
			out = append(out, DetectedField{Element: el, Descriptor: Describe(el.info)})
		}
		return out
	}
	rows := [][]DetectedField{fields(school, degree), {}, fields(start, end)}

	rec := EducationRecord(models.EducationEntry{School: "MIT", Degree: "Master's", StartDate: "2019-09", EndDate: "2021-06"})
	got := EducationSchema.Assign(rows, rec)
	require.Len(t, got, 4)

	assert.Equal(t, SlotSchool, got[0].Slot)
	assert.Equal(t, models.StrategyText, got[0].Entry.Strategy)
	assert.Equal(t, SlotDegree, got[1].Slot)
	assert.Equal(t, models.StrategySelect, got[1].Entry.Strategy)
	assert.Equal(t, SlotStartDate, got[2].Slot)
	assert.Equal(t, models.StrategyDate, got[2].Entry.Strategy)
	assert.Equal(t, "2019-09", got[2].Entry.TargetValue)
	assert.Equal(t, SlotEndDate, got[3].Slot)
	for i, a := range got {
		assert.Equal(t, i, a.Entry.Index)
		assert.True(t, a.Entry.Factual)
	}
}

func TestFormatDateForPlaceholder(t *testing.T) {
	tests := []struct {
		placeholder string
		want        string
	}{
		{"MM/DD/YYYY", "06/01/2021"},
		{"MM / YYYY", "06/2021"},
		{"YYYY-MM-DD", "2021-06-01"},
		{"yyyy-mm", "2021-06"},
		{"YYYY", "2021"},
		{"Start date", "2021-06"},
	}
	for _, tt := range tests {
		t.Run(tt.placeholder, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDateForPlaceholder("2021-06", tt.placeholder))
		})
	}
	assert.Equal(t, "summer", formatDateForPlaceholder("summer", "MM/YYYY"))
}
