package services

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobfill/models"
)

func newToolkit(page *fakePage) Toolkit {
	x, _ := newTestExecutor(page)
	return Toolkit{
		Page:     page,
		Detector: NewFieldDetector(page, zap.NewNop()),
		Exec:     x,
		Logger:   zap.NewNop(),
	}
}

func TestAdapterRegistry_Select(t *testing.T) {
	reg := DefaultAdapterRegistry()
	tests := []struct {
		url  string
		want string
	}{
		{"https://boards.greenhouse.io/acme/jobs/123", "greenhouse"},
		{"https://job-boards.greenhouse.io/acme/jobs/123", "greenhouse"},
		{"https://careers.acme.com/jobs?gh_jid=4567", "greenhouse"},
		{"https://jobs.lever.co/acme/abc-123/apply", "lever"},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/123", "workday"},
		{"https://jobs.smartrecruiters.com/Acme/123", "smartrecruiters"},
		{"https://careers.acme.com/apply", "generic"},
		{"https://notgreenhouse.io/jobs", "generic"},
		{"::not a url", "generic"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.Select(tt.url).Name())
		})
	}
}

func TestAdapterRegistry_RegisterAfterBuiltins(t *testing.T) {
	reg := DefaultAdapterRegistry()
	custom := &platformAdapter{name: "custom", match: func(u *url.URL) bool { return hostIs(u, "lever.co", "acme.com") }}
	reg.Register(custom)

	assert.Equal(t, "lever", reg.Select("https://jobs.lever.co/acme/1").Name())
	assert.Equal(t, "custom", reg.Select("https://careers.acme.com/apply").Name())
}

func TestAutomationLabel(t *testing.T) {
	tests := map[string]string{
		"legalNameSection_firstName": "first name",
		"formField-phoneNumber":      "phone number",
		"email":                      "email",
		"":                           "",
	}
	for id, want := range tests {
		assert.Equal(t, want, automationLabel(id), id)
	}
}

func TestWorkdayAdapter_LabelsFromAutomationID(t *testing.T) {
	page := newFakePage()
	page.add(ElementInfo{Tag: "input", Type: "text", Rect: box(0, 100),
		Attributes: map[string]string{"data-automation-id": "legalNameSection_lastName"}})
	page.add(textInput("Email Address", 0, 150))

	fields, err := NewWorkdayAdapter().DetectFields(context.Background(), newToolkit(page))
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "last name", fields[0].Descriptor.Label)
	assert.Equal(t, "Email Address", fields[1].Descriptor.Label)
}

func TestAdapterLocators(t *testing.T) {
	names := func(c LocatorChain) []string {
		var out []string
		for _, l := range c {
			out = append(out, l.Name())
		}
		return out
	}
	assert.Equal(t, []string{"role", "text-proximity", "offset-probe"}, names(NewGenericAdapter().Locators()))
	assert.Equal(t, []string{"workday-add-button", "role", "text-proximity", "offset-probe"}, names(NewWorkdayAdapter().Locators()))
}

func TestSelectorLocator_NearestToHeading(t *testing.T) {
	page := newFakePage()
	heading := page.add(textNode("h3", "Work Experience", 500))
	page.add(ElementInfo{Tag: "button", Text: "Add", Rect: box(0, 120), Attributes: map[string]string{"data-automation-id": "add-button"}})
	near := page.add(ElementInfo{Tag: "button", Text: "Add", Rect: box(0, 530), Attributes: map[string]string{"data-automation-id": "add-button"}})

	loc := SelectorLocator{Label: "workday-add-button", Selector: "[data-automation-id='add-button']"}
	el, err := loc.Locate(context.Background(), page, ControlQuery{Section: "experience", Keyword: "add", Heading: heading.info})
	require.NoError(t, err)
	assert.Equal(t, near.ID(), el.ID())
}

func TestGreenhouseAdapter_PrefersResumeInput(t *testing.T) {
	page := newFakePage()
	cover := page.add(ElementInfo{Tag: "input", Type: "file", DOMID: "cover_letter"})
	resume := page.add(ElementInfo{Tag: "input", Type: "file", DOMID: "resume"})

	out := NewGreenhouseAdapter().HandleFileUpload(context.Background(), newToolkit(page), FilePayload{Name: "r.pdf"})
	assert.True(t, out.Attached)
	assert.Len(t, resume.attached, 1)
	assert.Empty(t, cover.attached)
}

func TestPlatformAdapter_FillFieldRoutesDropdowns(t *testing.T) {
	page := newFakePage()
	combo := page.add(ElementInfo{Tag: "input", Type: "text", Role: "combobox", Label: "Country", Rect: box(0, 100)})
	option := page.add(ElementInfo{Tag: "div", Text: "United States", Rect: box(0, 140),
		Attributes: map[string]string{"data-automation-id": "promptOption"}})
	sel := page.add(ElementInfo{Tag: "select", Label: "Degree", Options: []string{"BS", "MS"}, Rect: box(0, 300)})
	text := page.add(textInput("City", 0, 400))

	tk := newToolkit(page)
	adapter := NewWorkdayAdapter()
	ctx := context.Background()
	field := func(el *fakeElement) DetectedField {
		return DetectedField{Element: el, Descriptor: Describe(el.info)}
	}

	out, err := adapter.FillField(ctx, tk, field(combo), models.FillPlanEntry{Strategy: models.StrategyAutocomplete, TargetValue: "United States"})
	require.NoError(t, err)
	assert.True(t, out.Filled)
	assert.Equal(t, 1, option.clicks)

	out, err = adapter.FillField(ctx, tk, field(sel), models.FillPlanEntry{Strategy: models.StrategySelect, TargetValue: "ms"})
	require.NoError(t, err)
	assert.True(t, out.Filled)
	assert.Equal(t, "MS", sel.info.Value)

	out, err = adapter.FillField(ctx, tk, field(text), models.FillPlanEntry{Strategy: models.StrategyText, TargetValue: "Austin"})
	require.NoError(t, err)
	assert.True(t, out.Filled)
	assert.Equal(t, "Austin", text.info.Value)
}
