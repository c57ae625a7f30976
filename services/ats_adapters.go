package services

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"jobfill/models"
)

// Toolkit is the page-bound machinery an adapter works through.
type Toolkit struct {
	Page     Page
	Detector *FieldDetector
	Exec     *FillExecutor
	Logger   *zap.Logger
}

// ATSAdapter customizes discovery and filling for one applicant tracking
// system. Detect must only look at the URL.
type ATSAdapter interface {
	Name() string
	Detect(u *url.URL) bool
	DetectFields(ctx context.Context, tk Toolkit) ([]DetectedField, error)
	FillField(ctx context.Context, tk Toolkit, f DetectedField, entry models.FillPlanEntry) (FillOutcome, error)
	HandleDropdown(ctx context.Context, tk Toolkit, f DetectedField, value string) (FillOutcome, error)
	HandleFileUpload(ctx context.Context, tk Toolkit, file FilePayload) UploadOutcome
	Locators() LocatorChain
}

// platformAdapter is an adapter described by data: which URLs it claims,
// where its widgets render suggestions, which file inputs take the resume and
// which extra locators find its section controls.
type platformAdapter struct {
	name         string
	match        func(u *url.URL) bool
	suggestions  []string
	uploadInputs []string
	locators     []ControlLocator
}

func (a *platformAdapter) Name() string { return a.name }

func (a *platformAdapter) Detect(u *url.URL) bool {
	return u != nil && a.match(u)
}

func (a *platformAdapter) DetectFields(ctx context.Context, tk Toolkit) ([]DetectedField, error) {
	return tk.Detector.Detect(ctx)
}

func (a *platformAdapter) FillField(ctx context.Context, tk Toolkit, f DetectedField, entry models.FillPlanEntry) (FillOutcome, error) {
	switch entry.Strategy {
	case models.StrategySelect, models.StrategyAutocomplete:
		return a.HandleDropdown(ctx, tk, f, entry.TargetValue)
	}
	return tk.Exec.Fill(ctx, f.Element, entry)
}

func (a *platformAdapter) HandleDropdown(ctx context.Context, tk Toolkit, f DetectedField, value string) (FillOutcome, error) {
	if f.Descriptor.FieldType == models.FieldSelect {
		return tk.Exec.FillSelect(ctx, f.Element, value)
	}
	return tk.Exec.WithSuggestionSelectors(a.suggestions...).FillAutocomplete(ctx, f.Element, value)
}

func (a *platformAdapter) HandleFileUpload(ctx context.Context, tk Toolkit, file FilePayload) UploadOutcome {
	var preferred []Element
	for _, sel := range a.uploadInputs {
		els, err := DeepQuery(ctx, tk.Page, sel)
		if err != nil {
			tk.Logger.Debug("upload selector failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		preferred = append(preferred, els...)
	}
	return tk.Exec.AttachFile(ctx, file, preferred)
}

func (a *platformAdapter) Locators() LocatorChain {
	return append(LocatorChain(append([]ControlLocator(nil), a.locators...)), DefaultLocators()...)
}

// NewGenericAdapter handles any page with the default behaviour.
func NewGenericAdapter() ATSAdapter {
	return &platformAdapter{
		name:  "generic",
		match: func(*url.URL) bool { return true },
	}
}

func NewGreenhouseAdapter() ATSAdapter {
	return &platformAdapter{
		name: "greenhouse",
		match: func(u *url.URL) bool {
			return hostIs(u, "boards.greenhouse.io", "job-boards.greenhouse.io") || u.Query().Get("gh_jid") != ""
		},
		suggestions:  []string{".select__option", "[id*='react-select'][id*='option']"},
		uploadInputs: []string{"input[type='file'][id*='resume']", "input[type='file'][name*='resume']"},
	}
}

func NewLeverAdapter() ATSAdapter {
	return &platformAdapter{
		name:         "lever",
		match:        func(u *url.URL) bool { return hostIs(u, "jobs.lever.co") },
		suggestions:  []string{"[class*='dropdown-location']"},
		uploadInputs: []string{"input[name='resume']"},
	}
}

func NewSmartRecruitersAdapter() ATSAdapter {
	return &platformAdapter{
		name:         "smartrecruiters",
		match:        func(u *url.URL) bool { return hostIs(u, "jobs.smartrecruiters.com") },
		suggestions:  []string{"[class*='autocomplete-option']", "[class*='listbox-item']"},
		uploadInputs: []string{"input[type='file'][data-test*='resume']", "input[type='file'][accept*='pdf']"},
	}
}

// workdayAdapter labels fields from Workday's automation ids, which are often
// more stable than its rendered labels.
type workdayAdapter struct {
	*platformAdapter
}

func NewWorkdayAdapter() ATSAdapter {
	return workdayAdapter{&platformAdapter{
		name:         "workday",
		match:        func(u *url.URL) bool { return hostIs(u, "myworkdayjobs.com", "myworkday.com") },
		suggestions:  []string{"[data-automation-id='promptOption']", "[data-automation-id='menuItem']"},
		uploadInputs: []string{"[data-automation-id='file-upload-input-ref']"},
		locators: []ControlLocator{
			SelectorLocator{Label: "workday-add-button", Selector: "[data-automation-id='add-button']"},
		},
	}}
}

func (w workdayAdapter) DetectFields(ctx context.Context, tk Toolkit) ([]DetectedField, error) {
	fields, err := tk.Detector.Detect(ctx)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		d := &fields[i].Descriptor
		if d.Label == "" {
			d.Label = automationLabel(d.Attr("data-automation-id"))
		}
	}
	return fields, nil
}

// automationLabel turns "legalNameSection_firstName" into "first name".
func automationLabel(id string) string {
	if id == "" {
		return ""
	}
	if i := strings.LastIndex(id, "_"); i >= 0 {
		id = id[i+1:]
	}
	id = strings.TrimPrefix(id, "formField-")
	var b strings.Builder
	for i, r := range id {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte(' ')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SelectorLocator returns the rendered match of a fixed selector nearest the
// section heading.
type SelectorLocator struct {
	Label    string
	Selector string
}

func (l SelectorLocator) Name() string { return l.Label }

func (l SelectorLocator) Locate(ctx context.Context, page Page, q ControlQuery) (Element, error) {
	els, err := DeepQuery(ctx, page, l.Selector)
	if err != nil {
		return nil, err
	}
	return nearestTo(filterElements(els, ElementInfo.Rendered), q.Heading), nil
}

func hostIs(u *url.URL, hosts ...string) bool {
	h := strings.ToLower(u.Hostname())
	for _, want := range hosts {
		if h == want || strings.HasSuffix(h, "."+want) {
			return true
		}
	}
	return false
}

// AdapterRegistry picks the adapter for a page. Adapters are tried in
// registration order; the generic adapter answers when none claims the URL.
type AdapterRegistry struct {
	adapters []ATSAdapter
	fallback ATSAdapter
}

func NewAdapterRegistry(adapters ...ATSAdapter) *AdapterRegistry {
	return &AdapterRegistry{adapters: adapters, fallback: NewGenericAdapter()}
}

// DefaultAdapterRegistry knows every built-in platform.
func DefaultAdapterRegistry() *AdapterRegistry {
	return NewAdapterRegistry(
		NewGreenhouseAdapter(),
		NewLeverAdapter(),
		NewWorkdayAdapter(),
		NewSmartRecruitersAdapter(),
	)
}

// Register appends an adapter after the existing ones.
func (r *AdapterRegistry) Register(a ATSAdapter) {
	r.adapters = append(r.adapters, a)
}

func (r *AdapterRegistry) Select(rawURL string) ATSAdapter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return r.fallback
	}
	for _, a := range r.adapters {
		if a.Detect(u) {
			return a
		}
	}
	return r.fallback
}
