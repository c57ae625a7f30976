package services

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"jobfill/config"
	"jobfill/models"
)

// SuggestionSelectors are the containers autocomplete widgets render their
// options into.
var SuggestionSelectors = []string{
	"[role='option']",
	".pac-item",
	".autocomplete-suggestion",
	".select__option",
	"[class*='suggestion']",
	"[class*='option'][id*='react-select']",
	"[data-automation-id='promptOption']",
	"li[class*='result']",
}

// CheckboxProximity is the largest vertical distance, in pixels, between a
// label and the checkbox it is assumed to describe.
const CheckboxProximity = 30.0

// FillOutcome reports what a fill routine achieved.
type FillOutcome struct {
	Filled bool
	Value  string
	// LowConfidence marks best-effort picks that may not match the target.
	LowConfidence bool
	Detail        string
}

// FillExecutor writes values into widgets with one routine per widget class.
type FillExecutor struct {
	page        Page
	sleeper     Sleeper
	cfg         config.EngineConfig
	logger      *zap.Logger
	suggestions []string
}

func NewFillExecutor(page Page, cfg config.EngineConfig, sleeper Sleeper, logger *zap.Logger) *FillExecutor {
	return &FillExecutor{
		page:        page,
		sleeper:     sleeper,
		cfg:         cfg,
		logger:      logger.Named("fill"),
		suggestions: SuggestionSelectors,
	}
}

// WithSuggestionSelectors returns a copy that checks extra suggestion
// containers before the generic ones.
func (x *FillExecutor) WithSuggestionSelectors(extra ...string) *FillExecutor {
	cp := *x
	cp.suggestions = append(append([]string(nil), extra...), x.suggestions...)
	return &cp
}

// Fill dispatches on the entry's strategy.
func (x *FillExecutor) Fill(ctx context.Context, el Element, entry models.FillPlanEntry) (FillOutcome, error) {
	if entry.TargetValue == "" {
		return FillOutcome{Detail: "empty value"}, nil
	}
	switch entry.Strategy {
	case models.StrategyDate:
		return x.FillDate(ctx, el, entry.TargetValue)
	case models.StrategyAutocomplete:
		return x.FillAutocomplete(ctx, el, entry.TargetValue)
	case models.StrategySelect:
		return x.FillSelect(ctx, el, entry.TargetValue)
	case models.StrategyCheckbox, models.StrategyRadio:
		return x.SetCheckable(ctx, el, entry.TargetValue)
	case models.StrategyFile:
		return FillOutcome{Detail: "file fields are handled by the resume upload step"}, nil
	default:
		return x.FillText(ctx, el, entry.TargetValue)
	}
}

// clear empties the field and tells listeners a backward delete happened.
func (x *FillExecutor) clear(ctx context.Context, el Element) error {
	if err := el.SetValue(ctx, "", false); err != nil {
		return err
	}
	return el.Dispatch(ctx, Event{Type: "input", InputType: "deleteContentBackward"})
}

func (x *FillExecutor) dispatchAll(ctx context.Context, el Element, events ...Event) error {
	for _, ev := range events {
		if err := el.Dispatch(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// FillText writes a text input or textarea. The browser's insertText command
// is tried first; when the browser refuses it the value property is set
// directly and input/change are dispatched with the text as payload.
func (x *FillExecutor) FillText(ctx context.Context, el Element, value string) (FillOutcome, error) {
	if err := el.ScrollIntoView(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := el.Focus(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := x.clear(ctx, el); err != nil {
		return FillOutcome{}, err
	}
	if err := el.SelectAll(ctx); err != nil {
		return FillOutcome{}, err
	}

	inserted, err := el.InsertText(ctx, value)
	if err != nil {
		return FillOutcome{}, err
	}
	path := "insert-text"
	if inserted {
		err = x.dispatchAll(ctx, el, Event{Type: "change"}, Event{Type: "blur"}, Event{Type: "focusout"})
	} else {
		path = "value-property"
		if err = el.SetValue(ctx, value, false); err == nil {
			err = x.dispatchAll(ctx, el,
				Event{Type: "input", Data: value, InputType: "insertText"},
				Event{Type: "change"})
		}
	}
	if err != nil {
		return FillOutcome{}, err
	}
	return x.verify(ctx, el, value, path)
}

func (x *FillExecutor) verify(ctx context.Context, el Element, want, path string) (FillOutcome, error) {
	got, err := el.Value(ctx)
	if err != nil {
		return FillOutcome{}, err
	}
	out := FillOutcome{Filled: got == want, Value: got, Detail: path}
	if !out.Filled {
		x.logger.Warn("value did not stick",
			zap.String("field", el.ID()), zap.String("path", path),
			zap.String("want", want), zap.String("got", got))
	}
	return out, nil
}

// FillDate writes a native date input. The source date is normalized to
// YYYY-MM-DD, assigned through the base prototype's setter, then inserted a
// second time as text for calendar widgets that rebuild on each keystroke.
func (x *FillExecutor) FillDate(ctx context.Context, el Element, source string) (FillOutcome, error) {
	iso := models.FormatISODate(source)
	if iso == "" {
		x.logger.Warn("unparseable date", zap.String("field", el.ID()), zap.String("source", source))
		return FillOutcome{Detail: "unparseable date"}, nil
	}

	if err := el.ScrollIntoView(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := el.Focus(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := el.Click(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := el.SetValue(ctx, iso, true); err != nil {
		return FillOutcome{}, err
	}
	if err := x.dispatchAll(ctx, el, Event{Type: "input", Data: iso}, Event{Type: "change"}); err != nil {
		return FillOutcome{}, err
	}

	if err := el.Focus(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := el.SelectAll(ctx); err != nil {
		return FillOutcome{}, err
	}
	if _, err := el.InsertText(ctx, iso); err != nil {
		return FillOutcome{}, err
	}
	if err := x.dispatchAll(ctx, el,
		Event{Type: "change"}, Event{Type: "blur"}, Event{Type: "focusout"},
		Event{Type: "keydown", Key: "Escape"}, Event{Type: "keyup", Key: "Escape"},
	); err != nil {
		return FillOutcome{}, err
	}
	return x.verify(ctx, el, iso, "native-date")
}

// FillAutocomplete types into a combobox and picks from its suggestions. When
// no suggestion matches, the first visible suggestion is taken and the
// outcome is flagged low confidence. With no suggestions at all the typed
// text is kept and focus is tabbed away.
func (x *FillExecutor) FillAutocomplete(ctx context.Context, el Element, value string) (FillOutcome, error) {
	if err := el.ScrollIntoView(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := el.Focus(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := el.Click(ctx); err != nil {
		return FillOutcome{}, err
	}
	if err := x.clear(ctx, el); err != nil {
		return FillOutcome{}, err
	}
	if err := x.typeText(ctx, el, value); err != nil {
		return FillOutcome{}, err
	}
	if err := x.sleeper.Sleep(ctx, x.cfg.MaxSuggestionWait); err != nil {
		return FillOutcome{}, err
	}

	suggestions, err := x.visibleSuggestions(ctx)
	if err != nil {
		return FillOutcome{}, err
	}
	if len(suggestions) == 0 {
		x.logger.Info("no suggestions, keeping typed text", zap.String("field", el.ID()), zap.String("value", value))
		if err := x.page.PressKey(ctx, "Tab"); err != nil {
			return FillOutcome{}, err
		}
		return x.verify(ctx, el, value, "typed")
	}

	texts := make([]string, len(suggestions))
	for i, s := range suggestions {
		texts[i] = s.Info().Text
	}
	idx := MatchSuggestion(value, texts)
	out := FillOutcome{Filled: true, Detail: "suggestion"}
	if idx < 0 {
		idx = 0
		out.LowConfidence = true
		x.logger.Warn("no suggestion matched, taking the first",
			zap.String("field", el.ID()), zap.String("target", value), zap.String("picked", texts[0]))
	}
	out.Value = texts[idx]
	if err := suggestions[idx].Click(ctx); err != nil {
		return FillOutcome{}, err
	}
	return out, nil
}

// typeText enters value one character at a time, pausing TypingDelay between
// characters so suggestion fetches fire the way they do for a person typing.
func (x *FillExecutor) typeText(ctx context.Context, el Element, value string) error {
	typed := ""
	for _, r := range value {
		ch := string(r)
		ok, err := el.InsertText(ctx, ch)
		if err != nil {
			return err
		}
		typed += ch
		if !ok {
			if err := el.SetValue(ctx, typed, false); err != nil {
				return err
			}
			if err := el.Dispatch(ctx, Event{Type: "input", Data: ch, InputType: "insertText"}); err != nil {
				return err
			}
		}
		if err := x.sleeper.Sleep(ctx, x.cfg.TypingDelay); err != nil {
			return err
		}
	}
	return nil
}

func (x *FillExecutor) visibleSuggestions(ctx context.Context) ([]Element, error) {
	seen := map[string]bool{}
	var out []Element
	for _, sel := range x.suggestions {
		els, err := DeepQuery(ctx, x.page, sel)
		if err != nil {
			return nil, err
		}
		for _, el := range els {
			info := el.Info()
			if seen[el.ID()] || !info.Rendered() || strings.TrimSpace(info.Text) == "" {
				continue
			}
			seen[el.ID()] = true
			out = append(out, el)
		}
	}
	SortByPosition(out)
	return out, nil
}

// MatchSuggestion returns the index of the first suggestion that contains the
// target or is contained by it, ignoring case, or -1.
func MatchSuggestion(target string, suggestions []string) int {
	t := strings.ToLower(strings.TrimSpace(target))
	if t == "" {
		return -1
	}
	for i, s := range suggestions {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if strings.Contains(s, t) || strings.Contains(t, s) {
			return i
		}
	}
	return -1
}

// FillSelect chooses an option of a native select by text or value, falling
// back to a case-insensitive match on the option text.
func (x *FillExecutor) FillSelect(ctx context.Context, el Element, value string) (FillOutcome, error) {
	if err := el.ScrollIntoView(ctx); err != nil {
		return FillOutcome{}, err
	}
	ok, err := el.SelectOption(ctx, value)
	if err != nil {
		return FillOutcome{}, err
	}
	if !ok {
		for _, opt := range el.Info().Options {
			if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(value)) {
				if ok, err = el.SelectOption(ctx, opt); err != nil {
					return FillOutcome{}, err
				}
				value = opt
				break
			}
		}
	}
	if !ok {
		x.logger.Warn("option not found", zap.String("field", el.ID()), zap.String("value", value))
		return FillOutcome{Detail: "option not found"}, nil
	}
	return FillOutcome{Filled: true, Value: value, Detail: "select"}, nil
}

// SetCheckable checks a single checkbox or radio. Values that read as a
// negative answer uncheck it instead.
func (x *FillExecutor) SetCheckable(ctx context.Context, el Element, value string) (FillOutcome, error) {
	want := !isNegative(value)
	if err := el.SetChecked(ctx, want); err != nil {
		return FillOutcome{}, err
	}
	info, err := el.Refresh(ctx)
	if err != nil {
		return FillOutcome{}, err
	}
	return FillOutcome{Filled: info.Checked == want, Value: value, Detail: "checkable"}, nil
}

func isNegative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "no", "false", "0", "off", "unchecked":
		return true
	}
	return false
}

// ChooseInGroup checks the member of a radio or checkbox group whose label
// matches value.
func (x *FillExecutor) ChooseInGroup(ctx context.Context, group CheckGroup, value string) (FillOutcome, error) {
	for _, el := range group.Elements {
		label := strings.TrimSpace(el.Info().Label)
		if label != "" && strings.EqualFold(label, strings.TrimSpace(value)) {
			if err := el.SetChecked(ctx, true); err != nil {
				return FillOutcome{}, err
			}
			return FillOutcome{Filled: true, Value: label, Detail: "group"}, nil
		}
	}
	x.logger.Warn("no group member matched", zap.String("group", group.Name), zap.String("value", value))
	return FillOutcome{Detail: "no member matched"}, nil
}

// CheckByLabel checks the checkbox described by a label containing phrase.
// The label's associated control is used when it has one; otherwise the
// checkbox nearest the label within CheckboxProximity pixels vertically.
func (x *FillExecutor) CheckByLabel(ctx context.Context, phrase string) (bool, error) {
	label, err := x.findLabel(ctx, phrase)
	if err != nil || label == nil {
		return false, err
	}
	info := label.Info()

	if info.ControlID != "" {
		control, err := x.page.Resolve(ctx, info.ControlID)
		if err != nil {
			return false, err
		}
		if control.Info().Type == "checkbox" {
			if !control.Info().Checked {
				if err := control.SetChecked(ctx, true); err != nil {
					return false, err
				}
			}
			x.logger.Info("checked box by label", zap.String("phrase", phrase))
			return true, nil
		}
	}

	boxes, err := DeepQuery(ctx, x.page, "input[type='checkbox']")
	if err != nil {
		return false, err
	}
	var best Element
	bestDist := math.Inf(1)
	for _, b := range boxes {
		d := math.Abs(b.Info().Rect.CenterY() - info.Rect.CenterY())
		if d <= CheckboxProximity && d < bestDist {
			best, bestDist = b, d
		}
	}
	if best == nil {
		x.logger.Info("no checkbox near label", zap.String("phrase", phrase))
		return false, nil
	}
	if !best.Info().Checked {
		if err := best.SetChecked(ctx, true); err != nil {
			return false, err
		}
	}
	x.logger.Info("checked box by proximity", zap.String("phrase", phrase), zap.Float64("distance", bestDist))
	return true, nil
}

// findLabel prefers <label> elements and falls back to any rendered text.
func (x *FillExecutor) findLabel(ctx context.Context, phrase string) (Element, error) {
	p := strings.ToLower(phrase)
	labels, err := DeepQuery(ctx, x.page, "label")
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		if strings.Contains(strings.ToLower(l.Info().Text), p) {
			return l, nil
		}
	}
	texts, err := x.page.TextElements(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t.Info().OwnText), p) {
			return t, nil
		}
	}
	return nil, nil
}
