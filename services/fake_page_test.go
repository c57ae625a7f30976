package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// fakePage is an in-memory Page. Elements are matched with a small selector
// engine that understands tags, [attr], [attr='v'], [attr*='v'], [attr^='v'],
// .class, #id and comma lists.
type fakePage struct {
	url      string
	elements []*fakeElement
	viewport Size
	keys     []string
	nextID   int
}

func newFakePage() *fakePage {
	return &fakePage{url: "https://example.com/apply", viewport: Size{Width: 1280, Height: 800}}
}

// add registers an element. Display defaults to block and the stamped id to
// el-N.
func (p *fakePage) add(info ElementInfo) *fakeElement {
	p.nextID++
	if info.ID == "" {
		info.ID = fmt.Sprintf("el-%d", p.nextID)
	}
	if info.Display == "" {
		info.Display = "block"
	}
	el := &fakeElement{page: p, info: info}
	p.elements = append(p.elements, el)
	return el
}

func (p *fakePage) byID(id string) *fakeElement {
	for _, el := range p.elements {
		if el.info.ID == id {
			return el
		}
	}
	return nil
}

func (p *fakePage) URL(context.Context) (string, error) { return p.url, nil }

func (p *fakePage) Query(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Element
	for _, el := range p.elements {
		if matchSelector(selector, el.info) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (p *fakePage) TextElements(ctx context.Context) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Element
	for _, el := range p.elements {
		if strings.TrimSpace(el.info.OwnText) != "" && el.info.Rendered() {
			out = append(out, el)
		}
	}
	return out, nil
}

// ElementAt returns the most recently added element whose box contains the
// point.
func (p *fakePage) ElementAt(_ context.Context, x, y float64) (Element, error) {
	for i := len(p.elements) - 1; i >= 0; i-- {
		r := p.elements[i].info.Rect
		if x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height {
			return p.elements[i], nil
		}
	}
	return nil, nil
}

func (p *fakePage) Resolve(_ context.Context, id string) (Element, error) {
	if el := p.byID(id); el != nil {
		return el, nil
	}
	return nil, fmt.Errorf("no element %s", id)
}

func (p *fakePage) Viewport(context.Context) (Size, error) { return p.viewport, nil }

func (p *fakePage) PressKey(_ context.Context, key string) error {
	p.keys = append(p.keys, key)
	return nil
}

type fakeElement struct {
	page *fakePage
	info ElementInfo

	// rejectInsert makes InsertText report that the browser refused it.
	rejectInsert bool
	// inserted records accepted insertions; each fires one native input event.
	inserted []string
	rejectFile   bool
	onClick      func()

	selected bool
	clicks   int
	events   []Event
	attached []FilePayload
	dropped  []FilePayload
}

func (e *fakeElement) ID() string        { return e.info.ID }
func (e *fakeElement) Info() ElementInfo { return e.info }

func (e *fakeElement) Refresh(context.Context) (ElementInfo, error) { return e.info, nil }
func (e *fakeElement) ScrollIntoView(context.Context) error         { return nil }
func (e *fakeElement) Focus(context.Context) error                  { return nil }

func (e *fakeElement) Click(context.Context) error {
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) SelectAll(context.Context) error {
	e.selected = true
	return nil
}

func (e *fakeElement) SetValue(_ context.Context, value string, _ bool) error {
	e.info.Value = value
	e.selected = false
	return nil
}

func (e *fakeElement) InsertText(_ context.Context, text string) (bool, error) {
	if e.rejectInsert {
		return false, nil
	}
	before := e.info.Value
	if e.selected {
		e.info.Value = text
		e.selected = false
	} else {
		e.info.Value += text
	}
	after := e.info.Value
	ok := strings.Contains(after, text) && (after != before || after == text)
	if ok {
		e.inserted = append(e.inserted, text)
	}
	return ok, nil
}

func (e *fakeElement) Dispatch(_ context.Context, ev Event) error {
	e.events = append(e.events, ev)
	return nil
}

func (e *fakeElement) SetChecked(_ context.Context, checked bool) error {
	e.info.Checked = checked
	return nil
}

func (e *fakeElement) SelectOption(_ context.Context, value string) (bool, error) {
	for _, o := range e.info.Options {
		if o == value {
			e.info.Value = value
			return true, nil
		}
	}
	return false, nil
}

func (e *fakeElement) AttachFile(_ context.Context, f FilePayload) (bool, error) {
	if e.rejectFile {
		return false, nil
	}
	e.attached = append(e.attached, f)
	return true, nil
}

func (e *fakeElement) DropFile(_ context.Context, f FilePayload) (bool, error) {
	e.dropped = append(e.dropped, f)
	return true, nil
}

func (e *fakeElement) Value(context.Context) (string, error) { return e.info.Value, nil }

func (e *fakeElement) eventTypes() []string {
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

var (
	simpleSelector = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]*)?((?:\[[^\]]+\]|\.[\w-]+|#[\w-]+)*)$`)
	selectorPart   = regexp.MustCompile(`\[([\w-]+)(?:([*^]?=)'([^']*)')?\]|\.([\w-]+)|#([\w-]+)`)
)

func matchSelector(selector string, info ElementInfo) bool {
	for _, s := range strings.Split(selector, ",") {
		if matchSimple(strings.TrimSpace(s), info) {
			return true
		}
	}
	return false
}

func matchSimple(s string, info ElementInfo) bool {
	m := simpleSelector.FindStringSubmatch(s)
	if m == nil {
		panic("fake page cannot parse selector " + s)
	}
	if m[1] != "" && !strings.EqualFold(m[1], info.Tag) {
		return false
	}
	for _, part := range selectorPart.FindAllStringSubmatch(m[2], -1) {
		switch {
		case part[1] != "":
			v := attrOf(info, part[1])
			switch part[2] {
			case "":
				if v == "" {
					return false
				}
			case "=":
				if v != part[3] {
					return false
				}
			case "*=":
				if !strings.Contains(v, part[3]) {
					return false
				}
			case "^=":
				if !strings.HasPrefix(v, part[3]) {
					return false
				}
			}
		case part[4] != "":
			found := false
			for _, c := range strings.Fields(info.Class) {
				found = found || c == part[4]
			}
			if !found {
				return false
			}
		case part[5] != "":
			if info.DOMID != part[5] {
				return false
			}
		}
	}
	return true
}

func attrOf(info ElementInfo, name string) string {
	switch name {
	case "type":
		return info.Type
	case "role":
		return info.Role
	case "class":
		return info.Class
	case "id":
		return info.DOMID
	case "name":
		return info.Name
	}
	return info.Attributes[name]
}

// recordingSleeper returns immediately and remembers every wait.
type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func (s *recordingSleeper) total() time.Duration {
	var t time.Duration
	for _, w := range s.waits {
		t += w
	}
	return t
}

func box(x, y float64) Rect {
	return Rect{X: x, Y: y, Width: 200, Height: 30}
}

func textInput(label string, x, y float64) ElementInfo {
	return ElementInfo{Tag: "input", Type: "text", Label: label, Rect: box(x, y)}
}

func textNode(tag, text string, y float64) ElementInfo {
	return ElementInfo{Tag: tag, OwnText: text, Text: text, Rect: Rect{X: 20, Y: y, Width: 300, Height: 24}}
}
