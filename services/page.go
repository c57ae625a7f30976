package services

import (
	"context"
	"strings"
)

// Rect is an element's bounding box in document coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterY is the vertical midpoint of the box.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Size is the viewport size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementInfo is a point-in-time snapshot of a DOM element taken by the page
// bridge. ID is the stable identity stamped on the element.
type ElementInfo struct {
	ID          string            `json:"id"`
	Tag         string            `json:"tag"`
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	DOMID       string            `json:"domId"`
	Label       string            `json:"label"`
	Placeholder string            `json:"placeholder"`
	AriaLabel   string            `json:"ariaLabel"`
	Role        string            `json:"role"`
	Class       string            `json:"class"`
	OwnText     string            `json:"ownText"`
	Text        string            `json:"text"`
	Rect        Rect              `json:"rect"`
	Display     string            `json:"display"`
	Checked     bool              `json:"checked"`
	Value       string            `json:"value"`
	Options     []string          `json:"options"`
	Attributes  map[string]string `json:"attributes"`
	ControlID   string            `json:"controlId"`
	GroupLabel  string            `json:"groupLabel"`
}

// Visible applies the fillable-field visibility rule: wider than 30px,
// taller than 10px and not display:none.
func (i ElementInfo) Visible() bool {
	return i.Rect.Width > 30 && i.Rect.Height > 10 && i.Display != "none"
}

// Rendered is the looser rule used for text and buttons: any painted box.
func (i ElementInfo) Rendered() bool {
	return i.Rect.Width > 0 && i.Rect.Height > 0 && i.Display != "none"
}

// IsHeading reports whether the element is an h1-h6.
func (i ElementInfo) IsHeading() bool {
	t := strings.ToLower(i.Tag)
	return len(t) == 2 && t[0] == 'h' && t[1] >= '1' && t[1] <= '6'
}

// Event is a synthetic DOM event dispatched by the bridge.
type Event struct {
	Type      string `json:"type"`
	Data      string `json:"data,omitempty"`
	InputType string `json:"inputType,omitempty"`
	Key       string `json:"key,omitempty"`
}

// FilePayload is a file handed to the page for upload.
type FilePayload struct {
	Name     string
	MimeType string
	Data     []byte
}

// Element is a handle on one stamped DOM element.
type Element interface {
	ID() string
	Info() ElementInfo
	Refresh(ctx context.Context) (ElementInfo, error)
	ScrollIntoView(ctx context.Context) error
	Focus(ctx context.Context) error
	Click(ctx context.Context) error
	SelectAll(ctx context.Context) error
	// SetValue assigns the value property. With native set, the setter of
	// the element's base prototype is used instead of any own override.
	SetValue(ctx context.Context, value string, native bool) error
	// InsertText runs the browser's insertText editing command at the caret
	// and reports whether the browser accepted it: the value now contains text
	// and either changed or equals text.
	InsertText(ctx context.Context, text string) (bool, error)
	Dispatch(ctx context.Context, ev Event) error
	SetChecked(ctx context.Context, checked bool) error
	SelectOption(ctx context.Context, value string) (bool, error)
	AttachFile(ctx context.Context, f FilePayload) (bool, error)
	DropFile(ctx context.Context, f FilePayload) (bool, error)
	Value(ctx context.Context) (string, error)
}

// Page is the engine's view of a live document.
type Page interface {
	URL(ctx context.Context) (string, error)
	// Query matches selector in the document and inside every open shadow
	// root, recursively.
	Query(ctx context.Context, selector string) ([]Element, error)
	// TextElements returns every rendered element that has direct text.
	TextElements(ctx context.Context) ([]Element, error)
	ElementAt(ctx context.Context, x, y float64) (Element, error)
	Resolve(ctx context.Context, id string) (Element, error)
	Viewport(ctx context.Context) (Size, error)
	PressKey(ctx context.Context, key string) error
}
