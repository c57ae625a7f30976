package services

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

//go:embed page_bridge.js
var pageBridgeJS string

// ScriptRuntime evaluates JavaScript in a live page. Eval must return the
// string value of the expression.
type ScriptRuntime interface {
	Eval(ctx context.Context, expression string) (string, error)
	PressKey(ctx context.Context, key string) error
}

// ScriptPage implements Page on top of any ScriptRuntime by injecting the
// page bridge and exchanging JSON with it.
type ScriptPage struct {
	rt ScriptRuntime
	// installed is set once the bridge has been sent; a navigation drops it
	// from the page and the next call puts it back.
	installed atomic.Bool
}

func NewScriptPage(rt ScriptRuntime) *ScriptPage {
	return &ScriptPage{rt: rt}
}

type bridgeReply struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error"`
	Value   json.RawMessage `json:"value"`
	Missing bool            `json:"missing"`
}

// bridgeMissingReply is what a call-only expression returns on a document
// that has no bridge yet.
const bridgeMissingReply = `{"ok":false,"missing":true}`

// BridgeError is returned when the in-page bridge reports a failure.
type BridgeError struct {
	Op      string
	Message string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("page bridge %s: %s", e.Op, e.Message)
}

// bridgeExpression builds the expression for one bridge call. With install
// the bridge source is sent along; without it the expression only calls into
// an existing bridge.
func bridgeExpression(op string, args interface{}, install bool) (string, error) {
	opJSON, err := json.Marshal(op)
	if err != nil {
		return "", err
	}
	argJSON, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	prelude := "if (!window.__autofill) { return '" + bridgeMissingReply + "'; }"
	if install {
		prelude = pageBridgeJS
	}
	return "(function(){\n" + prelude +
		"\nreturn JSON.stringify(window.__autofill.call(" + string(opJSON) + "," + string(argJSON) + "));\n})()", nil
}

func (p *ScriptPage) call(ctx context.Context, op string, args interface{}, out interface{}) error {
	reply, err := p.eval(ctx, op, args, !p.installed.Load())
	if err == nil && reply.Missing {
		reply, err = p.eval(ctx, op, args, true)
	}
	if err != nil {
		return err
	}
	p.installed.Store(true)
	if !reply.OK {
		return &BridgeError{Op: op, Message: reply.Error}
	}
	if out == nil || len(reply.Value) == 0 {
		return nil
	}
	return json.Unmarshal(reply.Value, out)
}

func (p *ScriptPage) eval(ctx context.Context, op string, args interface{}, install bool) (bridgeReply, error) {
	var reply bridgeReply
	expr, err := bridgeExpression(op, args, install)
	if err != nil {
		return reply, fmt.Errorf("encode %s: %w", op, err)
	}
	raw, err := p.rt.Eval(ctx, expr)
	if err != nil {
		return reply, fmt.Errorf("evaluate %s: %w", op, err)
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return reply, fmt.Errorf("decode %s reply: %w", op, err)
	}
	return reply, nil
}

func (p *ScriptPage) elements(infos []ElementInfo) []Element {
	out := make([]Element, 0, len(infos))
	for _, info := range infos {
		out = append(out, &scriptElement{page: p, info: info})
	}
	return out
}

func (p *ScriptPage) URL(ctx context.Context) (string, error) {
	var u string
	err := p.call(ctx, "url", nil, &u)
	return u, err
}

func (p *ScriptPage) Query(ctx context.Context, selector string) ([]Element, error) {
	var infos []ElementInfo
	if err := p.call(ctx, "query", map[string]string{"selector": selector}, &infos); err != nil {
		return nil, err
	}
	return p.elements(infos), nil
}

func (p *ScriptPage) TextElements(ctx context.Context) ([]Element, error) {
	var infos []ElementInfo
	if err := p.call(ctx, "text", nil, &infos); err != nil {
		return nil, err
	}
	return p.elements(infos), nil
}

func (p *ScriptPage) ElementAt(ctx context.Context, x, y float64) (Element, error) {
	var info *ElementInfo
	if err := p.call(ctx, "elementAt", map[string]float64{"x": x, "y": y}, &info); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return &scriptElement{page: p, info: *info}, nil
}

func (p *ScriptPage) Resolve(ctx context.Context, id string) (Element, error) {
	var info ElementInfo
	if err := p.call(ctx, "resolve", idArgs{ID: id}, &info); err != nil {
		return nil, err
	}
	return &scriptElement{page: p, info: info}, nil
}

func (p *ScriptPage) Viewport(ctx context.Context) (Size, error) {
	var s Size
	err := p.call(ctx, "viewport", nil, &s)
	return s, err
}

func (p *ScriptPage) PressKey(ctx context.Context, key string) error {
	return p.rt.PressKey(ctx, key)
}

type idArgs struct {
	ID string `json:"id"`
}

type scriptElement struct {
	page *ScriptPage
	info ElementInfo
}

func (e *scriptElement) ID() string        { return e.info.ID }
func (e *scriptElement) Info() ElementInfo { return e.info }

func (e *scriptElement) Refresh(ctx context.Context) (ElementInfo, error) {
	var info ElementInfo
	if err := e.page.call(ctx, "resolve", idArgs{ID: e.info.ID}, &info); err != nil {
		return e.info, err
	}
	e.info = info
	return info, nil
}

func (e *scriptElement) simple(ctx context.Context, op string) error {
	return e.page.call(ctx, op, idArgs{ID: e.info.ID}, nil)
}

func (e *scriptElement) ScrollIntoView(ctx context.Context) error { return e.simple(ctx, "scrollIntoView") }
func (e *scriptElement) Focus(ctx context.Context) error          { return e.simple(ctx, "focus") }
func (e *scriptElement) Click(ctx context.Context) error          { return e.simple(ctx, "click") }
func (e *scriptElement) SelectAll(ctx context.Context) error      { return e.simple(ctx, "selectAll") }

func (e *scriptElement) SetValue(ctx context.Context, value string, native bool) error {
	return e.page.call(ctx, "setValue", map[string]interface{}{
		"id": e.info.ID, "value": value, "native": native,
	}, nil)
}

func (e *scriptElement) InsertText(ctx context.Context, text string) (bool, error) {
	var ok bool
	err := e.page.call(ctx, "insertText", map[string]string{"id": e.info.ID, "text": text}, &ok)
	return ok, err
}

func (e *scriptElement) Dispatch(ctx context.Context, ev Event) error {
	return e.page.call(ctx, "dispatch", map[string]interface{}{"id": e.info.ID, "event": ev}, nil)
}

func (e *scriptElement) SetChecked(ctx context.Context, checked bool) error {
	return e.page.call(ctx, "setChecked", map[string]interface{}{"id": e.info.ID, "checked": checked}, nil)
}

func (e *scriptElement) SelectOption(ctx context.Context, value string) (bool, error) {
	var ok bool
	err := e.page.call(ctx, "selectOption", map[string]string{"id": e.info.ID, "value": value}, &ok)
	return ok, err
}

func (e *scriptElement) filePayload(f FilePayload) map[string]string {
	return map[string]string{
		"id":   e.info.ID,
		"name": f.Name,
		"mime": f.MimeType,
		"data": base64.StdEncoding.EncodeToString(f.Data),
	}
}

func (e *scriptElement) AttachFile(ctx context.Context, f FilePayload) (bool, error) {
	var ok bool
	err := e.page.call(ctx, "attachFile", e.filePayload(f), &ok)
	return ok, err
}

func (e *scriptElement) DropFile(ctx context.Context, f FilePayload) (bool, error) {
	var ok bool
	err := e.page.call(ctx, "dropFile", e.filePayload(f), &ok)
	return ok, err
}

func (e *scriptElement) Value(ctx context.Context) (string, error) {
	var v string
	err := e.page.call(ctx, "value", idArgs{ID: e.info.ID}, &v)
	return v, err
}
