package services

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ControlQuery describes the control a locator should find: a short verb
// such as "Add" or "Save" acting on a named section whose heading is known.
type ControlQuery struct {
	Section string
	Keyword string
	Heading ElementInfo
}

// ControlLocator is one strategy for finding a section control. Locate
// returns nil, nil when the strategy finds nothing.
type ControlLocator interface {
	Name() string
	Locate(ctx context.Context, page Page, q ControlQuery) (Element, error)
}

// LocatorChain tries locators in order and returns the first hit along with
// the name of the strategy that produced it.
type LocatorChain []ControlLocator

func (c LocatorChain) Locate(ctx context.Context, page Page, q ControlQuery, logger *zap.Logger) (Element, string, error) {
	for _, loc := range c {
		el, err := loc.Locate(ctx, page, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			logger.Debug("locator failed", zap.String("locator", loc.Name()), zap.Error(err))
			continue
		}
		if el != nil {
			return el, loc.Name(), nil
		}
	}
	return nil, "", nil
}

// DefaultLocators is the generic chain: accessible role, then text
// proximity, then the fixed-offset probe.
func DefaultLocators() LocatorChain {
	return LocatorChain{
		RoleLocator{},
		TextProximityLocator{MaxLen: 20},
		OffsetProbeLocator{Offsets: []float64{40, 60, 80, 100, 120}},
	}
}

// RoleLocator finds buttons whose accessible name starts with the keyword
// and mentions the section.
type RoleLocator struct{}

func (RoleLocator) Name() string { return "role" }

func (RoleLocator) Locate(ctx context.Context, page Page, q ControlQuery) (Element, error) {
	els, err := DeepQuery(ctx, page, "button, [role='button']")
	if err != nil {
		return nil, err
	}
	kw := strings.ToLower(q.Keyword)
	section := strings.ToLower(q.Section)
	var matches []Element
	for _, el := range els {
		info := el.Info()
		if !info.Rendered() {
			continue
		}
		name := strings.ToLower(firstNonEmpty(info.AriaLabel, info.Text))
		if strings.HasPrefix(name, kw) && strings.Contains(name, section) {
			matches = append(matches, el)
		}
	}
	return nearestTo(matches, q.Heading), nil
}

// TextProximityLocator picks the rendered element whose own text is, or
// starts with, the keyword and is shorter than MaxLen, closest vertically to
// the heading.
type TextProximityLocator struct {
	MaxLen int
}

func (TextProximityLocator) Name() string { return "text-proximity" }

func (l TextProximityLocator) Locate(ctx context.Context, page Page, q ControlQuery) (Element, error) {
	els, err := page.TextElements(ctx)
	if err != nil {
		return nil, err
	}
	var matches []Element
	for _, el := range els {
		info := el.Info()
		text := strings.TrimSpace(info.OwnText)
		if !info.Rendered() || len(text) >= l.MaxLen {
			continue
		}
		if text == q.Keyword || strings.HasPrefix(text, q.Keyword) {
			matches = append(matches, el)
		}
	}
	return nearestTo(matches, q.Heading), nil
}

// OffsetProbeLocator hit-tests fixed offsets from the viewport's right edge
// on the heading's line. It finds icon-only controls with no text.
type OffsetProbeLocator struct {
	Offsets []float64
}

func (OffsetProbeLocator) Name() string { return "offset-probe" }

func (l OffsetProbeLocator) Locate(ctx context.Context, page Page, q ControlQuery) (Element, error) {
	if q.Heading.ID == "" {
		return nil, nil
	}
	vp, err := page.Viewport(ctx)
	if err != nil {
		return nil, err
	}
	y := q.Heading.Rect.CenterY()
	for _, off := range l.Offsets {
		el, err := page.ElementAt(ctx, vp.Width-off, y)
		if err != nil {
			return nil, err
		}
		if el != nil && el.ID() != q.Heading.ID && looksClickable(el.Info()) {
			return el, nil
		}
	}
	return nil, nil
}

func looksClickable(info ElementInfo) bool {
	switch info.Tag {
	case "button", "a":
		return true
	case "input":
		return info.Type == "button" || info.Type == "submit"
	}
	if info.Role == "button" || info.Attributes["onclick"] != "" || info.Attributes["tabindex"] == "0" {
		return true
	}
	class := strings.ToLower(info.Class)
	for _, hint := range []string{"add", "plus", "btn", "button", "icon"} {
		if strings.Contains(class, hint) {
			return true
		}
	}
	return false
}

// nearestTo returns the element closest vertically to the anchor, or the first
// element when there is no anchor.
func nearestTo(els []Element, anchor ElementInfo) Element {
	if len(els) == 0 {
		return nil
	}
	if anchor.ID == "" {
		return els[0]
	}
	best := els[0]
	bestDist := math.Inf(1)
	for _, el := range els {
		d := math.Abs(el.Info().Rect.CenterY() - anchor.Rect.CenterY())
		if d < bestDist {
			best, bestDist = el, d
		}
	}
	return best
}

var titleCaser = cases.Title(language.English)

// SectionTitle capitalizes a section name the way headings print it.
func SectionTitle(section string) string {
	return titleCaser.String(section)
}

// FindHeading searches rendered text for the section's capitalized name.
// Real heading tags win over other text; among equals the first match wins,
// or the last when preferLast is set. A case-insensitive pass runs when the
// capitalized form is absent, for headings printed in upper case.
func FindHeading(ctx context.Context, page Page, section string, preferLast bool) (Element, error) {
	els, err := page.TextElements(ctx)
	if err != nil {
		return nil, err
	}
	title := SectionTitle(section)
	matches := filterElements(els, func(info ElementInfo) bool {
		return info.Rendered() && strings.Contains(info.OwnText, title)
	})
	if len(matches) == 0 {
		lower := strings.ToLower(section)
		matches = filterElements(els, func(info ElementInfo) bool {
			return info.Rendered() && strings.Contains(strings.ToLower(info.OwnText), lower)
		})
	}
	if len(matches) == 0 {
		return nil, nil
	}

	headings := filterElements(matches, ElementInfo.IsHeading)
	if len(headings) > 0 {
		matches = headings
	}
	if preferLast {
		return matches[len(matches)-1], nil
	}
	return matches[0], nil
}

// FindTextControl returns the rendered, clickable-looking element whose own
// text equals one of labels (case-insensitive), nearest to anchor.
func FindTextControl(ctx context.Context, page Page, labels []string, anchor ElementInfo) (Element, error) {
	els, err := page.TextElements(ctx)
	if err != nil {
		return nil, err
	}
	matches := filterElements(els, func(info ElementInfo) bool {
		if !info.Rendered() {
			return false
		}
		for _, l := range labels {
			if strings.EqualFold(strings.TrimSpace(info.OwnText), l) {
				return true
			}
		}
		return false
	})
	return nearestTo(matches, anchor), nil
}
