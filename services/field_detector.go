package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jobfill/models"
)

const fieldSelector = "input, textarea, select"

// Input types found by the specialized checkable and file passes, or never fillable.
var excludedInputTypes = map[string]bool{
	"hidden":   true,
	"file":     true,
	"checkbox": true,
	"radio":    true,
	"submit":   true,
	"button":   true,
	"reset":    true,
	"image":    true,
}

// DetectedField pairs a live element with its descriptor.
type DetectedField struct {
	Element    Element
	Descriptor models.FieldDescriptor
}

// CheckGroup is a set of checkboxes or radios that answer one question.
type CheckGroup struct {
	Name       string
	Elements   []Element
	Descriptor models.FieldDescriptor
}

// FieldDetector enumerates the fillable controls currently on the page.
type FieldDetector struct {
	page   Page
	logger *zap.Logger
}

func NewFieldDetector(page Page, logger *zap.Logger) *FieldDetector {
	return &FieldDetector{page: page, logger: logger.Named("detector")}
}

// VisibleFields returns visible text-like inputs, textareas and selects in no
// particular order.
func (d *FieldDetector) VisibleFields(ctx context.Context) ([]Element, error) {
	els, err := DeepQuery(ctx, d.page, fieldSelector)
	if err != nil {
		return nil, err
	}
	return filterElements(els, func(info ElementInfo) bool {
		if info.Tag == "input" && excludedInputTypes[info.Type] {
			return false
		}
		return info.Visible()
	}), nil
}

// Detect is VisibleFields with descriptors attached.
func (d *FieldDetector) Detect(ctx context.Context) ([]DetectedField, error) {
	els, err := d.VisibleFields(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DetectedField, 0, len(els))
	for _, el := range els {
		out = append(out, DetectedField{Element: el, Descriptor: Describe(el.Info())})
	}
	d.logger.Debug("detected fields", zap.Int("count", len(out)))
	return out, nil
}

// DetectCheckables groups checkbox and radio inputs by name. Options are the
// labels of the members.
func (d *FieldDetector) DetectCheckables(ctx context.Context) ([]CheckGroup, error) {
	els, err := DeepQuery(ctx, d.page, "input[type='checkbox'], input[type='radio']")
	if err != nil {
		return nil, err
	}
	var groups []CheckGroup
	index := map[string]int{}
	for _, el := range els {
		info := el.Info()
		if info.Display == "none" {
			continue
		}
		key := info.Name
		if key == "" {
			key = info.ID
		}
		i, ok := index[key]
		if !ok {
			ft := models.FieldCheckbox
			if info.Type == "radio" {
				ft = models.FieldRadio
			}
			groups = append(groups, CheckGroup{
				Name: key,
				Descriptor: models.FieldDescriptor{
					Label:      groupLabel(info),
					FieldType:  ft,
					Attributes: map[string]string{"name": info.Name, "type": info.Type},
				},
			})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Elements = append(groups[i].Elements, el)
		if opt := strings.TrimSpace(info.Label); opt != "" {
			groups[i].Descriptor.Options = append(groups[i].Descriptor.Options, opt)
		}
	}
	return groups, nil
}

// groupLabel prefers the fieldset legend or group name over the member's own label.
func groupLabel(info ElementInfo) string {
	if info.GroupLabel != "" {
		return info.GroupLabel
	}
	if info.AriaLabel != "" {
		return info.AriaLabel
	}
	return info.Label
}

// FileInputs returns every native file input, visible or not.
func (d *FieldDetector) FileInputs(ctx context.Context) ([]Element, error) {
	return DeepQuery(ctx, d.page, "input[type='file']")
}

// Describe converts a snapshot into a field descriptor.
func Describe(info ElementInfo) models.FieldDescriptor {
	attrs := make(map[string]string, len(info.Attributes)+3)
	for k, v := range info.Attributes {
		attrs[k] = v
	}
	if info.Type != "" {
		attrs["type"] = info.Type
	}
	if info.Name != "" {
		attrs["name"] = info.Name
	}
	if info.DOMID != "" {
		attrs["id"] = info.DOMID
	}
	if info.Role != "" {
		attrs["role"] = info.Role
	}

	fd := models.FieldDescriptor{
		Label:       firstNonEmpty(info.Label, info.AriaLabel),
		Placeholder: info.Placeholder,
		Attributes:  attrs,
		FieldType:   models.FieldText,
	}
	switch {
	case info.Tag == "textarea":
		fd.FieldType = models.FieldTextarea
	case info.Tag == "select":
		fd.FieldType = models.FieldSelect
		fd.Options = append([]string(nil), info.Options...)
	case info.Type == "file":
		fd.FieldType = models.FieldFile
	case info.Role == "combobox" || attrs["aria-autocomplete"] != "" || attrs["aria-haspopup"] == "listbox":
		fd.FieldType = models.FieldCustomDropdown
	}
	return fd
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
