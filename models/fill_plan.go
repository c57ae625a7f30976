package models

import "strings"

// FillStrategy selects the widget routine used to write a value.
type FillStrategy string

const (
	StrategyText         FillStrategy = "text"
	StrategyDate         FillStrategy = "date"
	StrategyAutocomplete FillStrategy = "autocomplete"
	StrategySelect       FillStrategy = "select"
	StrategyCheckbox     FillStrategy = "checkbox"
	StrategyRadio        FillStrategy = "radio"
	StrategyFile         FillStrategy = "file"
)

// FillPlanEntry binds one discovered field to the value that should be written.
type FillPlanEntry struct {
	Index       int             `json:"index"`
	Field       FieldDescriptor `json:"field"`
	TargetValue string          `json:"targetValue"`
	Strategy    FillStrategy    `json:"strategy"`
	Confidence  float64         `json:"confidence"`
	Factual     bool            `json:"factual"`
}

// StrategyFor picks the fill routine from the field's type and attributes.
func StrategyFor(f FieldDescriptor) FillStrategy {
	switch f.FieldType {
	case FieldFile:
		return StrategyFile
	case FieldCheckbox:
		return StrategyCheckbox
	case FieldRadio:
		return StrategyRadio
	case FieldSelect:
		return StrategySelect
	case FieldCustomDropdown:
		return StrategyAutocomplete
	}
	if strings.EqualFold(f.Attr("type"), "date") {
		return StrategyDate
	}
	if strings.EqualFold(f.Attr("role"), "combobox") || f.Attr("aria-autocomplete") != "" {
		return StrategyAutocomplete
	}
	return StrategyText
}

// NewSlotEntry builds a plan entry for a known schema slot. Schema slots are
// factual, so the entry exists even when the value is blank; callers decide
// whether a blank factual slot is written.
func NewSlotEntry(index int, f FieldDescriptor, value string, strategy FillStrategy) FillPlanEntry {
	return FillPlanEntry{
		Index:       index,
		Field:       f,
		TargetValue: value,
		Strategy:    strategy,
		Confidence:  1,
		Factual:     true,
	}
}

// BuildFillPlan merges classifier output onto the batch it answered. Entries
// with an empty value or zero confidence are left out, as are indices that do
// not refer to a field in the batch.
func BuildFillPlan(fields []FieldDescriptor, classified []ClassifiedField) []FillPlanEntry {
	plan := make([]FillPlanEntry, 0, len(classified))
	seen := make(map[int]bool, len(classified))
	for _, c := range classified {
		if c.Index < 0 || c.Index >= len(fields) || seen[c.Index] {
			continue
		}
		seen[c.Index] = true
		if c.Value == "" || c.Confidence <= 0 {
			continue
		}
		f := fields[c.Index]
		plan = append(plan, FillPlanEntry{
			Index:       c.Index,
			Field:       f,
			TargetValue: c.Value,
			Strategy:    StrategyFor(f),
			Confidence:  c.Confidence,
		})
	}
	return plan
}
