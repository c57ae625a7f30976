package services

import (
	"context"

	"go.uber.org/zap"

	"jobfill/config"
)

// SaveLabels are the texts of controls that commit a section entry.
var SaveLabels = []string{"Save", "Save & Close", "Done"}

// SectionResult describes what happened to one section entry.
type SectionResult struct {
	Section        string `json:"section"`
	Skipped        bool   `json:"skipped"`
	Reason         string `json:"reason,omitempty"`
	Locator        string `json:"locator,omitempty"`
	NewFields      int    `json:"newFields"`
	Rows           int    `json:"rows"`
	Filled         int    `json:"filled"`
	CurrentChecked bool   `json:"currentChecked"`
	Saved          bool   `json:"saved"`
}

// SectionExpander reveals a section's entry form with its "Add" control,
// finds the new fields by diffing snapshots, and fills them from a record.
type SectionExpander struct {
	page     Page
	detector *FieldDetector
	exec     *FillExecutor
	locators LocatorChain
	sleeper  Sleeper
	cfg      config.EngineConfig
	logger   *zap.Logger
}

func NewSectionExpander(page Page, detector *FieldDetector, exec *FillExecutor, locators LocatorChain,
	cfg config.EngineConfig, sleeper Sleeper, logger *zap.Logger) *SectionExpander {
	return &SectionExpander{
		page:     page,
		detector: detector,
		exec:     exec,
		locators: locators,
		sleeper:  sleeper,
		cfg:      cfg,
		logger:   logger.Named("section"),
	}
}

// Expand adds and fills one entry. Discovery misses produce a skipped result,
// not an error; errors are reserved for a failing page or a done context.
func (s *SectionExpander) Expand(ctx context.Context, schema SectionSchema, rec SectionRecord) (SectionResult, error) {
	res := SectionResult{Section: schema.Name}
	log := s.logger.With(zap.String("section", schema.Name))

	before, err := s.detector.VisibleFields(ctx)
	if err != nil {
		return res, err
	}
	beforeIDs := make(map[string]bool, len(before))
	for _, el := range before {
		beforeIDs[el.ID()] = true
	}

	heading, err := FindHeading(ctx, s.page, schema.Name, false)
	if err != nil {
		return res, err
	}
	if heading == nil {
		log.Info("heading not found, skipping section")
		return skip(res, "heading not found"), nil
	}
	log.Debug("heading found", zap.String("text", heading.Info().OwnText), zap.String("tag", heading.Info().Tag))

	control, locator, err := s.locators.Locate(ctx, s.page, ControlQuery{
		Section: schema.Name,
		Keyword: "Add",
		Heading: heading.Info(),
	}, log)
	if err != nil {
		return res, err
	}
	if control == nil {
		log.Info("no add control found, skipping section")
		return skip(res, "add control not found"), nil
	}
	res.Locator = locator
	log.Info("clicking add control", zap.String("locator", locator), zap.String("text", control.Info().OwnText))

	if err := control.Click(ctx); err != nil {
		return res, err
	}
	if err := s.sleeper.Sleep(ctx, s.cfg.SettleDelay); err != nil {
		return res, err
	}

	after, err := s.detector.Detect(ctx)
	if err != nil {
		return res, err
	}
	var fresh []DetectedField
	for _, f := range after {
		if !beforeIDs[f.Element.ID()] {
			fresh = append(fresh, f)
		}
	}
	res.NewFields = len(fresh)
	log.Info("fields revealed", zap.Int("before", len(before)), zap.Int("after", len(after)), zap.Int("new", len(fresh)))
	if len(fresh) == 0 {
		return skip(res, "no new fields"), nil
	}

	rows := GroupFieldRows(fresh)
	res.Rows = len(rows)
	for _, a := range schema.Assign(rows, rec) {
		out, err := s.exec.Fill(ctx, a.Field.Element, a.Entry)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn("slot fill failed", zap.String("slot", string(a.Slot)), zap.Error(err))
			continue
		}
		if out.Filled {
			res.Filled++
		}
		log.Debug("slot filled", zap.String("slot", string(a.Slot)), zap.Bool("ok", out.Filled), zap.String("path", out.Detail))
	}

	if rec.Current {
		checked, err := s.exec.CheckByLabel(ctx, schema.CurrentPhrase)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn("current checkbox failed", zap.Error(err))
		}
		res.CurrentChecked = checked
	}

	save, err := FindTextControl(ctx, s.page, SaveLabels, heading.Info())
	if err != nil {
		return res, err
	}
	if save == nil {
		log.Info("no save control, leaving entry open")
		return res, nil
	}
	if err := save.Click(ctx); err != nil {
		return res, err
	}
	res.Saved = true
	log.Info("entry saved", zap.Int("filled", res.Filled))
	return res, nil
}

func skip(res SectionResult, reason string) SectionResult {
	res.Skipped = true
	res.Reason = reason
	return res
}
