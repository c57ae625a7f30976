package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobfill/config"
	"jobfill/models"
)

// Step names used in a FillReport.
const (
	StepClassify   = "classify"
	StepExperience = "experience"
	StepEducation  = "education"
	StepMessage    = "message"
	StepResume     = "resume"
)

// Step statuses.
const (
	StepDone    = "done"
	StepSkipped = "skipped"
	StepFailed  = "failed"
)

// JobContext describes the posting being applied to.
type JobContext struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Employer    string `json:"employer,omitempty"`
}

// StepReport records what one step did.
type StepReport struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Count  int    `json:"count"`
}

// FillReport summarizes a fill session.
type FillReport struct {
	SessionID     string          `json:"sessionId"`
	Adapter       string          `json:"adapter"`
	Steps         []StepReport    `json:"steps"`
	Classified    int             `json:"classified"`
	Filled        int             `json:"filled"`
	LowConfidence int             `json:"lowConfidence"`
	Sections      []SectionResult `json:"sections"`
	Upload        UploadOutcome   `json:"upload"`
	Screenshot    string          `json:"screenshot,omitempty"`
}

func (r *FillReport) step(name, status, detail string, count int) {
	r.Steps = append(r.Steps, StepReport{Name: name, Status: status, Detail: detail, Count: count})
}

// Orchestrator runs the fill flow against one page: classify and fill the
// visible fields, expand experience, expand education, write the cover
// message, upload the resume. A step that cannot complete is recorded and
// skipped; only a done context stops the flow.
type Orchestrator struct {
	page       Page
	classifier Classifier
	resumes    ResumeSource
	registry   *AdapterRegistry
	cfg        config.EngineConfig
	sleeper    Sleeper
	logger     *zap.Logger
}

func NewOrchestrator(page Page, classifier Classifier, resumes ResumeSource, registry *AdapterRegistry,
	cfg config.EngineConfig, sleeper Sleeper, logger *zap.Logger) *Orchestrator {
	if registry == nil {
		registry = DefaultAdapterRegistry()
	}
	if sleeper == nil {
		sleeper = RealSleeper
	}
	return &Orchestrator{
		page:       page,
		classifier: classifier,
		resumes:    resumes,
		registry:   registry,
		cfg:        cfg,
		sleeper:    sleeper,
		logger:     logger.Named("orchestrator"),
	}
}

func (o *Orchestrator) Run(ctx context.Context, profile *models.CandidateProfile, job JobContext) (*FillReport, error) {
	if profile == nil {
		return nil, &RequestError{Message: "profile is required"}
	}
	if job.URL == "" {
		if u, err := o.page.URL(ctx); err == nil {
			job.URL = u
		}
	}

	report := &FillReport{SessionID: uuid.NewString()}
	adapter := o.registry.Select(job.URL)
	report.Adapter = adapter.Name()
	log := o.logger.With(zap.String("session", report.SessionID), zap.String("adapter", adapter.Name()))
	log.Info("fill session started", zap.String("url", job.URL))

	detector := NewFieldDetector(o.page, log)
	exec := NewFillExecutor(o.page, o.cfg, o.sleeper, log)
	tk := Toolkit{Page: o.page, Detector: detector, Exec: exec, Logger: log}

	if err := o.classifyAndFill(ctx, tk, adapter, job, report, log); err != nil {
		return report, err
	}

	expander := NewSectionExpander(o.page, detector, exec, adapter.Locators(), o.cfg, o.sleeper, log)
	var experience, education []SectionRecord
	for _, e := range profile.RecentExperience(o.sectionEntries()) {
		experience = append(experience, ExperienceRecord(e))
	}
	for _, e := range profile.SortedEducation() {
		if len(education) == o.sectionEntries() {
			break
		}
		education = append(education, EducationRecord(e))
	}
	if err := o.expandSections(ctx, expander, ExperienceSchema, experience, StepExperience, report, log); err != nil {
		return report, err
	}
	if err := o.expandSections(ctx, expander, EducationSchema, education, StepEducation, report, log); err != nil {
		return report, err
	}

	if err := o.writeMessage(ctx, exec, profile, job, report, log); err != nil {
		return report, err
	}

	file, reason := exec.FetchResume(ctx, o.resumes, profile.ResumeURL)
	if file == nil {
		report.Upload = UploadOutcome{Reason: reason}
		report.step(StepResume, StepSkipped, reason, 0)
	} else {
		report.Upload = adapter.HandleFileUpload(ctx, tk, *file)
		status := StepDone
		if !report.Upload.Attached {
			status = StepFailed
		}
		report.step(StepResume, status, firstNonEmpty(report.Upload.Method, report.Upload.Reason), 0)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	log.Info("fill session finished",
		zap.Int("classified", report.Classified), zap.Int("filled", report.Filled),
		zap.Int("lowConfidence", report.LowConfidence), zap.Bool("resumeAttached", report.Upload.Attached))
	return report, nil
}

func (o *Orchestrator) sectionEntries() int {
	if o.cfg.SectionEntries < 1 {
		return 1
	}
	return o.cfg.SectionEntries
}

// fillTarget is one classifiable control: a single field or a checkable group.
type fillTarget struct {
	descriptor models.FieldDescriptor
	field      *DetectedField
	group      *CheckGroup
}

func (o *Orchestrator) collectTargets(ctx context.Context, tk Toolkit, adapter ATSAdapter) ([]fillTarget, error) {
	fields, err := adapter.DetectFields(ctx, tk)
	if err != nil {
		return nil, err
	}
	groups, err := tk.Detector.DetectCheckables(ctx)
	if err != nil {
		return nil, err
	}
	// The message textarea belongs to the cover-message step.
	area, _, err := o.messageArea(ctx)
	if err != nil {
		return nil, err
	}
	if area != nil {
		kept := fields[:0]
		for _, f := range fields {
			if f.Element.ID() != area.ID() {
				kept = append(kept, f)
			}
		}
		fields = kept
	}
	sort.SliceStable(fields, func(i, j int) bool {
		a, b := fields[i].Element.Info().Rect, fields[j].Element.Info().Rect
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	targets := make([]fillTarget, 0, len(fields)+len(groups))
	for i := range fields {
		targets = append(targets, fillTarget{descriptor: fields[i].Descriptor, field: &fields[i]})
	}
	for i := range groups {
		targets = append(targets, fillTarget{descriptor: groups[i].Descriptor, group: &groups[i]})
	}
	return targets, nil
}

func (o *Orchestrator) classifyAndFill(ctx context.Context, tk Toolkit, adapter ATSAdapter, job JobContext, report *FillReport, log *zap.Logger) error {
	if o.classifier == nil {
		report.step(StepClassify, StepSkipped, "no classifier", 0)
		return nil
	}
	targets, err := o.collectTargets(ctx, tk, adapter)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("field detection failed", zap.Error(err))
		report.step(StepClassify, StepFailed, err.Error(), 0)
		return nil
	}
	if len(targets) == 0 {
		report.step(StepClassify, StepSkipped, "no fields", 0)
		return nil
	}

	filled := 0
	var failures []string
	for start := 0; start < len(targets); start += models.MaxClassificationFields {
		end := start + models.MaxClassificationFields
		if end > len(targets) {
			end = len(targets)
		}
		batch := targets[start:end]
		descs := make([]models.FieldDescriptor, len(batch))
		for i, t := range batch {
			descs[i] = t.descriptor
		}

		outcome, err := o.classifier.Classify(ctx, models.ClassificationRequest{
			Fields:         descs,
			JobTitle:       job.Title,
			JobDescription: job.Description,
			EmployerName:   job.Employer,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("classification rejected", zap.Int("batch", start), zap.Error(err))
			failures = append(failures, err.Error())
			continue
		}

		var classified []models.ClassifiedField
		switch out := outcome.(type) {
		case ClassificationOK:
			classified = out.Fields
		case ClassificationParseFailure:
			log.Warn("classifier output unparseable, using local answers", zap.Error(out.Err))
			classified = out.Fallback
			failures = append(failures, "parse failure")
		case ClassificationUpstreamFailure:
			log.Error("classifier upstream failure",
				zap.String("provider", out.Provider), zap.Int("status", out.Status), zap.String("body", out.Body))
			failures = append(failures, fmt.Sprintf("upstream status %d", out.Status))
			continue
		default:
			return fmt.Errorf("unhandled classification outcome %T", outcome)
		}

		plan := models.BuildFillPlan(descs, classified)
		report.Classified += len(plan)
		for _, entry := range plan {
			ok, low, err := o.fillTarget(ctx, tk, adapter, batch[entry.Index], entry)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("fill failed", zap.String("field", entry.Field.Label), zap.Error(err))
				continue
			}
			if ok {
				filled++
			}
			if low {
				report.LowConfidence++
			}
		}
	}
	report.Filled += filled

	status := StepDone
	if len(failures) > 0 && filled == 0 {
		status = StepFailed
	}
	report.step(StepClassify, status, strings.Join(failures, "; "), filled)
	log.Info("classified fields filled", zap.Int("targets", len(targets)), zap.Int("filled", filled))
	return nil
}

func (o *Orchestrator) fillTarget(ctx context.Context, tk Toolkit, adapter ATSAdapter, t fillTarget, entry models.FillPlanEntry) (bool, bool, error) {
	if t.group != nil {
		var out FillOutcome
		var err error
		if len(t.group.Elements) == 1 && t.group.Descriptor.FieldType == models.FieldCheckbox {
			out, err = tk.Exec.SetCheckable(ctx, t.group.Elements[0], entry.TargetValue)
		} else {
			out, err = tk.Exec.ChooseInGroup(ctx, *t.group, entry.TargetValue)
		}
		return out.Filled, out.LowConfidence, err
	}
	out, err := adapter.FillField(ctx, tk, *t.field, entry)
	return out.Filled, out.LowConfidence, err
}

func (o *Orchestrator) expandSections(ctx context.Context, expander *SectionExpander, schema SectionSchema,
	records []SectionRecord, step string, report *FillReport, log *zap.Logger) error {
	if len(records) == 0 {
		report.step(step, StepSkipped, "no entries in profile", 0)
		return o.sleeper.Sleep(ctx, o.cfg.SettleDelay)
	}
	added := 0
	detail := ""
	for _, rec := range records {
		res, err := expander.Expand(ctx, schema, rec)
		report.Sections = append(report.Sections, res)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("section expansion failed", zap.String("section", schema.Name), zap.Error(err))
			detail = err.Error()
			break
		}
		if res.Skipped {
			detail = res.Reason
			break
		}
		added++
		report.Filled += res.Filled
		if err := o.sleeper.Sleep(ctx, o.cfg.SettleDelay); err != nil {
			return err
		}
	}
	status := StepDone
	if added == 0 {
		status = StepSkipped
	}
	report.step(step, status, detail, added)
	if added == 0 {
		// Every step ends with a settle, expanded or not.
		return o.sleeper.Sleep(ctx, o.cfg.SettleDelay)
	}
	return nil
}

// messageArea finds the rendered textarea nearest the last "Message" heading.
// When there is none it returns the reason; err is only a done context.
func (o *Orchestrator) messageArea(ctx context.Context) (Element, string, error) {
	heading, err := FindHeading(ctx, o.page, "message", true)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, err.Error(), nil
	}
	if heading == nil {
		return nil, "no message heading", nil
	}
	areas, err := DeepQuery(ctx, o.page, "textarea")
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, err.Error(), nil
	}
	area := nearestTo(filterElements(areas, ElementInfo.Rendered), heading.Info())
	if area == nil {
		return nil, "no textarea near heading", nil
	}
	return area, "", nil
}

// writeMessage fills the textarea nearest the last "Message" heading with a
// short first-person note. A textarea that already holds text is left alone.
func (o *Orchestrator) writeMessage(ctx context.Context, exec *FillExecutor, profile *models.CandidateProfile,
	job JobContext, report *FillReport, log *zap.Logger) error {
	skipped := func(reason string) error {
		log.Info("cover message skipped", zap.String("reason", reason))
		report.step(StepMessage, StepSkipped, reason, 0)
		return nil
	}

	area, reason, err := o.messageArea(ctx)
	if err != nil {
		return err
	}
	if area == nil {
		return skipped(reason)
	}
	if strings.TrimSpace(area.Info().Value) != "" {
		return skipped("textarea already filled")
	}

	out, err := exec.FillText(ctx, area, CoverMessage(profile, job))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.step(StepMessage, StepFailed, err.Error(), 0)
		return nil
	}
	if !out.Filled {
		report.step(StepMessage, StepFailed, "value did not stick", 0)
		return nil
	}
	report.Filled++
	report.step(StepMessage, StepDone, out.Detail, 1)
	return nil
}

// CoverMessage is a short first-person note to the employer.
func CoverMessage(profile *models.CandidateProfile, job JobContext) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	if name := profile.Name(); name != "" {
		fmt.Fprintf(&b, "My name is %s. ", name)
	}
	switch {
	case job.Title != "" && job.Employer != "":
		fmt.Fprintf(&b, "I am excited to apply for the %s position at %s.", job.Title, job.Employer)
	case job.Title != "":
		fmt.Fprintf(&b, "I am excited to apply for the %s position.", job.Title)
	case job.Employer != "":
		fmt.Fprintf(&b, "I am excited to apply for this position at %s.", job.Employer)
	default:
		b.WriteString("I am excited to apply for this position.")
	}
	if profile.CurrentJobTitle != "" {
		fmt.Fprintf(&b, " I currently work as a %s", profile.CurrentJobTitle)
		if profile.CurrentCompany != "" {
			fmt.Fprintf(&b, " at %s", profile.CurrentCompany)
		}
		b.WriteString(".")
	}
	b.WriteString(" My resume is attached, and I would welcome the chance to discuss how I can contribute to the team.\n\nThank you for your consideration.")
	if name := profile.Name(); name != "" {
		fmt.Fprintf(&b, "\n%s", name)
	}
	return b.String()
}
