package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"jobfill/models"
)

// classificationSchema is the shape the model must answer with. Unknown
// members are tolerated; nulls are accepted where models tend to emit them.
const classificationSchema = `{
  "type": "object",
  "required": ["fields"],
  "properties": {
    "fields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["index"],
        "properties": {
          "index": {"type": "integer"},
          "identifier": {"type": ["string", "null"]},
          "profileKey": {"type": ["string", "null"]},
          "value": {"type": ["string", "number", "boolean", "null"]},
          "confidence": {"type": ["number", "null"]},
          "isQuestion": {"type": ["boolean", "null"]}
        }
      }
    }
  }
}`

var (
	responseSchema     *gojsonschema.Schema
	responseSchemaErr  error
	responseSchemaOnce sync.Once
)

func classificationResponseSchema() (*gojsonschema.Schema, error) {
	responseSchemaOnce.Do(func() {
		responseSchema, responseSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(classificationSchema))
	})
	return responseSchema, responseSchemaErr
}

// ResumeTextSource yields the text of a candidate's resume.
type ResumeTextSource interface {
	Extract(ctx context.Context, rawURL string) (string, error)
}

// FieldClassifier maps field descriptors to profile values and question
// answers. Deterministic answers come from local heuristics; the rest are
// asked of the model in one request.
type FieldClassifier struct {
	llm      LLMClient
	resumes  ResumeTextSource
	validate *validator.Validate
	logger   *zap.Logger
}

func NewFieldClassifier(llm LLMClient, resumes ResumeTextSource, logger *zap.Logger) *FieldClassifier {
	return &FieldClassifier{
		llm:      llm,
		resumes:  resumes,
		validate: NewRequestValidator(),
		logger:   logger.Named("classifier"),
	}
}

// NewRequestValidator returns a validator that knows the fieldtype tag.
func NewRequestValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
		return models.FieldType(fl.Field().String()).Valid()
	})
	return v
}

// ValidateRequest rejects empty or malformed batches.
func ValidateRequest(v *validator.Validate, req models.ClassificationRequest) error {
	if len(req.Fields) == 0 {
		return ErrEmptyFieldBatch
	}
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &RequestError{Message: fmt.Sprintf("field %s failed %q", verrs[0].Namespace(), verrs[0].Tag()), Cause: err}
		}
		return &RequestError{Message: "invalid request", Cause: err}
	}
	return nil
}

// Classify answers up to MaxClassificationFields fields. The returned error
// is reserved for caller mistakes and a done context; everything that goes
// wrong upstream is reported through the outcome.
func (c *FieldClassifier) Classify(ctx context.Context, profile *models.CandidateProfile, req models.ClassificationRequest) (ClassificationOutcome, error) {
	if err := ValidateRequest(c.validate, req); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &RequestError{Message: "profile is required"}
	}

	fields := req.Fields
	if len(fields) > models.MaxClassificationFields {
		c.logger.Warn("field batch truncated",
			zap.Int("received", len(fields)), zap.Int("kept", models.MaxClassificationFields))
		fields = fields[:models.MaxClassificationFields]
	}

	resumeText := ""
	if c.resumes != nil {
		text, err := c.resumes.Extract(ctx, profile.ResumeURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("resume text unavailable", zap.String("url", profile.ResumeURL), zap.Error(err))
		}
		resumeText = text
	}
	resumeUsed := strings.TrimSpace(resumeText) != ""

	enriched := BackfillContact(*profile, resumeText)
	profileContext := BuildProfileContext(enriched)
	facts := KeyFacts(profileContext)

	answers := ApplyHeuristics(fields, &enriched)
	var pending []int
	for i := range fields {
		if _, ok := answers[i]; !ok {
			pending = append(pending, i)
		}
	}
	c.logger.Info("classifying fields",
		zap.Int("fields", len(fields)), zap.Int("heuristic", len(answers)),
		zap.Int("pending", len(pending)), zap.Bool("resumeUsed", resumeUsed))

	if len(pending) == 0 {
		return ClassificationOK{Fields: mergeAnswers(fields, answers, nil), ResumeUsed: resumeUsed}, nil
	}

	system, user, err := BuildClassifierPrompt(PromptInput{
		Fields:         fields,
		Pending:        pending,
		ProfileContext: profileContext,
		KeyFacts:       facts,
		ResumeText:     resumeText,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		EmployerName:   req.EmployerName,
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.llm.CompleteJSON(ctx, system, user)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var upErr *UpstreamError
		if !errors.As(err, &upErr) {
			upErr = NewUpstreamError(c.llm.Provider(), 0, err.Error(), err)
		}
		c.logger.Error("model call failed",
			zap.String("provider", upErr.Provider), zap.Int("status", upErr.Status), zap.Error(err))
		return upstreamFailure(upErr), nil
	}

	parsed, err := ParseClassification(raw)
	if err != nil {
		c.logger.Warn("model response unparseable", zap.Error(err), zap.Int("bytes", len(raw)))
		return ClassificationParseFailure{
			Raw:        raw,
			Err:        err,
			Fallback:   mergeAnswers(fields, answers, nil),
			ResumeUsed: resumeUsed,
		}, nil
	}

	return ClassificationOK{Fields: mergeAnswers(fields, answers, parsed), ResumeUsed: resumeUsed}, nil
}

// rawClassified mirrors one model entry before normalization.
type rawClassified struct {
	Index      int             `json:"index"`
	Identifier *string         `json:"identifier"`
	ProfileKey *string         `json:"profileKey"`
	Value      json.RawMessage `json:"value"`
	Confidence *float64        `json:"confidence"`
	IsQuestion *bool           `json:"isQuestion"`
}

// ParseClassification strips code fences, checks the response shape and
// decodes the entries.
func ParseClassification(raw string) ([]models.ClassifiedField, error) {
	cleaned := cleanJSONBlock(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}
	schema, err := classificationResponseSchema()
	if err != nil {
		return nil, fmt.Errorf("load response schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("response does not match schema: %s", strings.Join(msgs, "; "))
	}

	var doc struct {
		Fields []rawClassified `json:"fields"`
	}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]models.ClassifiedField, 0, len(doc.Fields))
	for _, rc := range doc.Fields {
		cf := models.ClassifiedField{Index: rc.Index, ProfileKey: rc.ProfileKey, Value: scalarString(rc.Value)}
		if rc.Identifier != nil {
			cf.Identifier = *rc.Identifier
		}
		if rc.Confidence != nil {
			cf.Confidence = *rc.Confidence
		}
		if rc.IsQuestion != nil {
			cf.IsQuestion = *rc.IsQuestion
		}
		out = append(out, cf)
	}
	return out, nil
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// mergeAnswers produces exactly one entry per field in batch order.
// Heuristic answers win over model answers; the first model answer for an
// index wins over later duplicates; out-of-range indices are dropped.
func mergeAnswers(fields []models.FieldDescriptor, heuristic map[int]models.ClassifiedField, model []models.ClassifiedField) []models.ClassifiedField {
	out := make([]models.ClassifiedField, len(fields))
	set := make([]bool, len(fields))
	for i := range out {
		out[i] = models.Unanswered(i)
	}
	for i, cf := range heuristic {
		if i >= 0 && i < len(fields) {
			out[i], set[i] = cf, true
		}
	}
	for _, cf := range model {
		if cf.Index < 0 || cf.Index >= len(fields) || set[cf.Index] {
			continue
		}
		out[cf.Index], set[cf.Index] = normalizeAnswer(fields[cf.Index], cf), true
	}
	return out
}

// normalizeAnswer clamps confidence and canonicalizes option picks. A value
// that matches no option becomes an empty, zero-confidence answer.
func normalizeAnswer(f models.FieldDescriptor, cf models.ClassifiedField) models.ClassifiedField {
	if cf.Identifier == "" {
		cf.Identifier = "unknown"
	}
	if math.IsNaN(cf.Confidence) {
		cf.Confidence = 0
	}
	cf.Confidence = math.Max(0, math.Min(1, cf.Confidence))
	cf.Value = strings.TrimSpace(cf.Value)

	if f.HasOptions() && cf.Value != "" {
		if canonical, ok := canonicalOption(f.Options, cf.Value); ok {
			cf.Value = canonical
		} else {
			cf.Value = ""
		}
	}
	if cf.Value == "" {
		cf.Confidence = 0
	}
	return cf
}
