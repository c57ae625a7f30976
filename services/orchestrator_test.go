package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobfill/models"
)

// stubClassifier answers fields by label and records every request.
type stubClassifier struct {
	answers  map[string]string
	outcome  ClassificationOutcome
	requests []models.ClassificationRequest
}

func (s *stubClassifier) Classify(ctx context.Context, req models.ClassificationRequest) (ClassificationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.requests = append(s.requests, req)
	if s.outcome != nil {
		return s.outcome, nil
	}
	fields := make([]models.ClassifiedField, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = models.Unanswered(i)
		if v, ok := s.answers[f.Label]; ok {
			fields[i] = models.ClassifiedField{Index: i, Identifier: strings.ToLower(f.Label), Value: v, Confidence: 0.9}
		}
	}
	return ClassificationOK{Fields: fields}, nil
}

type applicationPage struct {
	*fakePage
	first, email, country, message, resume *fakeElement
}

func newApplicationPage() *applicationPage {
	p := &applicationPage{fakePage: newFakePage()}
	p.message = p.add(ElementInfo{Tag: "textarea", Label: "Message", Rect: Rect{Y: 430, Width: 400, Height: 80}})
	p.add(textNode("h2", "Message", 400))
	p.email = p.add(textInput("Email", 0, 150))
	p.first = p.add(textInput("First Name", 0, 100))
	p.country = p.add(ElementInfo{Tag: "select", Label: "Country", Options: []string{"Select...", "United States", "Canada"}, Rect: box(0, 200)})
	p.resume = p.add(ElementInfo{Tag: "input", Type: "file", Name: "resume"})
	return p
}

func newTestOrchestrator(page Page, classifier Classifier, resumes ResumeSource) *Orchestrator {
	o, _ := newTimedOrchestrator(page, classifier, resumes)
	return o
}

func newTimedOrchestrator(page Page, classifier Classifier, resumes ResumeSource) (*Orchestrator, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	return NewOrchestrator(page, classifier, resumes, DefaultAdapterRegistry(), testEngineConfig, sleeper, zap.NewNop()), sleeper
}

func stepByName(t *testing.T, report *FillReport, name string) StepReport {
	t.Helper()
	for _, s := range report.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("step %q not reported", name)
	return StepReport{}
}

func TestOrchestrator_Run(t *testing.T) {
	page := newApplicationPage()
	classifier := &stubClassifier{answers: map[string]string{
		"First Name": "Jane",
		"Email":      "jane@example.com",
		"Country":    "United States",
	}}
	resumes := &fakeResumeSource{blob: pdfBlob(5000)}
	profile := testProfile()
	profile.WorkExperience = []models.ExperienceEntry{{Title: "Senior Engineer", Company: "Acme", StartDate: "2020-01"}}
	job := JobContext{Title: "Backend Engineer", Employer: "Initech"}

	report, err := newTestOrchestrator(page, classifier, resumes).Run(context.Background(), profile, job)
	require.NoError(t, err)

	assert.NotEmpty(t, report.SessionID)
	assert.Equal(t, "generic", report.Adapter)
	assert.Equal(t, 3, report.Classified)
	assert.Equal(t, 4, report.Filled)

	require.Len(t, classifier.requests, 1)
	req := classifier.requests[0]
	assert.Equal(t, "Backend Engineer", req.JobTitle)
	assert.Equal(t, "Initech", req.EmployerName)
	var labels []string
	for _, f := range req.Fields {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"First Name", "Email", "Country"}, labels)

	assert.Equal(t, "Jane", page.first.info.Value)
	assert.Equal(t, "jane@example.com", page.email.info.Value)
	assert.Equal(t, "United States", page.country.info.Value)
	assert.Equal(t, CoverMessage(profile, job), page.message.info.Value)
	require.Len(t, page.resume.attached, 1)

	classify := stepByName(t, report, StepClassify)
	assert.Equal(t, StepDone, classify.Status)
	assert.Equal(t, 3, classify.Count)

	experience := stepByName(t, report, StepExperience)
	assert.Equal(t, StepSkipped, experience.Status)
	assert.Equal(t, "heading not found", experience.Detail)
	require.Len(t, report.Sections, 1)

	education := stepByName(t, report, StepEducation)
	assert.Equal(t, StepSkipped, education.Status)
	assert.Equal(t, "no entries in profile", education.Detail)

	assert.Equal(t, StepDone, stepByName(t, report, StepMessage).Status)
	resume := stepByName(t, report, StepResume)
	assert.Equal(t, StepDone, resume.Status)
	assert.Equal(t, "file-input", resume.Detail)
	assert.True(t, report.Upload.Attached)
}

func TestOrchestrator_UpstreamFailureContinues(t *testing.T) {
	page := newApplicationPage()
	classifier := &stubClassifier{outcome: ClassificationUpstreamFailure{Provider: "openai", Status: 503, Body: "overloaded"}}
	profile := testProfile()
	profile.ResumeURL = ""

	report, err := newTestOrchestrator(page, classifier, nil).Run(context.Background(), profile, JobContext{})
	require.NoError(t, err)

	classify := stepByName(t, report, StepClassify)
	assert.Equal(t, StepFailed, classify.Status)
	assert.Equal(t, "upstream status 503", classify.Detail)
	assert.Empty(t, page.first.info.Value)

	assert.Equal(t, StepDone, stepByName(t, report, StepMessage).Status)
	resume := stepByName(t, report, StepResume)
	assert.Equal(t, StepSkipped, resume.Status)
	assert.Equal(t, "no resume url", resume.Detail)
}

func TestOrchestrator_ParseFailureUsesFallback(t *testing.T) {
	page := newApplicationPage()
	classifier := &stubClassifier{outcome: ClassificationParseFailure{
		Raw: "nope",
		Fallback: []models.ClassifiedField{
			{Index: 0, Identifier: "first_name", Value: "Jane", Confidence: HeuristicConfidence},
			models.Unanswered(1), models.Unanswered(2), models.Unanswered(3),
		},
	}}

	report, err := newTestOrchestrator(page, classifier, nil).Run(context.Background(), testProfile(), JobContext{})
	require.NoError(t, err)

	assert.Equal(t, "Jane", page.first.info.Value)
	classify := stepByName(t, report, StepClassify)
	assert.Equal(t, StepDone, classify.Status)
	assert.Equal(t, "parse failure", classify.Detail)
	assert.Equal(t, 1, classify.Count)
}

func TestOrchestrator_NoClassifier(t *testing.T) {
	page := newApplicationPage()
	report, err := newTestOrchestrator(page, nil, nil).Run(context.Background(), testProfile(), JobContext{})
	require.NoError(t, err)
	assert.Equal(t, StepSkipped, stepByName(t, report, StepClassify).Status)
}

func TestOrchestrator_StopsOnDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classifier := &stubClassifier{}
	report, err := newTestOrchestrator(newApplicationPage(), classifier, nil).Run(ctx, testProfile(), JobContext{URL: "https://jobs.lever.co/acme/1"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, "lever", report.Adapter)
	assert.Empty(t, classifier.requests)
}

func TestOrchestrator_RequiresProfile(t *testing.T) {
	_, err := newTestOrchestrator(newApplicationPage(), &stubClassifier{}, nil).Run(context.Background(), nil, JobContext{})
	var reqErr *RequestError
	assert.ErrorAs(t, err, &reqErr)
}

func TestOrchestrator_MessageAreaLeftForCoverMessage(t *testing.T) {
	page := newApplicationPage()
	classifier := &stubClassifier{answers: map[string]string{
		"First Name": "Jane",
		"Message":    "Looking forward to hearing from you.",
	}}
	profile := testProfile()
	job := JobContext{Title: "Backend Engineer", Employer: "Initech"}

	report, err := newTestOrchestrator(page, classifier, &fakeResumeSource{blob: pdfBlob(5000)}).Run(context.Background(), profile, job)
	require.NoError(t, err)

	require.Len(t, classifier.requests, 1)
	for _, f := range classifier.requests[0].Fields {
		assert.NotEqual(t, "Message", f.Label)
	}
	assert.Equal(t, CoverMessage(profile, job), page.message.info.Value)
	assert.Equal(t, StepDone, stepByName(t, report, StepMessage).Status)
}

func TestOrchestrator_SettlesAfterEverySectionStep(t *testing.T) {
	page := newApplicationPage()
	profile := testProfile()
	profile.WorkExperience = []models.ExperienceEntry{{Title: "Senior Engineer", Company: "Acme", StartDate: "2020-01"}}
	profile.Education = nil
	o, sleeper := newTimedOrchestrator(page, nil, &fakeResumeSource{blob: pdfBlob(5000)})

	report, err := o.Run(context.Background(), profile, JobContext{})
	require.NoError(t, err)
	assert.Equal(t, StepSkipped, stepByName(t, report, StepExperience).Status)
	assert.Equal(t, StepSkipped, stepByName(t, report, StepEducation).Status)

	settles := 0
	for _, w := range sleeper.waits {
		if w == testEngineConfig.SettleDelay {
			settles++
		}
	}
	assert.Equal(t, 2, settles)
}

func TestCoverMessage(t *testing.T) {
	msg := CoverMessage(testProfile(), JobContext{Title: "Backend Engineer", Employer: "Initech"})
	assert.True(t, strings.HasPrefix(msg, "Hello,\n\nMy name is Jane Smith. I am excited to apply for the Backend Engineer position at Initech."))
	assert.Contains(t, msg, "I currently work as a Senior Engineer at Acme.")
	assert.True(t, strings.HasSuffix(msg, "\nJane Smith"))

	bare := CoverMessage(&models.CandidateProfile{}, JobContext{})
	assert.NotContains(t, bare, "My name is")
	assert.Contains(t, bare, "I am excited to apply for this position.")
	assert.True(t, strings.HasSuffix(bare, "Thank you for your consideration."))
}
