package models

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// CandidateProfile is the read-only view of a candidate used to build fill
// plans and classification context.
type CandidateProfile struct {
	UserID    int    `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	ZipCode   string `json:"zip_code"`

	CurrentJobTitle     string `json:"current_job_title"`
	CurrentCompany      string `json:"current_company"`
	YearsOfExperience   int    `json:"years_of_experience"`
	Skills              string `json:"skills"`
	ProfessionalSummary string `json:"professional_summary"`
	LinkedInURL         string `json:"linkedin_url"`
	PortfolioURL        string `json:"portfolio_url"`
	GithubURL           string `json:"github_url"`
	SalaryExpectation   string `json:"salary_expectation"`
	NoticePeriod        string `json:"notice_period"`
	StartDatePreference string `json:"start_date_preference"`
	WorkAuthorized      *bool  `json:"work_authorized"`
	RequiresSponsorship *bool  `json:"requires_sponsorship"`

	Gender           string `json:"gender"`
	Race             string `json:"race"`
	Ethnicity        string `json:"ethnicity"`
	VeteranStatus    string `json:"veteran_status"`
	DisabilityStatus string `json:"disability_status"`

	ResumeURL string `json:"resume_url"`

	Licenses       []License         `json:"licenses"`
	Certifications []Certification   `json:"certifications"`
	Education      []EducationEntry  `json:"education"`
	WorkExperience []ExperienceEntry `json:"work_experience"`
}

type License struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Number    string `json:"number"`
	ExpiresAt string `json:"expires_at"`
}

type Certification struct {
	Name      string `json:"name"`
	Issuer    string `json:"issuer"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
}

// EducationEntry is one school record. EndDate is the graduation date.
type EducationEntry struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"field_of_study"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	IsCurrent    bool   `json:"is_current"`
}

// Current reports whether the candidate still attends the school.
func (e EducationEntry) Current() bool {
	return e.IsCurrent || (e.EndDate == "" && e.StartDate != "")
}

// ExperienceEntry is one job record.
type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsCurrent   bool   `json:"is_current"`
}

// Current reports whether the job is ongoing.
func (e ExperienceEntry) Current() bool {
	return e.IsCurrent || (e.EndDate == "" && e.StartDate != "")
}

// MaxContextExperience caps the number of jobs described to the classifier.
const MaxContextExperience = 5

// Name returns the best available display name.
func (p *CandidateProfile) Name() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Location joins city, state and country, skipping blanks.
func (p *CandidateProfile) Location() string {
	parts := []string{}
	for _, s := range []string{p.City, p.State, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// SortedEducation returns education ordered by graduation date, newest first.
// Ongoing studies sort before any finished ones.
func (p *CandidateProfile) SortedEducation() []EducationEntry {
	out := append([]EducationEntry(nil), p.Education...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Current(), out[j].Current()
		if ci != cj {
			return ci
		}
		return dateKey(out[i].EndDate).After(dateKey(out[j].EndDate))
	})
	return out
}

// RecentExperience returns at most n jobs, current ones first, then by start
// date descending. n <= 0 means no cap.
func (p *CandidateProfile) RecentExperience(n int) []ExperienceEntry {
	out := append([]ExperienceEntry(nil), p.WorkExperience...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Current(), out[j].Current()
		if ci != cj {
			return ci
		}
		return dateKey(out[i].StartDate).After(dateKey(out[j].StartDate))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func dateKey(s string) time.Time {
	t, _ := ParseDate(s)
	return t
}

// LoadProfileFile reads a profile from a JSON document on disk.
func LoadProfileFile(path string) (*CandidateProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	var p CandidateProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return &p, nil
}
