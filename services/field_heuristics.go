package services

import (
	"regexp"
	"strings"

	"jobfill/models"
)

// HeuristicConfidence is the confidence given to locally derived answers.
const HeuristicConfidence = 0.95

// maxFactualLabel bounds the label length of a field treated as a plain
// factual slot. Longer labels are questions and go to the model.
const maxFactualLabel = 60

type factRule struct {
	key     string
	pattern *regexp.Regexp
	value   func(p *models.CandidateProfile) string
	// onLabel matches against the lowercased label alone.
	onLabel bool
	// statement skips labels phrased as a question.
	statement bool
}

// factRules are tried in order; the first that matches a field decides it.
var factRules = []factRule{
	{"first_name", regexp.MustCompile(`first[\s_-]?name|given[\s_-]?name|\bfname\b|preferred[\s_-]?name`), func(p *models.CandidateProfile) string {
		if p.FirstName != "" {
			return p.FirstName
		}
		first, _, _ := strings.Cut(p.Name(), " ")
		return first
	}, false, false},
	{"last_name", regexp.MustCompile(`last[\s_-]?name|sur[\s_-]?name|family[\s_-]?name|\blname\b`), func(p *models.CandidateProfile) string {
		if p.LastName != "" {
			return p.LastName
		}
		if i := strings.LastIndex(p.Name(), " "); i > 0 {
			return p.Name()[i+1:]
		}
		return ""
	}, false, false},
	{"email", regexp.MustCompile(`e-?mail`), func(p *models.CandidateProfile) string { return p.Email }, false, false},
	{"phone", regexp.MustCompile(`phone|mobile|telephone|\bcell\b`), func(p *models.CandidateProfile) string { return p.Phone }, false, false},
	{"linkedin_url", regexp.MustCompile(`linked[\s_-]?in`), func(p *models.CandidateProfile) string { return p.LinkedInURL }, false, false},
	{"github_url", regexp.MustCompile(`github`), func(p *models.CandidateProfile) string { return p.GithubURL }, false, false},
	{"portfolio_url", regexp.MustCompile(`portfolio|personal[\s_-]?(web)?site`), func(p *models.CandidateProfile) string { return p.PortfolioURL }, false, false},
	{"current_company", regexp.MustCompile(`current[\s_-]?(company|employer)`), func(p *models.CandidateProfile) string { return p.CurrentCompany }, false, false},
	{"current_job_title", regexp.MustCompile(`current[\s_-]?(job[\s_-]?)?(title|position|role)`), func(p *models.CandidateProfile) string { return p.CurrentJobTitle }, false, false},
	{"zip_code", regexp.MustCompile(`\bzip\b|postal`), func(p *models.CandidateProfile) string { return p.ZipCode }, false, false},
	{"city", regexp.MustCompile(`\bcity\b`), func(p *models.CandidateProfile) string { return p.City }, false, false},
	{"state", regexp.MustCompile(`\bstate\b|province`), func(p *models.CandidateProfile) string { return p.State }, false, false},
	{"country", regexp.MustCompile(`\bcountry\b`), func(p *models.CandidateProfile) string { return p.Country }, false, false},
	{"location", regexp.MustCompile(`\blocation\b`), func(p *models.CandidateProfile) string { return p.Location() }, false, true},
	{"location", regexp.MustCompile(`where are you (based|located)`), func(p *models.CandidateProfile) string { return p.Location() }, false, false},
	{"full_name", regexp.MustCompile(`full[\s_-]?name|legal[\s_-]?name`), func(p *models.CandidateProfile) string { return p.Name() }, false, false},
	{"full_name", regexp.MustCompile(`^(your )?name\s*\*?$`), func(p *models.CandidateProfile) string { return p.Name() }, true, false},
}

var (
	sponsorshipPattern   = regexp.MustCompile(`sponsor`)
	authorizationPattern = regexp.MustCompile(`authori[sz]ed|legally (eligible|able|permitted|allowed) to work|right to work|eligible to work|work permit`)
)

// ApplyHeuristics answers the fields it can decide from the profile alone.
// The returned map is keyed by batch index. Answers for option-constrained
// fields are always one of the options; fields whose options do not contain
// the answer are left for the model.
func ApplyHeuristics(fields []models.FieldDescriptor, p *models.CandidateProfile) map[int]models.ClassifiedField {
	out := map[int]models.ClassifiedField{}
	for i, f := range fields {
		if cf, ok := heuristicAnswer(i, f, p); ok {
			out[i] = cf
		}
	}
	return out
}

func heuristicAnswer(index int, f models.FieldDescriptor, p *models.CandidateProfile) (models.ClassifiedField, bool) {
	if f.FieldType == models.FieldFile || f.FieldType == models.FieldCheckbox {
		return models.ClassifiedField{}, false
	}
	text := f.SearchText()

	// Sponsorship questions usually mention authorization too, so they are
	// decided first.
	if sponsorshipPattern.MatchString(text) {
		return yesNoAnswer(index, f, "requires_sponsorship", p.RequiresSponsorship)
	}
	if authorizationPattern.MatchString(text) {
		return yesNoAnswer(index, f, "work_authorized", p.WorkAuthorized)
	}

	if f.FieldType == models.FieldTextarea || len([]rune(strings.TrimSpace(f.Label))) > maxFactualLabel {
		return models.ClassifiedField{}, false
	}
	label := strings.ToLower(strings.TrimSpace(f.Label))
	question := strings.HasSuffix(strings.TrimRight(label, " *"), "?")
	for _, r := range factRules {
		if r.statement && question {
			continue
		}
		subject := text
		if r.onLabel {
			subject = label
		}
		if !r.pattern.MatchString(subject) {
			continue
		}
		v := strings.TrimSpace(r.value(p))
		if v == "" {
			return models.ClassifiedField{}, false
		}
		if f.HasOptions() {
			var ok bool
			if v, ok = pickOption(f.Options, v); !ok {
				return models.ClassifiedField{}, false
			}
		}
		return answer(index, r.key, v), true
	}
	return models.ClassifiedField{}, false
}

func yesNoAnswer(index int, f models.FieldDescriptor, key string, b *bool) (models.ClassifiedField, bool) {
	v := yesNo(b)
	if v == "" {
		return models.ClassifiedField{}, false
	}
	if len(f.Options) > 0 {
		var ok bool
		if v, ok = pickYesNoOption(f.Options, v); !ok {
			return models.ClassifiedField{}, false
		}
	}
	return answer(index, key, v), true
}

func answer(index int, key, value string) models.ClassifiedField {
	k := key
	return models.ClassifiedField{
		Index:      index,
		Identifier: key,
		ProfileKey: &k,
		Value:      value,
		Confidence: HeuristicConfidence,
	}
}

// pickOption returns the option equal to v, ignoring case, or the option
// that contains v (or is contained by it) when exactly one does.
func pickOption(options []string, v string) (string, bool) {
	if canonical, ok := canonicalOption(options, v); ok {
		return canonical, true
	}
	lv := strings.ToLower(v)
	found := ""
	for _, o := range options {
		lo := strings.ToLower(strings.TrimSpace(o))
		if lo == "" {
			continue
		}
		if strings.Contains(lo, lv) || strings.Contains(lv, lo) {
			if found != "" {
				return "", false
			}
			found = o
		}
	}
	return found, found != ""
}

// pickYesNoOption finds the first option that starts with "Yes" or "No".
func pickYesNoOption(options []string, v string) (string, bool) {
	want := strings.ToLower(v)
	for _, o := range options {
		lo := strings.ToLower(strings.TrimSpace(o))
		if lo == want || strings.HasPrefix(lo, want+",") || strings.HasPrefix(lo, want+" ") || strings.HasPrefix(lo, want+".") {
			return o, true
		}
	}
	return "", false
}

// canonicalOption returns the option matching v exactly, else the option
// matching it ignoring case and surrounding space.
func canonicalOption(options []string, v string) (string, bool) {
	for _, o := range options {
		if o == v {
			return o, true
		}
	}
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(v)) {
			return o, true
		}
	}
	return "", false
}
