package services

import (
	"fmt"
	"strconv"
	"strings"

	"jobfill/models"
	"jobfill/parsers"
)

// Key fact names, in the order they are rendered.
const (
	FactFullName = "Full Name"
	FactEmail    = "Email"
	FactPhone    = "Phone"
	FactCity     = "City"
	FactState    = "State"
	FactLocation = "Location"
	FactLinkedIn = "LinkedIn"
)

var keyFactOrder = []string{FactFullName, FactEmail, FactPhone, FactCity, FactState, FactLocation, FactLinkedIn}

// contextLabels maps context line labels to the key fact they feed.
var contextLabels = map[string]string{
	"Name":     FactFullName,
	"Email":    FactEmail,
	"Phone":    FactPhone,
	"City":     FactCity,
	"State":    FactState,
	"Location": FactLocation,
	"LinkedIn": FactLinkedIn,
}

// BackfillContact copies contact details found in resume text into profile
// attributes that are empty. Populated attributes are never overwritten.
func BackfillContact(p models.CandidateProfile, resumeText string) models.CandidateProfile {
	if strings.TrimSpace(resumeText) == "" {
		return p
	}
	c := parsers.NewContactParser().Parse(resumeText)
	if p.FullName == "" && p.FirstName == "" && p.LastName == "" && c.Name != "" {
		p.FullName = c.Name
	}
	if p.Email == "" {
		p.Email = c.Email
	}
	if p.Phone == "" {
		p.Phone = c.Phone
	}
	if p.LinkedInURL == "" {
		p.LinkedInURL = c.LinkedIn
	}
	return p
}

// BuildProfileContext renders the populated profile attributes as labelled
// lines grouped under section headers. Empty attributes and empty sections
// are left out.
func BuildProfileContext(p models.CandidateProfile) string {
	var b strings.Builder
	section := func(title string, lines [][2]string) {
		var kept []string
		for _, l := range lines {
			if v := strings.TrimSpace(l[1]); v != "" {
				kept = append(kept, fmt.Sprintf("%s: %s", l[0], v))
			}
		}
		if len(kept) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## " + title + "\n")
		for _, k := range kept {
			b.WriteString(k + "\n")
		}
	}

	section("Personal", [][2]string{
		{"Name", p.Name()},
		{"First Name", p.FirstName},
		{"Last Name", p.LastName},
		{"Email", p.Email},
		{"Phone", p.Phone},
		{"City", p.City},
		{"State", p.State},
		{"Country", p.Country},
		{"Zip Code", p.ZipCode},
		{"Location", p.Location()},
		{"LinkedIn", p.LinkedInURL},
		{"Portfolio", p.PortfolioURL},
		{"GitHub", p.GithubURL},
	})

	years := ""
	if p.YearsOfExperience > 0 {
		years = strconv.Itoa(p.YearsOfExperience)
	}
	section("Professional", [][2]string{
		{"Current Title", p.CurrentJobTitle},
		{"Current Company", p.CurrentCompany},
		{"Years of Experience", years},
		{"Skills", p.Skills},
		{"Summary", p.ProfessionalSummary},
		{"Salary Expectation", p.SalaryExpectation},
		{"Notice Period", p.NoticePeriod},
		{"Earliest Start", p.StartDatePreference},
		{"Authorized to Work", yesNo(p.WorkAuthorized)},
		{"Requires Sponsorship", yesNo(p.RequiresSponsorship)},
	})

	var exp [][2]string
	for _, e := range p.RecentExperience(models.MaxContextExperience) {
		end := e.EndDate
		if e.Current() {
			end = "present"
		}
		line := strings.TrimSpace(strings.Join(nonEmpty(e.Title, e.Company, e.Location), ", "))
		if span := strings.Trim(e.StartDate+" - "+end, " -"); span != "" {
			line += " (" + span + ")"
		}
		exp = append(exp, [2]string{"Role", line})
	}
	section("Experience", exp)

	var edu [][2]string
	for _, e := range p.SortedEducation() {
		line := strings.Join(nonEmpty(e.Degree, e.FieldOfStudy, e.School), ", ")
		if e.EndDate != "" {
			line += " (" + e.EndDate + ")"
		}
		edu = append(edu, [2]string{"Degree", line})
	}
	section("Education", edu)

	var lic [][2]string
	for _, l := range p.Licenses {
		lic = append(lic, [2]string{"License", strings.Join(nonEmpty(l.Name, l.State, l.Number), ", ")})
	}
	for _, c := range p.Certifications {
		lic = append(lic, [2]string{"Certification", strings.Join(nonEmpty(c.Name, c.Issuer), ", ")})
	}
	section("Licensing", lic)

	section("Self Identification", [][2]string{
		{"Gender", p.Gender},
		{"Race", p.Race},
		{"Ethnicity", p.Ethnicity},
		{"Veteran Status", p.VeteranStatus},
		{"Disability Status", p.DisabilityStatus},
	})

	return b.String()
}

// KeyFacts reads the flattened fact block back out of a context string
// produced by BuildProfileContext. The first occurrence of a label wins.
func KeyFacts(context string) map[string]string {
	facts := map[string]string{}
	for _, line := range strings.Split(context, "\n") {
		label, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		fact, known := contextLabels[strings.TrimSpace(label)]
		if !known {
			continue
		}
		if _, seen := facts[fact]; !seen && strings.TrimSpace(value) != "" {
			facts[fact] = strings.TrimSpace(value)
		}
	}
	return facts
}

// RenderKeyFacts prints facts in a fixed order, one per line.
func RenderKeyFacts(facts map[string]string) string {
	var b strings.Builder
	for _, k := range keyFactOrder {
		if v := facts[k]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	return b.String()
}

func yesNo(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "Yes"
	}
	return "No"
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
