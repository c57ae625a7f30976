package parsers

import (
	"fmt"
	"regexp"
	"strings"
)

// Contact is the contact block recoverable from raw resume text.
type Contact struct {
	Name     string
	Email    string
	Phone    string
	LinkedIn string
}

// ContactParser pulls contact details out of resume text.
type ContactParser struct {
	emailRegex    *regexp.Regexp
	phoneRegex    *regexp.Regexp
	linkedInRegex *regexp.Regexp
	nameWordRegex *regexp.Regexp
	nonDigits     *regexp.Regexp
}

func NewContactParser() *ContactParser {
	return &ContactParser{
		emailRegex:    regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phoneRegex:    regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`),
		linkedInRegex: regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/in/[A-Za-z0-9_-]+/?`),
		nameWordRegex: regexp.MustCompile(`^[A-Za-z'-]+$`),
		nonDigits:     regexp.MustCompile(`\D`),
	}
}

// Parse scans text for an email, phone number, LinkedIn URL and a name line
// among the first few lines. Missing parts are left blank.
func (p *ContactParser) Parse(text string) Contact {
	var c Contact
	c.Email = p.emailRegex.FindString(text)
	if phone := p.phoneRegex.FindString(text); phone != "" {
		c.Phone = p.normalizePhone(phone)
	}
	if li := p.linkedInRegex.FindString(text); li != "" {
		if !strings.HasPrefix(strings.ToLower(li), "http") {
			li = "https://" + li
		}
		c.LinkedIn = li
	}

	for i, line := range strings.Split(text, "\n") {
		if i > 5 {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "@") || p.phoneRegex.MatchString(line) {
			continue
		}
		if p.looksLikeName(line) {
			c.Name = line
			break
		}
	}
	return c
}

func (p *ContactParser) looksLikeName(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if len(w) < 2 || !p.nameWordRegex.MatchString(w) {
			return false
		}
	}
	return true
}

// normalizePhone formats US numbers as (XXX) XXX-XXXX.
func (p *ContactParser) normalizePhone(phone string) string {
	digits := p.nonDigits.ReplaceAllString(phone, "")
	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:11])
	}
	return phone
}
