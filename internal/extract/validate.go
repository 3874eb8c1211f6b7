package extract

import (
	"regexp"
	"strings"
)

// injectionPattern only matches instruction-shaped phrases. Résumés
// legitimately mention "system prompt design", "Override Labs" or
// "act as tech lead".
var injectionPattern = regexp.MustCompile(
	`(?i)\b(` +
		`(ignore|disregard|forget)\s+(all\s+|any\s+|the\s+)?(previous|prior|above|earlier)\s+(instructions|prompts?|rules)\b|` +
		`forget\s+everything\b|` +
		`you\s+are\s+now\s+(a|an|the|my)\b|` +
		`new\s+instructions\s*:|` +
		`(reveal|print|show|repeat)\s+(your|the)\s+system\s+prompt\b` +
		`)`,
)

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeRecord cleans a decoded record in place: whitespace is collapsed,
// the email is lowercased, values that read like prompt injection are
// dropped, skills are de-duplicated case-insensitively, empty list entries
// are removed and nil lists become empty lists.
func NormalizeRecord(r *Record) {
	if r == nil {
		return
	}
	r.FullName = clean(r.FullName)
	r.Email = FlexString(strings.ToLower(strings.TrimPrefix(string(clean(r.Email)), "mailto:")))
	r.PhoneNumber = clean(r.PhoneNumber)

	skills := make(StringList, 0, len(r.Skills))
	seen := make(map[string]bool, len(r.Skills))
	for _, s := range r.Skills {
		s = string(clean(FlexString(s)))
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, s)
	}
	r.Skills = skills

	education := make([]Education, 0, len(r.Education))
	for _, e := range r.Education {
		e.Degree, e.Institution, e.Year = clean(e.Degree), clean(e.Institution), clean(e.Year)
		if e.Degree == "" && e.Institution == "" && e.Year == "" {
			continue
		}
		education = append(education, e)
	}
	r.Education = education

	experience := make([]Experience, 0, len(r.Experience))
	for _, e := range r.Experience {
		e.Role, e.Company, e.Years = clean(e.Role), clean(e.Company), clean(e.Years)
		if e.Role == "" && e.Company == "" && e.Years == "" {
			continue
		}
		experience = append(experience, e)
	}
	r.Experience = experience
}

func clean(s FlexString) FlexString {
	v := strings.TrimSpace(spaceRun.ReplaceAllString(string(s), " "))
	if injectionPattern.MatchString(v) {
		return ""
	}
	return FlexString(v)
}

// IsEmpty reports whether the record carries no data at all.
func (r Record) IsEmpty() bool {
	return r.FullName == "" && r.Email == "" && r.PhoneNumber == "" &&
		len(r.Education) == 0 && len(r.Skills) == 0 && len(r.Experience) == 0
}
