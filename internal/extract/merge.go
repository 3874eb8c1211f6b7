package extract

import "strings"

// MergeRecords combines records extracted from separate chunks of the same
// résumé. The first non-empty scalar wins; lists are concatenated in order
// with duplicates removed. The result is normalized.
func MergeRecords(records ...Record) Record {
	var out Record
	eduSeen := map[string]bool{}
	expSeen := map[string]bool{}
	for _, r := range records {
		if out.FullName == "" {
			out.FullName = r.FullName
		}
		if out.Email == "" {
			out.Email = r.Email
		}
		if out.PhoneNumber == "" {
			out.PhoneNumber = r.PhoneNumber
		}
		out.Skills = append(out.Skills, r.Skills...)
		for _, e := range r.Education {
			key := entryKey(e.Degree, e.Institution, e.Year)
			if eduSeen[key] {
				continue
			}
			eduSeen[key] = true
			out.Education = append(out.Education, e)
		}
		for _, e := range r.Experience {
			key := entryKey(e.Role, e.Company, e.Years)
			if expSeen[key] {
				continue
			}
			expSeen[key] = true
			out.Experience = append(out.Experience, e)
		}
	}
	NormalizeRecord(&out)
	return out
}

func entryKey(parts ...FlexString) string {
	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = strings.ToLower(strings.TrimSpace(string(p)))
	}
	return strings.Join(keys, "\x00")
}
