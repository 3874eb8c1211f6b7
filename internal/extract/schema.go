package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Field is one key the model is asked to fill in.
type Field struct {
	Name        string
	Type        string
	Description string
}

// ResumeFields is the record layout requested from the model.
var ResumeFields = []Field{
	{Name: "full_name", Type: "string", Description: "The candidate's full name."},
	{Name: "email", Type: "string", Description: "The candidate's email address."},
	{Name: "phone_number", Type: "string", Description: "The candidate's phone number."},
	{Name: "education", Type: "list", Description: "list of {degree, institution, year}"},
	{Name: "skills", Type: "list", Description: "A list of the candidate's key skills."},
	{Name: "experience", Type: "list", Description: "A list of work experiences, each containing role, company, and years."},
}

// Record is a decoded résumé.
type Record struct {
	FullName    FlexString   `json:"full_name"`
	Email       FlexString   `json:"email"`
	PhoneNumber FlexString   `json:"phone_number"`
	Education   []Education  `json:"education"`
	Skills      StringList   `json:"skills"`
	Experience  []Experience `json:"experience"`
}

// Clone returns a copy that shares no slices with r.
func (r Record) Clone() Record {
	r.Education = slices.Clone(r.Education)
	r.Skills = slices.Clone(r.Skills)
	r.Experience = slices.Clone(r.Experience)
	return r
}

type Education struct {
	Degree      FlexString `json:"degree"`
	Institution FlexString `json:"institution"`
	Year        FlexString `json:"year"`
}

type Experience struct {
	Role    FlexString `json:"role"`
	Company FlexString `json:"company"`
	Years   FlexString `json:"years"`
}

// FlexString accepts a JSON string, number, boolean or null. Models often
// answer "year": 2019 where a string was asked for.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("expected string, got %s", truncate(string(data), 40))
	}
	// Numbers and booleans keep their literal text.
	*s = FlexString(data)
	return nil
}

// StringList accepts either a JSON array or a single comma separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, len(items))
		for i, v := range items {
			out[i] = string(v)
		}
		*l = out
		return nil
	}
	var single FlexString
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = StringList(strings.Split(string(single), ","))
	return nil
}
