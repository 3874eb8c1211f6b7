package extract

import (
	"reflect"
	"testing"
)

func TestMergeRecords(t *testing.T) {
	first := Record{
		FullName:  "Jane Doe",
		Skills:    StringList{"Go", "SQL"},
		Education: []Education{{Degree: "BSc", Institution: "MIT", Year: "2019"}},
	}
	second := Record{
		FullName:    "J. Doe",
		Email:       "jane@example.com",
		Skills:      StringList{"sql", "Kubernetes"},
		Education:   []Education{{Degree: "bsc", Institution: "mit", Year: "2019"}},
		Experience:  []Experience{{Role: "Engineer", Company: "Acme", Years: "4"}},
		PhoneNumber: "555-0100",
	}
	third := Record{
		Experience: []Experience{{Role: "Engineer", Company: "Acme", Years: "4"}, {Role: "Intern", Company: "Initech"}},
	}

	got := MergeRecords(first, second, third)

	if got.FullName != "Jane Doe" {
		t.Errorf("first non-empty name should win, got %q", got.FullName)
	}
	if got.Email != "jane@example.com" || got.PhoneNumber != "555-0100" {
		t.Errorf("missing scalars from later records: %+v", got)
	}
	if !reflect.DeepEqual(got.Skills, StringList{"Go", "SQL", "Kubernetes"}) {
		t.Errorf("skills: got %v", got.Skills)
	}
	if len(got.Education) != 1 {
		t.Errorf("education should be de-duplicated, got %+v", got.Education)
	}
	if len(got.Experience) != 2 || got.Experience[1].Role != "Intern" {
		t.Errorf("experience: got %+v", got.Experience)
	}
}

func TestMergeRecords_None(t *testing.T) {
	got := MergeRecords()
	if !got.IsEmpty() || got.Skills == nil {
		t.Errorf("expected empty normalized record, got %+v", got)
	}
}

func TestResultClone(t *testing.T) {
	orig := Decoded(Record{
		FullName:   "Jane Doe",
		Skills:     StringList{"Go"},
		Education:  []Education{{Degree: "BSc"}},
		Experience: []Experience{{Company: "Acme"}},
	})
	cp := orig.Clone()
	cp.Record.FullName = "changed"
	cp.Record.Skills[0] = "changed"
	cp.Record.Education[0].Degree = "changed"
	cp.Record.Experience[0].Company = "changed"

	rec := orig.Record
	if rec.FullName != "Jane Doe" || rec.Skills[0] != "Go" ||
		rec.Education[0].Degree != "BSc" || rec.Experience[0].Company != "Acme" {
		t.Errorf("clone shares data with the original: %+v", rec)
	}

	failed := Failed("raw", errNotObject).Clone()
	if failed.Record != nil || failed.Raw != "raw" {
		t.Errorf("unexpected clone of failure %+v", failed)
	}
}
