package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseConceptRef(t *testing.T) {
	ref, err := ParseConceptRef("https://api.openconceptlab.org/orgs/CIEL/sources/CIEL/concepts/5839/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ref.OwnerType != "orgs" || ref.Owner != "CIEL" || ref.Source != "CIEL" || ref.ID != 5839 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	if ref.String() != "/orgs/CIEL/sources/CIEL/concepts/5839/" {
		t.Fatalf("unexpected string %s", ref.String())
	}

	for _, bad := range []string{"", "/orgs/CIEL/sources/CIEL/", "/orgs/CIEL/sources/CIEL/concepts/x/", "/orgs/CIEL/concepts/1/"} {
		if _, err := ParseConceptRef(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseSourceRef(t *testing.T) {
	ref, err := ParseSourceRef("/users/admin/sources/Local-Codes/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ref.OwnerType != "users" || ref.Owner != "admin" || ref.Source != "Local-Codes" {
		t.Fatalf("unexpected ref %+v", ref)
	}
}

func TestMappingRecordDecoding(t *testing.T) {
	raw := `{"from_concept_url":"/orgs/CIEL/sources/CIEL/concepts/1/","to_source_url":"/orgs/WHO/sources/ICD-10-WHO/","to_concept_code":"A00","map_type":"SAME-AS","creator":"4","retired":0,"date_created":"2015-06-01 10:20:30"}`
	var rec MappingRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := rec.Prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if rec.From == nil || rec.From.ID != 1 || rec.To != nil || rec.ToSource == nil || rec.ToSource.Source != "ICD-10-WHO" {
		t.Fatalf("unexpected refs %+v", rec)
	}
	if rec.Creator.Or(1) != 4 || bool(rec.Retired) {
		t.Fatalf("unexpected creator/retired %+v", rec)
	}
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := rec.CreatedAt(fallback); got.Year() != 2015 || got.Second() != 30 {
		t.Fatalf("unexpected date %s", got)
	}
	rec.DateCreated = "yesterday"
	if got := rec.CreatedAt(fallback); !got.Equal(fallback) {
		t.Fatalf("expected fallback, got %s", got)
	}
}

func TestFlagSpellings(t *testing.T) {
	cases := map[string]bool{`true`: true, `1`: true, `"1"`: true, `"t"`: true, `false`: false, `0`: false, `null`: false, `""`: false}
	for raw, want := range cases {
		var f Flag
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if bool(f) != want {
			t.Fatalf("%s: expected %v", raw, want)
		}
	}
	var f Flag
	if err := json.Unmarshal([]byte(`"maybe"`), &f); err == nil {
		t.Fatal("expected error for unknown flag spelling")
	}
}

func TestConceptRecordExtras(t *testing.T) {
	raw := `{"id":5,"datatype":"Numeric","extras":{"creator":2,"hi_normal":"38.5","units":"C","precise":"0","is_set":true}}`
	var rec ConceptRecord
	err := json.Unmarshal([]byte(raw), &rec)
	if err == nil {
		t.Fatal("expected error for quoted numeric bound")
	}

	raw = `{"id":5,"datatype":"Numeric","extras":{"creator":2,"hi_normal":38.5,"units":"C","precise":"0","is_set":true}}`
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Extras.HiNormal == nil || *rec.Extras.HiNormal != 38.5 || rec.Extras.LowNormal != nil {
		t.Fatalf("unexpected bounds %+v", rec.Extras)
	}
	if rec.Extras.Precise == nil || bool(*rec.Extras.Precise) || !bool(rec.Extras.IsSet) {
		t.Fatalf("unexpected flags %+v", rec.Extras)
	}
}
