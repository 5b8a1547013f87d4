package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestPhoneSet tests set semantics and JSON encoding.
func TestPhoneSet(t *testing.T) {
	t.Parallel()

	t.Run("collapses duplicates", func(t *testing.T) {
		t.Parallel()

		s := NewPhoneSet("3055551234", "3055551234", "7865550000")
		if s.Len() != 2 {
			t.Errorf("expected 2 numbers, got %d", s.Len())
		}
		if !s.Contains("7865550000") {
			t.Error("expected set to contain 7865550000")
		}
	})

	t.Run("sorted returns ascending order", func(t *testing.T) {
		t.Parallel()

		s := NewPhoneSet("7865550000", "3055551234")
		got := s.Sorted()
		if len(got) != 2 || got[0] != "3055551234" || got[1] != "7865550000" {
			t.Errorf("unexpected order: %v", got)
		}
	})

	t.Run("empty set encodes as empty array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(NewPhoneSet())
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected [], got %s", data)
		}
	})

	t.Run("decodes from array", func(t *testing.T) {
		t.Parallel()

		var s PhoneSet
		if err := json.Unmarshal([]byte(`["3055551234","3055551234"]`), &s); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 number, got %d", s.Len())
		}
	})

	t.Run("equal ignores insertion order", func(t *testing.T) {
		t.Parallel()

		a := NewPhoneSet("1", "2")
		b := NewPhoneSet("2", "1")
		if !a.Equal(b) {
			t.Error("expected sets to be equal")
		}
		if a.Equal(NewPhoneSet("1")) {
			t.Error("expected sets of different size to differ")
		}
	})
}

// TestBusinessRecordFinalize tests the transition to the terminal state.
func TestBusinessRecordFinalize(t *testing.T) {
	t.Parallel()

	t.Run("nil phones become an empty set", func(t *testing.T) {
		t.Parallel()

		rec := BusinessRecord{Name: StringPtr("Cafe")}
		if rec.Finalized() {
			t.Fatal("new record should not be finalized")
		}

		done := rec.Finalize(StatusNoWebsite, nil, "")
		if !done.Finalized() {
			t.Error("expected finalized record")
		}
		if done.Phones == nil || done.Phones.Len() != 0 {
			t.Errorf("expected empty non-nil phone set, got %v", done.Phones)
		}
	})

	t.Run("phone set is not shared with the caller", func(t *testing.T) {
		t.Parallel()

		phones := NewPhoneSet("3055551234")
		done := BusinessRecord{}.Finalize(StatusFetched, phones, "")
		phones.Add("7865550000")

		if done.Phones.Len() != 1 {
			t.Errorf("finalized record was mutated through the caller's set: %v", done.Phones)
		}
	})

	t.Run("failure detail is kept", func(t *testing.T) {
		t.Parallel()

		done := BusinessRecord{}.Finalize(StatusFailed, nil, "connection refused")
		if done.Status != StatusFailed || done.FollowUpError != "connection refused" {
			t.Errorf("unexpected record: %+v", done)
		}
	})
}

// TestBusinessRecordJSON tests that absent fields encode as null.
func TestBusinessRecordJSON(t *testing.T) {
	t.Parallel()

	rec := BusinessRecord{Name: StringPtr("Cafe")}.Finalize(StatusNoWebsite, nil, "")
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	out := string(data)
	for _, want := range []string{`"name":"Cafe"`, `"offer":null`, `"website":null`, `"phones":[]`, `"status":"no_website"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

// TestBusinessRecordIdentity tests Key and Fingerprint.
func TestBusinessRecordIdentity(t *testing.T) {
	t.Parallel()

	base := BusinessRecord{
		Name:    StringPtr("Doral Cafe"),
		Website: StringPtr("https://cafe.example"),
	}.Finalize(StatusFetched, NewPhoneSet("3055551234"), "")

	t.Run("key ignores case and surrounding space", func(t *testing.T) {
		t.Parallel()

		other := base
		other.Name = StringPtr("  DORAL CAFE ")
		if base.Key() != other.Key() {
			t.Errorf("expected equal keys, got %q and %q", base.Key(), other.Key())
		}
	})

	t.Run("fingerprint changes with phones", func(t *testing.T) {
		t.Parallel()

		other := base.Finalize(StatusFetched, NewPhoneSet("3055559999"), "")
		if base.Fingerprint() == other.Fingerprint() {
			t.Error("expected fingerprints to differ")
		}
	})

	t.Run("fingerprint is stable", func(t *testing.T) {
		t.Parallel()

		if base.Fingerprint() != base.Fingerprint() {
			t.Error("fingerprint is not deterministic")
		}
		if len(base.Fingerprint()) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(base.Fingerprint()))
		}
	})
}
