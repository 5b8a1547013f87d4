package model

// RecordChange pairs the previous and current version of one business.
type RecordChange struct {
	Previous BusinessRecord `json:"previous"`
	Current  BusinessRecord `json:"current"`
}

// PhonesChanged reports whether the phone set differs between versions.
func (c RecordChange) PhonesChanged() bool {
	return !c.Previous.Phones.Equal(c.Current.Phones)
}

// RunDiff describes what changed between two crawl runs of the same seed.
type RunDiff struct {
	// Added are businesses present only in the current run.
	Added []BusinessRecord `json:"added"`

	// Removed are businesses present only in the previous run.
	Removed []BusinessRecord `json:"removed"`

	// Changed are businesses present in both runs whose data differs.
	Changed []RecordChange `json:"changed"`

	// Unchanged counts businesses identical in both runs.
	Unchanged int `json:"unchanged"`
}

// Empty reports whether the two runs were identical.
func (d RunDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffRecords compares two sets of records by Key and Fingerprint.
// Output slices follow the order of the input slices.
func DiffRecords(previous, current []BusinessRecord) RunDiff {
	diff := RunDiff{
		Added:   make([]BusinessRecord, 0),
		Removed: make([]BusinessRecord, 0),
		Changed: make([]RecordChange, 0),
	}

	prevByKey := make(map[string]BusinessRecord, len(previous))
	for _, rec := range previous {
		prevByKey[rec.Key()] = rec
	}

	seen := make(map[string]bool, len(current))
	for _, rec := range current {
		key := rec.Key()
		seen[key] = true

		prev, ok := prevByKey[key]
		switch {
		case !ok:
			diff.Added = append(diff.Added, rec)
		case prev.Fingerprint() != rec.Fingerprint():
			diff.Changed = append(diff.Changed, RecordChange{Previous: prev, Current: rec})
		default:
			diff.Unchanged++
		}
	}

	for _, rec := range previous {
		if !seen[rec.Key()] {
			diff.Removed = append(diff.Removed, rec)
		}
	}

	return diff
}
