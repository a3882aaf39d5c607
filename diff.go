package rpgtl

// DiffResult represents the difference between the units of two versions
// of a document.
type DiffResult struct {
	// Added contains units at paths that did not exist before.
	Added []TextUnit `json:"added"`

	// Removed contains units whose path no longer holds text.
	Removed []TextUnit `json:"removed"`

	// Unchanged contains units whose path and text are the same in both.
	Unchanged []TextUnit `json:"unchanged"`

	// Modified contains units whose path survived but whose text changed.
	Modified []ModifiedUnit `json:"modified"`
}

// ModifiedUnit pairs the old and new versions of a unit at one path.
type ModifiedUnit struct {
	Old TextUnit `json:"old"`
	New TextUnit `json:"new"`
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Modified  int `json:"modified"`
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the units that need to be translated.
// This includes new units and modified units, in document order of the
// new version.
func (d *DiffResult) NeedsTranslation() []TextUnit {
	result := make([]TextUnit, 0, len(d.Added)+len(d.Modified))
	result = append(result, d.Added...)
	for _, m := range d.Modified {
		result = append(result, m.New)
	}
	return result
}

// DiffUnits compares the units extracted from two versions of a document,
// matching them by path. Whitespace-only edits count as unchanged.
// Added, Unchanged and Modified follow the order of newUnits; Removed
// follows oldUnits.
func DiffUnits(oldUnits, newUnits []TextUnit) *DiffResult {
	result := &DiffResult{}

	oldByPath := make(map[string]TextUnit, len(oldUnits))
	for _, unit := range oldUnits {
		oldByPath[unit.Path.String()] = unit
	}
	newPaths := make(map[string]bool, len(newUnits))

	for _, unit := range newUnits {
		key := unit.Path.String()
		newPaths[key] = true

		old, existed := oldByPath[key]
		switch {
		case !existed:
			result.Added = append(result.Added, unit)
		case old.Hash() == unit.Hash():
			result.Unchanged = append(result.Unchanged, unit)
		default:
			result.Modified = append(result.Modified, ModifiedUnit{Old: old, New: unit})
		}
	}

	for _, unit := range oldUnits {
		if !newPaths[unit.Path.String()] {
			result.Removed = append(result.Removed, unit)
		}
	}

	return result
}
