// pkg/model/ledger.go
package model

// Change records one modification made by an enricher
type Change struct {
	Type    string `json:"type"`    // Kind of change (e.g., "attribute_added")
	Details string `json:"details"` // Human readable description
}

// Issue records a problem an enricher found but could not fix
type Issue struct {
	Type    string `json:"type"`    // Kind of issue (e.g., "missing_depth")
	Details string `json:"details"` // Human readable description
}

// Ledger accumulates the changes and issues of one enrichment pass
type Ledger struct {
	changes []Change
	issues  []Issue
}

// Change appends a change record
func (l *Ledger) Change(changeType, details string) {
	l.changes = append(l.changes, Change{Type: changeType, Details: details})
}

// Issue appends an issue record
func (l *Ledger) Issue(issueType, details string) {
	l.issues = append(l.issues, Issue{Type: issueType, Details: details})
}

// Merge appends another ledger's records after this one's
func (l *Ledger) Merge(other Ledger) {
	l.changes = append(l.changes, other.changes...)
	l.issues = append(l.issues, other.issues...)
}

// Changes returns a copy of the change records
func (l Ledger) Changes() []Change {
	return append([]Change{}, l.changes...)
}

// Issues returns a copy of the issue records
func (l Ledger) Issues() []Issue {
	return append([]Issue{}, l.issues...)
}

// HasIssue reports whether an issue of the given type was recorded
func (l Ledger) HasIssue(issueType string) bool {
	for _, i := range l.issues {
		if i.Type == issueType {
			return true
		}
	}
	return false
}

// Resolve returns the first candidate accepted by has
func Resolve(candidates []string, has func(string) bool) (string, bool) {
	for _, c := range candidates {
		if has(c) {
			return c, true
		}
	}
	return "", false
}
