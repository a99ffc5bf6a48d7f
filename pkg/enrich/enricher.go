// pkg/enrich/enricher.go
package enrich

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// Enricher improves one aspect of a dataset's FAIR compliance. Enrich works
// on a deep copy and returns it; the input dataset is never modified.
// Running Enrich on its own output records no further changes.
type Enricher interface {
	Name() string
	Enrich(ds *model.Dataset) (*model.Dataset, error)
	Validate(ds *model.Dataset) bool
	Summary() Summary
}

// Summary reports what the last Enrich call did
type Summary struct {
	Enricher    string         `json:"enricher"`
	ChangesMade int            `json:"changes_made"`
	IssuesFound int            `json:"issues_found"`
	Changes     []model.Change `json:"changes"`
	Issues      []model.Issue  `json:"issues"`
}

// base carries the logger and ledger shared by every enricher
type base struct {
	name   string
	logger *zap.Logger
	ledger model.Ledger
}

func newBase(name string, logger *zap.Logger) (base, error) {
	if logger == nil {
		return base{}, errors.New("logger cannot be nil")
	}
	return base{name: name, logger: logger.Named(name)}, nil
}

// Name returns the registry name of the enricher
func (b *base) Name() string {
	return b.name
}

// Summary returns the ledger of the last Enrich call
func (b *base) Summary() Summary {
	changes := b.ledger.Changes()
	issues := b.ledger.Issues()
	return Summary{
		Enricher:    b.name,
		ChangesMade: len(changes),
		IssuesFound: len(issues),
		Changes:     changes,
		Issues:      issues,
	}
}

// begin resets the ledger and returns the copy to be enriched
func (b *base) begin(ds *model.Dataset, msg string) *model.Dataset {
	b.ledger = model.Ledger{}
	b.logger.Info(msg, zap.String("dataset", ds.Path))
	return ds.Clone()
}

func (b *base) change(changeType, details string) {
	b.ledger.Change(changeType, details)
	b.logger.Debug(details, zap.String("change", changeType))
}

func (b *base) issue(issueType, details string) {
	b.ledger.Issue(issueType, details)
	b.logger.Warn(details, zap.String("issue", issueType))
}

// addAttr sets an attribute only when it is absent and records the change
func (b *base) addAttr(attrs *model.Attrs, key string, value interface{}, details string) bool {
	if !attrs.SetDefault(key, value) {
		return false
	}
	b.change("attribute_added", details)
	return true
}

// addVarAttr is addAttr with the "<var>: <key> = <value>" wording
func (b *base) addVarAttr(v *model.Variable, key string, value interface{}) bool {
	return b.addAttr(v.Attrs, key, value, fmt.Sprintf("%s: %s = %v", v.Name, key, value))
}

// replacement rewrites one substring of a generated long name
type replacement struct{ from, to string }

// titleName turns "sea_water_temp" into "Sea Water Temperature": words are
// capitalized, then the first replacement whose prefix matches a word is
// applied to it. A word that already starts with the expansion is kept.
func titleName(name string, replacements []replacement) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		w = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
		for _, r := range replacements {
			if strings.HasPrefix(w, r.from) && !strings.HasPrefix(w, r.to) {
				w = r.to + w[len(r.from):]
				break
			}
		}
		words[i] = w
	}
	return strings.Join(words, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func missingAttrs(attrs *model.Attrs, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if !attrs.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}
