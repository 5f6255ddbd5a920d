// Package reconcile links extracted identity fields to a personnel reference row.
package reconcile

import (
	"go.uber.org/zap"

	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/pkg/utils"
)

// Directory finds personnel rows by first/last name fragments, in table order.
type Directory interface {
	FindPerson(firstFragment, lastFragment string) []models.Record
}

// Reconciler picks the enrichment record for an extraction result.
type Reconciler struct {
	dir    Directory
	logger *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets a logger for match diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// New returns a Reconciler over dir. A nil dir never matches.
func New(dir Directory, opts ...Option) *Reconciler {
	r := &Reconciler{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Match returns the first personnel row whose first and last names contain the extracted
// name and surname (case-insensitive), or an empty record when none does. Ambiguous
// matches are not disambiguated.
func (r *Reconciler) Match(result models.ExtractionResult) models.Record {
	if r.dir == nil {
		return models.Record{}
	}
	matches := r.dir.FindPerson(result.Name, result.Surname)
	if len(matches) == 0 {
		r.logger.Debug("no personnel match", zap.String("name", result.Name), zap.String("surname", result.Surname))
		return models.Record{}
	}
	if len(matches) > 1 {
		r.logger.Debug("multiple personnel matches, using first",
			zap.String("name", result.Name),
			zap.String("surname", result.Surname),
			zap.Int("matches", len(matches)),
		)
	}
	return matches[0]
}
