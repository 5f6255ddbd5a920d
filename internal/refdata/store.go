// Package refdata loads the personnel directory and the document-category cluster table
// once per process and answers read-only lookups against them.
package refdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/pkg/utils"
)

// Column names of the reference tables.
const (
	ColumnFirstName = "Nome"
	ColumnLastName  = "Cognome"
	ColumnCategory  = "Categoria Doc"
	ColumnClusterID = "Cluster ID"
)

// Store holds both reference tables. It is never mutated after construction and is
// safe for concurrent readers.
type Store struct {
	personnel []models.Record
	clusters  []models.Cluster
}

// Stats reports table sizes.
type Stats struct {
	Personnel int `json:"personnel"`
	Clusters  int `json:"clusters"`
}

// New builds a store from in-memory rows. Rows are copied.
func New(personnel []models.Record, clusters []models.Cluster) *Store {
	s := &Store{
		personnel: make([]models.Record, len(personnel)),
		clusters:  append([]models.Cluster(nil), clusters...),
	}
	for i, r := range personnel {
		s.personnel[i] = r.Clone()
	}
	return s
}

// Load reads the personnel and cluster tables from disk. A table that cannot be read is
// left empty and its error is included in the returned (joined) error; the returned
// store is always usable so callers can log and continue with "no match" enrichment.
func Load(personnelPath, clustersPath string) (*Store, error) {
	var errs []error
	personnel, err := ReadTable(personnelPath)
	if err != nil {
		errs = append(errs, fmt.Errorf("personnel table: %w", err))
		personnel = nil
	}
	rows, err := ReadTable(clustersPath)
	if err != nil {
		errs = append(errs, fmt.Errorf("cluster table: %w", err))
		rows = nil
	}
	clusters := make([]models.Cluster, 0, len(rows))
	for _, r := range rows {
		category, _ := r.Get(ColumnCategory)
		clusterID, _ := r.Get(ColumnClusterID)
		clusters = append(clusters, models.Cluster{Category: category, ClusterID: clusterID})
	}
	return &Store{personnel: personnel, clusters: clusters}, errors.Join(errs...)
}

// FindPerson returns every personnel row whose first name contains firstFragment and whose
// last name contains lastFragment, both compared case-insensitively, in table order.
func (s *Store) FindPerson(firstFragment, lastFragment string) []models.Record {
	if s == nil {
		return nil
	}
	var out []models.Record
	for _, row := range s.personnel {
		first, _ := row.Get(ColumnFirstName)
		last, _ := row.Get(ColumnLastName)
		if utils.ContainsFold(first, firstFragment) && utils.ContainsFold(last, lastFragment) {
			out = append(out, row.Clone())
		}
	}
	return out
}

// LookupCluster returns the cluster rows whose category equals category, ignoring case
// and surrounding whitespace.
func (s *Store) LookupCluster(category string) []models.Cluster {
	if s == nil {
		return nil
	}
	want := strings.TrimSpace(category)
	var out []models.Cluster
	for _, c := range s.clusters {
		if strings.EqualFold(strings.TrimSpace(c.Category), want) {
			out = append(out, c)
		}
	}
	return out
}

// Stats returns the number of loaded rows per table.
func (s *Store) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{Personnel: len(s.personnel), Clusters: len(s.clusters)}
}
