// Package migration creates and drops the tables of registered models.
//
// It only ever adds missing tables. There are no versioned migration files
// and no diffing against a live schema: a table that already exists is left
// as it is.
package migration

import (
	"fmt"

	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// Statement is one DDL statement together with the table it affects.
type Statement struct {
	Table string
	SQL   string
}

// SortTables orders tables so that every table comes after the tables its
// foreign keys reference. Tables without a dependency between them keep
// their input order. References to tables outside the set are ignored here
// and reported by validation instead.
func SortTables(tables []*schema.TableMetadata) ([]*schema.TableMetadata, error) {
	byName := make(map[string]*schema.TableMetadata, len(tables))
	for _, t := range tables {
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("table %s listed twice", t.Name)
		}
		byName[t.Name] = t
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(tables))
	sorted := make([]*schema.TableMetadata, 0, len(tables))

	var visit func(t *schema.TableMetadata, path []string) error
	visit = func(t *schema.TableMetadata, path []string) error {
		switch state[t.Name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("foreign key cycle: %v", append(path, t.Name))
		}
		state[t.Name] = visiting
		for _, ref := range t.ReferencedTables() {
			parent, ok := byName[ref]
			if !ok {
				continue
			}
			if err := visit(parent, append(path, t.Name)); err != nil {
				return err
			}
		}
		state[t.Name] = done
		sorted = append(sorted, t)
		return nil
	}

	for _, t := range tables {
		if err := visit(t, nil); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
