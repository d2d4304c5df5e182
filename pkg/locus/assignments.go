package locus

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/pkg/model"
)

// Assignments maps sequence ids to loci. An id holds at most one locus:
// Insert never overwrites, a reassignment has to go through Replace.
// Iteration follows insertion order.
type Assignments struct {
	ids  []string
	loci map[string]string
}

func NewAssignments() *Assignments {
	return &Assignments{loci: make(map[string]string)}
}

// Insert assigns locus to id, failing with ErrDuplicateAssignment if id is already assigned.
func (a *Assignments) Insert(id, locus string) error {
	if id == "" {
		return fmt.Errorf("%w: empty sequence id", model.ErrMalformedRecord)
	}
	if existing, ok := a.loci[id]; ok {
		return fmt.Errorf("%w: %q (already assigned to %s, refusing %s)", model.ErrDuplicateAssignment, id, existing, locus)
	}
	a.loci[id] = locus
	a.ids = append(a.ids, id)
	return nil
}

func (a *Assignments) Get(id string) (string, bool) {
	locus, ok := a.loci[id]
	return locus, ok
}

// Lookup is Get for callers that treat a missing id as an error, which lets an
// Assignments act as the Reference of another resolution.
func (a *Assignments) Lookup(id string) (string, error) {
	if locus, ok := a.loci[id]; ok {
		return locus, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnknownTarget, id)
}

// Remove drops id and reports whether it was assigned.
func (a *Assignments) Remove(id string) bool {
	if _, ok := a.loci[id]; !ok {
		return false
	}
	delete(a.loci, id)
	for i, k := range a.ids {
		if k == id {
			a.ids = append(a.ids[:i], a.ids[i+1:]...)
			break
		}
	}
	return true
}

// Replace is the explicit update path: the old assignment is removed first.
func (a *Assignments) Replace(id, locus string) error {
	a.Remove(id)
	return a.Insert(id, locus)
}

func (a *Assignments) Len() int {
	return len(a.ids)
}

// All yields (id, locus) pairs in insertion order.
func (a *Assignments) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, id := range a.ids {
			if !yield(id, a.loci[id]) {
				return
			}
		}
	}
}

// Map returns a copy of the assignments as a plain map.
func (a *Assignments) Map() map[string]string {
	m := make(map[string]string, len(a.loci))
	for id, locus := range a.loci {
		m[id] = locus
	}
	return m
}

// WriteTo writes the key file encoding: one "<id> <locus>" line per assignment.
func (a *Assignments) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for id, locus := range a.All() {
		n, err := fmt.Fprintf(bw, "%s %s\n", id, locus)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// WriteKeyFile persists the assignments to path and checks the file landed.
func (a *Assignments) WriteKeyFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = a.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if a.Len() > 0 && !util.ValidFile(path) {
		return fmt.Errorf("%w: %s", model.ErrOutputNotProduced, path)
	}
	return nil
}
