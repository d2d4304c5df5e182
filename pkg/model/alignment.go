// Alignment evidence shared by every reader and resolver.

package model

import "fmt"

type Strand int8

const (
	Forward Strand = iota
	Reverse
)

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// ParseStrand accepts the blasr encodings: "0"/"1" (m1) and "+"/"-" (m5).
func ParseStrand(field string) (Strand, error) {
	switch field {
	case "0", "+":
		return Forward, nil
	case "1", "-":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("invalid strand %q", field)
}

// Alignment is one observed hit between a query and a target sequence.
// Readers hand out values, so a parsed record is never modified.
type Alignment struct {
	Query        string
	Target       string
	QueryStrand  Strand
	TargetStrand Strand

	// Edit counts are only reported by the richer formats (blasr m5).
	HasCounts  bool
	Mismatches int
	Insertions int
	Deletions  int

	// Line is the source text of the record, without the newline.
	Line string
}

func (a Alignment) EditScore() int {
	return a.Mismatches + a.Insertions + a.Deletions
}

// Reversed reports whether the query aligned on the opposite strand of its target.
func (a Alignment) Reversed() bool {
	return a.QueryStrand != a.TargetStrand
}

// AlignmentReader yields records until io.EOF. Readers cannot be rewound.
type AlignmentReader interface {
	Read() (Alignment, error)
}
