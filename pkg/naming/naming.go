// Canonical sequence names used as assignment keys.

package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yumyai/hlalocus/pkg/model"
)

// Normalizer derives the key a sequence is tracked under from its raw name.
type Normalizer func(raw string) string

// LocusNamer extracts a name (or locus token) from a record name.
// Unlike a Normalizer it may reject names that do not follow the convention.
type LocusNamer func(name string) (string, error)

var (
	subreadSuffix = regexp.MustCompile(`/\d+_\d+$`)
	ccsSuffix     = regexp.MustCompile(`/ccs$`)
)

// BaseName strips the decorations added by the consensus and subread tools:
// "Barcode1_Cluster0|quiver" -> "Barcode1_Cluster0", "m64/123/0_1500" -> "m64/123".
func BaseName(raw string) string {
	name := firstToken(raw)
	if i := strings.IndexByte(name, '|'); i > 0 {
		name = name[:i]
	}
	name = subreadSuffix.ReplaceAllString(name, "")
	return ccsSuffix.ReplaceAllString(name, "")
}

// Identity keeps the first whitespace token of the name.
func Identity(raw string) string {
	return firstToken(raw)
}

// FirstFieldUnlessMarked collapses "HLA-A_01_01" to "HLA-A" but leaves names
// carrying the "__" marker untouched.
func FirstFieldUnlessMarked(name string) (string, error) {
	name = firstToken(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty sequence name", model.ErrMalformedRecord)
	}
	if strings.Contains(name, "__") {
		return name, nil
	}
	return strings.Split(name, "_")[0], nil
}

// WholeName keys a reference record by its full first token.
func WholeName(name string) (string, error) {
	name = firstToken(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty sequence name", model.ErrMalformedRecord)
	}
	return name, nil
}

var normalizers = map[string]Normalizer{
	"base":     BaseName,
	"identity": Identity,
}

var locusNamers = map[string]LocusNamer{
	"first-field": FirstFieldUnlessMarked,
	"whole":       WholeName,
}

// ParseNormalizer looks up a normalizer by its setting name: "base" or "identity".
func ParseNormalizer(name string) (Normalizer, error) {
	if n, ok := normalizers[name]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("unknown normalizer %q (expected base or identity)", name)
}

// ParseLocusNamer looks up a reference record namer: "first-field" or "whole".
func ParseLocusNamer(name string) (LocusNamer, error) {
	if n, ok := locusNamers[name]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("unknown locus name rule %q (expected first-field or whole)", name)
}

// AmpliconLocus reads the locus out of amplicon names such as "Barcode3_HLA-B_Cluster0".
func AmpliconLocus(name string) (string, error) {
	fields := strings.Split(name, "_")
	if len(fields) < 2 || fields[1] == "" {
		return "", fmt.Errorf("%w: no locus field in %q", model.ErrMalformedRecord, name)
	}
	return fields[1], nil
}

func firstToken(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
