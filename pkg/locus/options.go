package locus

import (
	"fmt"

	"github.com/yumyai/hlalocus/pkg/metrics"
	"github.com/yumyai/hlalocus/pkg/model"
	"github.com/yumyai/hlalocus/pkg/naming"
)

// Reference translates a raw target (or locus token) into a locus label.
type Reference interface {
	Lookup(id string) (string, error)
}

// StaticReference is a fixed target -> locus table.
type StaticReference map[string]string

func (r StaticReference) Lookup(id string) (string, error) {
	if locus, ok := r[id]; ok {
		return locus, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnknownTarget, id)
}

type Options struct {
	// Normalize derives assignment keys from query names. Defaults to naming.BaseName.
	Normalize naming.Normalizer

	// LocusName derives the key of reference-manifest records.
	// Defaults to naming.FirstFieldUnlessMarked.
	LocusName naming.LocusNamer

	// Reference, when set, translates raw targets to locus labels.
	Reference Reference

	Metrics *metrics.Recorder
}

func (o Options) normalize(raw string) string {
	if o.Normalize == nil {
		return naming.BaseName(raw)
	}
	return o.Normalize(raw)
}

func (o Options) locusName(name string) (string, error) {
	if o.LocusName == nil {
		return naming.FirstFieldUnlessMarked(name)
	}
	return o.LocusName(name)
}

func (o Options) translate(target string) (string, error) {
	if o.Reference == nil {
		return target, nil
	}
	return o.Reference.Lookup(target)
}
