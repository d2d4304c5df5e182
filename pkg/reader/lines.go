package reader

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/yumyai/hlalocus/pkg/model"
)

// ScanPairs calls fn for every "<first> <second>" line, as found in key files
// and reference manifests. Blank lines are skipped.
func ScanPairs(r io.Reader, source string, fn func(first, second string) error) error {
	return scanFields(r, source, 2, func(fields []string) error {
		return fn(fields[0], fields[1])
	})
}

// ScanPaths calls fn for every non-blank line of a one-path-per-line manifest.
func ScanPaths(r io.Reader, source string, fn func(path string) error) error {
	return scanFields(r, source, 1, func(fields []string) error {
		return fn(fields[0])
	})
}

func scanFields(r io.Reader, source string, want int, fn func(fields []string) error) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != want {
			return &model.RecordError{
				Source: source,
				Line:   line,
				Msg:    fmt.Sprintf("expected %d fields, found %d", want, len(fields)),
			}
		}
		if err := fn(fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}
	return nil
}
