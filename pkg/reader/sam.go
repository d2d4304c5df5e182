package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/biogo/hts/sam"

	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/model"
	"go.uber.org/zap"
)

type samReader struct {
	r      *sam.Reader
	source string
	// Alignment records read so far; header lines are consumed by sam.NewReader
	// and not counted, so errors name the record rather than a file line.
	records int
}

// NewSAMReader reads SAM alignments. Unmapped records carry no target and are skipped.
// The query strand comes from the reverse flag; SAM targets are always forward.
func NewSAMReader(r io.Reader, source string) (model.AlignmentReader, error) {
	sr, err := sam.NewReader(r)
	if err != nil {
		return nil, &model.RecordError{Source: source, Msg: fmt.Sprintf("invalid SAM header: %v", err)}
	}
	return &samReader{r: sr, source: source}, nil
}

func (s *samReader) Read() (model.Alignment, error) {
	for {
		rec, err := s.r.Read()
		if errors.Is(err, io.EOF) {
			return model.Alignment{}, io.EOF
		}
		if err != nil {
			return model.Alignment{}, &model.RecordError{Source: s.source, Record: s.records + 1, Msg: err.Error()}
		}
		s.records++

		if rec.Flags&sam.Unmapped != 0 || rec.Ref == nil {
			logger.Debug("Skipping unmapped SAM record", zap.String("qname", rec.Name))
			continue
		}

		strand := model.Forward
		if rec.Strand() < 0 {
			strand = model.Reverse
		}
		return model.Alignment{
			Query:        rec.Name,
			Target:       rec.Ref.Name(),
			QueryStrand:  strand,
			TargetStrand: model.Forward,
		}, nil
	}
}
