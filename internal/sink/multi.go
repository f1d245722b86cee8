package sink

import (
	"errors"

	"github.com/tutomart/pricescout/internal/scrape"
)

// Multi fans one export out to several sinks. Every sink gets the records
// even when an earlier one fails; the errors are joined.
type Multi struct {
	sinks []scrape.ArtifactSink
}

// NewMulti builds a fan-out sink, skipping nil members.
func NewMulti(sinks ...scrape.ArtifactSink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Write(site string, records []scrape.ProductRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(site, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
