package metrics

import "errors"

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCommand forwards the event to every sink. A failing sink does not
// prevent delivery to the others; all errors are joined.
func (m *MultiSink) RecordCommand(ev CommandEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordCommand(ev))
	}
	return errors.Join(errs...)
}

// RecordReply forwards the event to every sink.
func (m *MultiSink) RecordReply(ev ReplyEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordReply(ev))
	}
	return errors.Join(errs...)
}

// RecordAPIRequest forwards the event to every sink.
func (m *MultiSink) RecordAPIRequest(ev APIEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordAPIRequest(ev))
	}
	return errors.Join(errs...)
}

// Close closes every sink holding a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			c.Close()
		}
	}
}

// RecordMessage forwards the event to every sink tracking device traffic.
func (m *MultiSink) RecordMessage(ev MessageEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(MessageRecorder); ok {
			errs = append(errs, r.RecordMessage(ev))
		}
	}
	return errors.Join(errs...)
}
