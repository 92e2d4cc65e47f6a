package rule

// Sink persists audit and violation entries. Implementations must make each
// append a single atomic write so concurrent checks never interleave
// partial lines.
type Sink interface {
	Append(e Entry) error
}

// NopSink discards entries. Used in tests and dry runs.
type NopSink struct{}

// Append implements Sink.
func (NopSink) Append(Entry) error { return nil }

var _ Sink = NopSink{}
