package cook

import "fmt"

// InputError marks a fatal, input-level failure: the trace file is absent
// or cannot be read. It is the one error class the core surfaces to
// callers; parse-level and semantic normalization failures are always
// absorbed into deterministic fallbacks (§7) and never raised.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("cook: read input %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
