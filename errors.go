package flagkit

import "fmt"

// ConfigError is returned from repository construction when required
// configuration is missing or invalid (spec §7).
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "flagkit: config error: " + e.Reason }

// FetchError is returned/logged when a feature fetch fails: non-200
// response, transport failure, malformed JSON, an unrecognized
// payload shape, or an encrypted payload with no decryption key
// configured (spec §7). It is only surfaced to a caller via
// AwaitInitialization when it is the first fetch; later fetch
// failures are logged and the existing cache is preserved.
type FetchError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flagkit: fetch error: %s: %v", e.Reason, e.Err)
	}
	return "flagkit: fetch error: " + e.Reason
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecryptionError wraps a failure decoding or decrypting an
// encryptedFeatures payload: bad base64, wrong key, non-UTF-8
// plaintext (spec §7). It receives the same handling as FetchError.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string { return "flagkit: decryption error: " + e.Err.Error() }

func (e *DecryptionError) Unwrap() error { return e.Err }

// TimeoutError is returned by AwaitInitialization when the deadline
// passes before the repository leaves the pending state (spec §5).
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return "flagkit: initialization timed out" }

// StickyBucketError wraps a failure reading or writing assignments
// through a caller-supplied StickyBucketService. Sticky bucketing is
// the one piece of evaluation state with a real I/O boundary (spec's
// supplemented sticky-bucket plumbing), so it gets the same boundary
// treatment as ConfigError/FetchError/DecryptionError rather than
// surfacing a bare error from whatever backend the host plugged in.
type StickyBucketError struct {
	Op  string
	Err error
}

func (e *StickyBucketError) Error() string {
	return "flagkit: sticky bucket " + e.Op + ": " + e.Err.Error()
}

func (e *StickyBucketError) Unwrap() error { return e.Err }
