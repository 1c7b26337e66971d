package store

// FailFast is a store that replays a construction error on every call. It
// lets a misconfigured host keep running with credentials unavailable
// instead of aborting at startup.
type FailFast struct {
	err *DeferredError
}

// NewFailFast captures err. A nil err is replaced with a generic one so the
// store never reports success.
func NewFailFast(err error) *FailFast {
	if err == nil {
		err = ErrValidation
	}
	return &FailFast{err: &DeferredError{Err: err}}
}

// GetRaw always fails with the captured error.
func (s *FailFast) GetRaw(key []byte) ([]byte, bool, error) {
	return nil, false, s.err
}

// PutRaw always fails with the captured error.
func (s *FailFast) PutRaw(key, value []byte) error {
	return s.err
}

// Salt returns LegacySalt so key derivation above this layer still works.
func (s *FailFast) Salt() []byte {
	return append([]byte(nil), LegacySalt...)
}

// Cause returns the captured error.
func (s *FailFast) Cause() error {
	return s.err.Err
}

func (s *FailFast) Close() error {
	return nil
}
