package pipeline

import "fmt"

// IOError reports an artifact that could not be written.
type IOError struct {
	Destination string
	Err         error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Destination, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
