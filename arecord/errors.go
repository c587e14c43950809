package arecord

import "fmt"

// InvalidAddressError is returned from [Canonicalize]
// when the record's address is not a valid hex field element.
type InvalidAddressError struct {
	Address string
	Err     error
}

func (e InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Address, e.Err)
}

func (e InvalidAddressError) Unwrap() error {
	return e.Err
}

// InvalidTimestampError is returned from [Canonicalize]
// when the record's timestamp is not a valid hex field element.
type InvalidTimestampError struct {
	Timestamp string
	Err       error
}

func (e InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %v", e.Timestamp, e.Err)
}

func (e InvalidTimestampError) Unwrap() error {
	return e.Err
}
