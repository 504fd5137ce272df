package address

import (
	"errors"

	"github.com/xflash-panda/host-address/pkg/dialect"
)

var (
	// ErrAcquisition matches every AcquisitionError.
	ErrAcquisition = errors.New("acquisition failed")

	// ErrUnsupportedPlatform is returned when the platform tag has no dialect.
	ErrUnsupportedPlatform = dialect.ErrUnsupportedPlatform
)

// AcquisitionError reports that the text a lookup needs could not be
// obtained: the command failed or the file could not be read.
type AcquisitionError struct {
	Source string // Command line or file path
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err == nil {
		return "acquire " + e.Source
	}
	return "acquire " + e.Source + ": " + e.Err.Error()
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAcquisition) hold for any AcquisitionError.
func (e *AcquisitionError) Is(target error) bool {
	return target == ErrAcquisition
}
