package arbor

import (
	"errors"
	"fmt"

	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/layout"
	"github.com/hupe1980/arbor/obs"
	"github.com/hupe1980/arbor/resource"
	"github.com/hupe1980/arbor/sample"
	"github.com/hupe1980/arbor/split"
)

var (
	// ErrInvalidConfig is returned for out-of-range training parameters.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidData is returned when the layout or response is malformed.
	ErrInvalidData = errors.New("invalid training data")

	// ErrEmptyBag is returned when sampling selects no rows.
	ErrEmptyBag = errors.New("empty bag")

	// ErrBufferOverflow is returned when a tree's observation buffers
	// cannot be sized or reserved.
	ErrBufferOverflow = errors.New("observation buffer overflow")

	// ErrContract is wrapped by the values of internal consistency panics.
	ErrContract = obs.ErrContract
)

// ConfigError reports an invalid training parameter.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Field string
	Value any
	cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}

func (e *ConfigError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.cause}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, frontier.ErrInvalidConfig) || errors.Is(err, split.ErrResponseKind) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if errors.Is(err, sample.ErrEmptyBag) {
		return fmt.Errorf("%w: %w", ErrEmptyBag, err)
	}
	if errors.Is(err, obs.ErrBufferOverflow) || errors.Is(err, resource.ErrExceedsLimit) {
		return fmt.Errorf("%w: %w", ErrBufferOverflow, err)
	}
	if errors.Is(err, layout.ErrInvalidLayout) || errors.Is(err, sample.ErrInvalidResponse) || errors.Is(err, obs.ErrFrameMismatch) {
		return fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	return err
}
