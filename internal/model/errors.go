package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the provider and the computation stages.
var (
	ErrDataUnavailable      = errors.New("data unavailable")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrAlignmentFailure     = errors.New("alignment failure")

	ErrUnsupportedSymbol = errors.New("unsupported symbol")
)

// SourceFailure names a data source and why it failed.
type SourceFailure struct {
	Source string
	Err    error
}

func (f SourceFailure) String() string {
	if f.Err == nil {
		return f.Source + ": ok"
	}
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// DataUnavailableError is returned when both the primary and the secondary
// source failed for a symbol.
type DataUnavailableError struct {
	Symbol    string
	Primary   SourceFailure
	Secondary SourceFailure
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s for %s: primary %s; secondary %s",
		ErrDataUnavailable, e.Symbol, e.Primary, e.Secondary)
}

// Unwrap exposes the sentinel and both underlying causes to errors.Is/As.
func (e *DataUnavailableError) Unwrap() []error {
	errs := []error{ErrDataUnavailable}
	if e.Primary.Err != nil {
		errs = append(errs, e.Primary.Err)
	}
	if e.Secondary.Err != nil {
		errs = append(errs, e.Secondary.Err)
	}
	return errs
}
