package service

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ValidationError rejects a request whose payload is invalid. For batches it
// names every offending entry.
type ValidationError struct {
	Err *multierror.Error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Problems returns one message per offending field or entry
func (e *ValidationError) Problems() []string {
	out := make([]string, len(e.Err.Errors))
	for i, err := range e.Err.Errors {
		out[i] = err.Error()
	}
	return out
}

func joinProblems(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// problems collects validation failures
type problems struct {
	errs *multierror.Error
}

func (p *problems) addf(format string, args ...any) {
	p.errs = multierror.Append(p.errs, fmt.Errorf(format, args...))
}

func (p *problems) err() error {
	if p.errs == nil {
		return nil
	}
	p.errs.ErrorFormat = joinProblems
	return &ValidationError{Err: p.errs}
}

func invalid(format string, args ...any) error {
	var p problems
	p.addf(format, args...)
	return p.err()
}
