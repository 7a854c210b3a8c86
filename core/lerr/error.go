package lerr

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// As is errors.As, re-exported so callers matching on error kinds need a single import
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Errors accumulates LemmaError values, for operations which keep going
// after the first failure (like loading a library of declarations)
type Errors struct {
	errs []LemmaError
}

func (r *Errors) With(err ...LemmaError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []LemmaError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Err returns nil when r holds no errors, so that it can be returned as a plain error
func (r *Errors) Err() error {
	if !r.HasError() {
		return nil
	}
	return r
}

func (r *Errors) Error() string {
	sb := &strings.Builder{}
	for i, e := range r.Errors() {
		if i != 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatWithCode(e))
	}
	return sb.String()
}

// Unwrap allows errors.As to find any of the accumulated errors
func (r *Errors) Unwrap() []error {
	errs := make([]error, len(r.Errors()))
	for i, e := range r.Errors() {
		errs[i] = e
	}
	return errs
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
