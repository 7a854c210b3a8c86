package lerr_test

import (
	"fmt"
	"testing"

	"github.com/cottand/lemma/core/lerr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCode(t *testing.T) {
	err := lerr.New(lerr.UnknownTypeError{Name: "weekday"})
	assert.Equal(t, "(E002) type 'weekday' is not declared", lerr.FormatWithCode(err))
}

func TestAsThroughWrapping(t *testing.T) {
	err := errors.Wrapf(lerr.New(lerr.InapplicableTacticError{Tactic: "split", Expected: "a conjunction", Found: "A \\/ B"}), "in goal %d", 1)

	var target lerr.InapplicableTacticError
	require.True(t, lerr.As(err, &target))
	assert.Equal(t, "split", target.Tactic)
	assert.Equal(t, lerr.InapplicableTactic, lerr.CodeOf(err))
	assert.Equal(t, lerr.None, lerr.CodeOf(fmt.Errorf("plain")))
}

func TestErrorsAccumulate(t *testing.T) {
	var errs *lerr.Errors
	assert.False(t, errs.HasError())
	assert.NoError(t, errs.Err())

	errs = errs.With(lerr.New(lerr.RedeclarationError{Kind: "type", Name: "day"}))
	errs = errs.Merge((&lerr.Errors{}).With(lerr.New(lerr.UnknownFunctionError{Name: "f"})))
	require.True(t, errs.HasError())
	assert.Len(t, errs.Errors(), 2)

	var unknown lerr.UnknownFunctionError
	assert.True(t, lerr.As(errs.Err(), &unknown))
	assert.Contains(t, errs.Error(), "(E001) type 'day' is already declared")
}
