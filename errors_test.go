package libjournal

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapErrClassifiesKind(t *testing.T) {
	err := wrapErr("read", syscall.ENOSPC)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, KindNoSpace, je.Kind)
	require.Equal(t, "read", je.Op)
	require.True(t, errors.Is(err, syscall.ENOSPC))
}

func TestWrapErrNilIsNil(t *testing.T) {
	require.NoError(t, wrapErr("op", nil))
}

func TestWrapErrPassesThroughAlreadyWrapped(t *testing.T) {
	inner := &Error{Op: "inner", Kind: KindBusy}
	got := wrapErr("outer", inner)
	require.Same(t, inner, got)
}

func TestErrorMessageIncludesKindAndOp(t *testing.T) {
	err := &Error{Op: "commit", Kind: KindIO, Err: errors.New("disk error")}
	require.Contains(t, err.Error(), "commit")
	require.Contains(t, err.Error(), "io")
	require.Contains(t, err.Error(), "disk error")
}
