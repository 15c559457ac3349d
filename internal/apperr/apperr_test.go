package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindNotAllowed, http.StatusNotAcceptable},
		{KindAlreadyExists, http.StatusConflict},
		{KindAlreadyDone, http.StatusOK},
		{KindIo, http.StatusInternalServerError},
		{KindServerClosingInProgress, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.kind); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := New(KindNotFound, "storage.Read", errors.New("row missing"))
	wrapped := errors.New("context: " + base.Error())
	if KindOf(wrapped) != KindUnknown {
		t.Error("plain wrapping via string concat should not carry Kind")
	}

	wrapped2 := &Error{Kind: KindNotFound, Op: "x", Err: base}
	if KindOf(wrapped2) != KindNotFound {
		t.Error("errors.As should unwrap nested *Error")
	}
}

func TestIs(t *testing.T) {
	err := New(KindAlreadyDone, "chat.Like", nil)
	if !Is(err, KindAlreadyDone) {
		t.Error("expected Is to match KindAlreadyDone")
	}
	if Is(nil, KindAlreadyDone) {
		t.Error("nil error should never match")
	}
}
