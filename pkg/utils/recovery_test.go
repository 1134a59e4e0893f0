package utils

import (
	"errors"
	"testing"
)

func TestRecoverAsError(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		fn := func() (err error) {
			defer RecoverAsError(&err)
			panic("test panic")
		}

		err := fn()
		if err == nil {
			t.Fatal("expected error from panic recovery")
		}

		var panicErr *PanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("expected PanicError, got %T", err)
		}

		if panicErr.Value != "test panic" {
			t.Errorf("expected panic value 'test panic', got %v", panicErr.Value)
		}

		if panicErr.StackTrace == "" {
			t.Error("expected stack trace to be populated")
		}
	})

	t.Run("no error when no panic", func(t *testing.T) {
		fn := func() (err error) {
			defer RecoverAsError(&err)
			return nil
		}

		if err := fn(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("preserves original error", func(t *testing.T) {
		originalErr := errors.New("original error")
		fn := func() (err error) {
			defer RecoverAsError(&err)
			return originalErr
		}

		if err := fn(); err != originalErr {
			t.Errorf("expected original error, got %v", err)
		}
	})
}

func TestRecoverWithCallback(t *testing.T) {
	t.Run("calls callback on panic", func(t *testing.T) {
		var capturedErr error
		fn := func() {
			defer RecoverWithCallback(func(err error) {
				capturedErr = err
			})
			panic("callback test")
		}

		fn()

		if capturedErr == nil {
			t.Fatal("expected callback to be called with error")
		}

		var panicErr *PanicError
		if !errors.As(capturedErr, &panicErr) {
			t.Fatalf("expected PanicError, got %T", capturedErr)
		}
	})

	t.Run("handles nil callback", func(t *testing.T) {
		fn := func() {
			defer RecoverWithCallback(nil)
			panic("nil callback test")
		}

		// Should not panic
		fn()
	})
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test value"}
	expected := "panic: test value"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
