package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapDriverError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		op     OperationType
		errnum int
		want   *Error
		kind   Kind
	}{
		{"connect always connection", errors.New("syntax weird"), OpConnect, 0, ErrConnectionFailed, KindConnection},
		{"duplicate by number", errors.New("Error 1062"), OpExec, 1062, ErrDuplicate, KindQuery},
		{"duplicate by text", errors.New("duplicate key value violates unique constraint"), OpExec, 0, ErrDuplicate, KindQuery},
		{"lost connection", errors.New("driver: bad connection"), OpStore, 0, ErrConnectionFailed, KindConnection},
		{"server gone", errors.New("MySQL server has gone away"), OpStore, 2006, ErrConnectionFailed, KindConnection},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), OpUse, 0, ErrTimeout, KindConnection},
		{"plain query", errors.New("You have an error in your SQL syntax"), OpExec, 1064, ErrBadQuery, KindQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDriverError(tt.err, tt.op, tt.errnum)
			if !errors.Is(got, tt.want) {
				t.Fatalf("MapDriverError() = %v, want %v", got, tt.want)
			}
			if KindOf(got) != tt.kind {
				t.Errorf("KindOf() = %v, want %v", KindOf(got), tt.kind)
			}
			if ErrnumOf(got) != tt.errnum {
				t.Errorf("ErrnumOf() = %d, want %d", ErrnumOf(got), tt.errnum)
			}
			if !errors.Is(got, tt.err) && !errors.Is(got, context.DeadlineExceeded) {
				t.Errorf("cause not preserved in %v", got)
			}
		})
	}

	if MapDriverError(nil, OpExec, 0) != nil {
		t.Error("MapDriverError(nil) should be nil")
	}
}

func TestMapDriverErrorKeepsClassifiedErrors(t *testing.T) {
	in := New(ErrMissingParam, "%q", "table")
	if got := MapDriverError(in, OpExec, 0); got != error(in) {
		t.Fatalf("expected classified error to pass through, got %v", got)
	}
}

func TestConversionError(t *testing.T) {
	err := NewConversionError("621.20.0", "float64", 8, nil)
	if !errors.Is(err, ErrBadConversion) {
		t.Error("conversion error should match ErrBadConversion")
	}
	if errors.Is(err, ErrNullValue) {
		t.Error("non-null conversion error should not match ErrNullValue")
	}
	if err.Retrieved != 8 || err.Expected != 8 {
		t.Errorf("sizes = %d/%d, want 8/8", err.Retrieved, err.Expected)
	}
	if !IsConversion(err) {
		t.Error("IsConversion() = false")
	}

	nullErr := NewNullConversionError("int32", 4)
	if !errors.Is(nullErr, ErrNullValue) || !errors.Is(nullErr, ErrBadConversion) {
		t.Errorf("null conversion error classification wrong: %v", nullErr)
	}
	if nullErr.Retrieved != 0 {
		t.Errorf("Retrieved = %d, want 0", nullErr.Retrieved)
	}
}

func TestModeFilter(t *testing.T) {
	err := errors.New("boom")
	if ReturnErrors.Filter(err) != err {
		t.Error("ReturnErrors should pass the error through")
	}
	if Sentinel.Filter(err) != nil {
		t.Error("Sentinel should swallow the error")
	}

	for in, want := range map[string]Mode{"": ReturnErrors, "throw": ReturnErrors, "codes": Sentinel, "sentinel": Sentinel} {
		got, ok := ParseMode(in)
		if !ok || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseMode("maybe"); ok {
		t.Error("ParseMode(maybe) should fail")
	}
}
