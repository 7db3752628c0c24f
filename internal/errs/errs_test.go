package errs

import (
	"errors"
	"testing"
)

func TestTradeErrorIsMatchesByKind(t *testing.T) {
	t.Parallel()

	err := OrderNotFound("ord-123")
	if !errors.Is(err, New(KindOrderNotFound)) {
		t.Errorf("errors.Is should match on Kind regardless of Body")
	}
	if errors.Is(err, New(KindOrderNotFilled)) {
		t.Errorf("errors.Is should not match a different Kind")
	}
}

func TestLegSendErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		leg  int
		want Kind
	}{
		{1, KindFirstTriSendError},
		{2, KindSecondTriSendError},
		{3, KindThirdTriSendError},
		{4, KindUnknown},
	}
	for _, tt := range tests {
		if got := LegSendError(tt.leg).Kind; got != tt.want {
			t.Errorf("LegSendError(%d).Kind = %v, want %v", tt.leg, got, tt.want)
		}
	}
}

func TestLegFilledErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		leg  int
		want Kind
	}{
		{1, KindFirstTriFilledError},
		{2, KindSecondTriFilledError},
		{3, KindThirdTriFilledError},
		{0, KindUnknown},
	}
	for _, tt := range tests {
		if got := LegFilledError(tt.leg).Kind; got != tt.want {
			t.Errorf("LegFilledError(%d).Kind = %v, want %v", tt.leg, got, tt.want)
		}
	}
}

func TestTradeErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := Wrap(KindTransportFailure, cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should see through Unwrap to the wrapped cause")
	}
}
