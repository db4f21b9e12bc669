package argerr_test

import (
	"errors"
	"testing"

	"github.com/argusmon/argus/internal/argerr"
)

func TestNew(t *testing.T) {
	cause := errors.New("port out of range")

	tests := []struct {
		name   string
		kind   error
		from   error
		format string
		args   []interface{}
		want   string
	}{
		{
			name:   "message_and_cause",
			kind:   argerr.ErrConfiguration,
			from:   cause,
			format: "endpoint %s",
			args:   []interface{}{"web-1"},
			want:   "endpoint web-1: port out of range",
		},
		{
			name:   "message_only",
			kind:   argerr.ErrNotification,
			format: "smtp server rejected recipient",
			want:   "smtp server rejected recipient",
		},
		{
			name: "cause_only",
			kind: argerr.ErrPersistence,
			from: cause,
			want: "port out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := argerr.New(tt.kind, tt.from, tt.format, tt.args...)

			if got := err.Error(); got != tt.want {
				t.Errorf("expected %q but got %q", tt.want, got)
			}

			if !errors.Is(err, tt.kind) {
				t.Errorf("errors.Is should match kind %v", tt.kind)
			}

			if tt.from != nil && !errors.Is(err, tt.from) {
				t.Errorf("errors.Is should match cause %v", tt.from)
			}

			if tt.from == nil && errors.Unwrap(err) != nil {
				t.Errorf("expected no cause but Unwrap returned %v", errors.Unwrap(err))
			}
		})
	}
}

func TestNew_kindsAreDistinct(t *testing.T) {
	err := argerr.New(argerr.ErrProbeFailure, nil, "connection refused")

	if errors.Is(err, argerr.ErrConfiguration) {
		t.Error("probe failure should not match the configuration kind")
	}
}
