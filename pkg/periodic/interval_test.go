package periodic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periodicd/internal/shared"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "go duration", in: "250ms", want: 250 * time.Millisecond},
		{name: "compound duration", in: " 1m30s ", want: 90 * time.Second},
		{name: "every descriptor", in: "@every 5m", want: 5 * time.Minute},
		{name: "every truncates sub-second", in: "@every 1500ms", want: time.Second},
		{name: "every rounds up to one second", in: "@every 10ms", want: time.Second},
		{name: "empty", in: "", wantErr: true},
		{name: "zero", in: "0s", wantErr: true},
		{name: "negative", in: "-1s", wantErr: true},
		{name: "garbage", in: "soon", wantErr: true},
		{name: "calendar descriptor", in: "@hourly", wantErr: true},
		{name: "bad every", in: "@every never", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInterval)
				assert.ErrorIs(t, err, shared.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
