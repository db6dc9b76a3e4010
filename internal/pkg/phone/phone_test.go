package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "national mobile", raw: "9998887776", want: "9998887776"},
		{name: "spaces and dashes", raw: " 999-888 7776 ", want: "9998887776"},
		{name: "international with plus", raw: "+62 812-3456-7890", want: "6281234567890"},
		{name: "fifteen digits", raw: "123456789012345", want: "123456789012345"},
		{name: "too short", raw: "12345", wantErr: true},
		{name: "too long", raw: "1234567890123456", wantErr: true},
		{name: "letters", raw: "99988877ab", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFormat)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
