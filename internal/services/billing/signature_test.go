package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1_700_000_000, 0)
	valid := Sign(secret, payload, now)

	tests := []struct {
		name    string
		header  string
		payload []byte
		secret  string
		now     time.Time
		wantErr error
	}{
		{name: "valid", header: valid, payload: payload, secret: secret, now: now},
		{name: "valid within tolerance", header: valid, payload: payload, secret: secret, now: now.Add(4 * time.Minute)},
		{
			name:    "rotated secret second v1 matches",
			header:  "t=1700000000,v1=deadbeef," + valid[len("t=1700000000,"):],
			payload: payload, secret: secret, now: now,
		},
		{name: "empty header", header: "", payload: payload, secret: secret, now: now, wantErr: ErrInvalidSignature},
		{name: "empty secret", header: valid, payload: payload, secret: "", now: now, wantErr: ErrInvalidSignature},
		{name: "no timestamp", header: "v1=abcd", payload: payload, secret: secret, now: now, wantErr: ErrInvalidSignature},
		{name: "no v1", header: "t=1700000000", payload: payload, secret: secret, now: now, wantErr: ErrInvalidSignature},
		{name: "bad timestamp", header: "t=abc,v1=abcd", payload: payload, secret: secret, now: now, wantErr: ErrInvalidSignature},
		{name: "tampered body", header: valid, payload: []byte(`{"id":"evt_2"}`), secret: secret, now: now, wantErr: ErrInvalidSignature},
		{name: "wrong secret", header: valid, payload: payload, secret: "other", now: now, wantErr: ErrInvalidSignature},
		{name: "too old", header: valid, payload: payload, secret: secret, now: now.Add(6 * time.Minute), wantErr: ErrStaleSignature},
		{name: "from the future", header: valid, payload: payload, secret: secret, now: now.Add(-6 * time.Minute), wantErr: ErrStaleSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.header, tt.payload, tt.secret, 5*time.Minute, tt.now)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
