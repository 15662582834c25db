package entitlements

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readerStub struct {
	active bool
	err    error
}

func (r readerStub) IsActive(context.Context, uuid.UUID) (bool, error) {
	return r.active, r.err
}

func TestHasAccess(t *testing.T) {
	tests := []struct {
		name    string
		reader  readerStub
		userID  uuid.UUID
		allowed bool
		wantErr bool
	}{
		{
			name:    "active subscription grants access",
			reader:  readerStub{active: true},
			userID:  uuid.New(),
			allowed: true,
		},
		{
			name:   "no subscription denies access",
			reader: readerStub{active: false},
			userID: uuid.New(),
		},
		{
			name:   "nil user denies without lookup",
			reader: readerStub{active: true},
			userID: uuid.Nil,
		},
		{
			name:    "lookup failure denies access",
			reader:  readerStub{err: errors.New("db down")},
			userID:  uuid.New(),
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewService(ServiceParams{Subscriptions: tc.reader})
			require.NoError(t, err)

			decision, err := svc.HasAccess(context.Background(), tc.userID)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.allowed, decision.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}
