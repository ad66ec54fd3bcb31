package sharing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

func newTestInvitation(status string) *models.Invitation {
	return &models.Invitation{
		ID:             uuid.New(),
		TodoID:         uuid.New(),
		OwnerEmail:     "owner@example.com",
		RecipientEmail: "alice@example.com",
		Permission:     models.PermissionEdit,
		Status:         status,
		CreatedAt:      time.Now(),
	}
}

func TestResolveResponse(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		actorEmail string
		accept     bool
		want       string
		wantErr    error
	}{
		{"accept pending", models.InvitationPending, "alice@example.com", true, models.InvitationAccepted, nil},
		{"reject pending", models.InvitationPending, "alice@example.com", false, models.InvitationRejected, nil},
		{"recipient case-insensitive", models.InvitationPending, "Alice@Example.COM", true, models.InvitationAccepted, nil},
		{"accept already accepted", models.InvitationAccepted, "alice@example.com", true, "", ErrAlreadyResponded},
		{"reject already accepted", models.InvitationAccepted, "alice@example.com", false, "", ErrAlreadyResponded},
		{"accept already rejected", models.InvitationRejected, "alice@example.com", true, "", ErrAlreadyResponded},
		{"owner cannot respond", models.InvitationPending, "owner@example.com", true, "", ErrNotRecipient},
		{"stranger cannot respond", models.InvitationPending, "bob@example.com", false, "", ErrNotRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newTestInvitation(tt.status)
			got, err := ResolveResponse(inv, tt.actorEmail, tt.accept)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// A response never transitions an invitation anywhere but to a
// terminal state, and a terminal invitation never transitions again.
func TestResolveResponse_ConsumedExactlyOnce(t *testing.T) {
	inv := newTestInvitation(models.InvitationPending)

	status, err := ResolveResponse(inv, "alice@example.com", true)
	require.NoError(t, err)
	inv.Status = status

	for _, accept := range []bool{true, false} {
		_, err := ResolveResponse(inv, "alice@example.com", accept)
		assert.ErrorIs(t, err, ErrAlreadyResponded)
	}
}
