package sharing

import (
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

// ResolveResponse decides the terminal status for an invitation
// response. Only the recipient may respond, and only while the
// invitation is still pending; a consumed invitation stays terminal.
func ResolveResponse(inv *models.Invitation, actorEmail string, accept bool) (string, error) {
	if !models.EqualEmail(inv.RecipientEmail, actorEmail) {
		return "", ErrNotRecipient
	}
	if inv.Status != models.InvitationPending {
		return "", ErrAlreadyResponded
	}
	if accept {
		return models.InvitationAccepted, nil
	}
	return models.InvitationRejected, nil
}
