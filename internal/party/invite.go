package party

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Invite codes skip lowercase and easily-confused characters so they survive
// being read out loud at a party.
const (
	inviteCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	inviteCodeLength   = 10
)

// newInviteCode generates a cryptographically random invite code.
func newInviteCode() (string, error) {
	code, err := gonanoid.Generate(inviteCodeAlphabet, inviteCodeLength)
	if err != nil {
		return "", fmt.Errorf("generating invite code: %w", err)
	}
	return code, nil
}
