package oews

import "context"

// Approver handles user confirmation for destructive operations such as purging a year.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts the user to type the target for confirmation
type Approver interface {
	// RequestApproval asks to confirm the action described by target
	// (for example "year 2019 in database oews").
	// Returns true if approved, false if denied.
	RequestApproval(ctx context.Context, target string) (bool, error)
}
