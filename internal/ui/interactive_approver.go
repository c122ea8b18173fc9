package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/oews/pkg/oews"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the target (the year
// being purged) to confirm.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover on stdin and stderr.
func NewInteractiveApprover(verbose bool) oews.Approver {
	return &InteractiveApprover{verbose: verbose, input: os.Stdin, output: os.Stderr}
}

// RequestApproval prompts the user to type target to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DELETE every row of year %s\n", target)
	fmt.Fprintln(a.output, "This will permanently delete the year's data; re-import its source to restore it.")
	fmt.Fprintf(a.output, "\nTo confirm, type the year '%s' and press Enter: ", target)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == target {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with purge...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match '%s'. Operation cancelled.\n", input, target)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ oews.Approver = (*InteractiveApprover)(nil)
