package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// out writes to w, ignoring the write error: stderr prompts have no
// recovery path worth the caller checking.
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is out's Fprintln counterpart.
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// promptPassword prompts for a password with hidden input.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter vault password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < 8 {
		zero(password)
		invalid := sniperr.New("INVALID_INPUT", "password must be at least 8 characters")
		invalid.ExitCode = sniperr.ExitInput
		return nil, invalid
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		zero(password)
		return nil, err
	}
	defer zero(confirm)

	if string(password) != string(confirm) {
		zero(password)
		mismatch := sniperr.New("INVALID_INPUT", "passwords do not match")
		mismatch.ExitCode = sniperr.ExitInput
		return nil, mismatch
	}

	return password, nil
}

// promptConfirmation asks the user to confirm a destructive action.
func promptConfirmation(prompt string) bool {
	out(os.Stderr, "%s [y/N]: ", prompt)

	var response string
	_, err := fmt.Scanln(&response)
	if err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// zero overwrites b with zero bytes in place.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
