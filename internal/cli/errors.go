package cli

import "fmt"

// ExitError carries the wrapped command's exit status to main.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// exitCodeInterrupted is the shell convention for death by SIGINT.
const exitCodeInterrupted = 130
