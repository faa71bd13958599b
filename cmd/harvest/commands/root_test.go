package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFatalClosesLogBeforeExit(t *testing.T) {
	var steps []string
	closeLog = func() error {
		steps = append(steps, "close log")
		return nil
	}
	previous := exit
	exit = func(code int) {
		steps = append(steps, fmt.Sprintf("exit %d", code))
	}
	defer func() {
		exit = previous
		closeLog = nil
	}()

	fatal("some targets failed", errors.New("1 of 2 targets failed"))
	require.Equal(t, []string{"close log", "exit 1"}, steps)
}
