package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
)

// ErrInputClosed is returned when stdin reaches EOF.
var ErrInputClosed = errors.New("input closed")

type inputLine struct {
	text string
	err  error
}

// InputPromptWithContext prints the prompt and reads one trimmed line. It returns ctx.Err()
// when the context ends first; the pending read is abandoned.
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	lines := make(chan inputLine, 1)

	go func() {
		fmt.Print(lipgloss.BlueSky.Render("> "))

		text, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if strings.TrimSpace(text) != "" {
					lines <- inputLine{text: strings.TrimSpace(text)}
					return
				}
				lines <- inputLine{err: ErrInputClosed}
				return
			}
			lines <- inputLine{err: fmt.Errorf("error reading input: %w", err)}
			return
		}
		lines <- inputLine{text: strings.TrimSpace(text)}
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case line := <-lines:
		return line.text, line.err
	}
}

// ConfirmPrompt asks a yes/no question; anything but y or yes is a no.
func ConfirmPrompt(question string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.BlueSky.Render(question + " (y/N): "))

	answer, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
