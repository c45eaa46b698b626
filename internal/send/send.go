// Package send posts messages, piped input, command output, and files to a
// resolved Slack destination.
package send

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Poster delivers text and files to a destination id.
type Poster interface {
	Post(ctx context.Context, destID, text string, asCodeBlock bool) error
	Upload(ctx context.Context, path, destID string) error
}

// Sender sends content to a single destination id.
type Sender struct {
	poster Poster
	logger zerolog.Logger
}

// New creates a Sender that delivers through p.
func New(p Poster, logger zerolog.Logger) *Sender {
	return &Sender{poster: p, logger: logger}
}

// Send posts each message in order, stopping at the first failure.
func (s *Sender) Send(ctx context.Context, destID string, messages []string, verbatim bool) error {
	for i, m := range messages {
		if err := s.poster.Post(ctx, destID, m, verbatim); err != nil {
			return fmt.Errorf("sending message %d of %d: %w", i+1, len(messages), err)
		}
	}
	return nil
}

// Pipe sends the contents of r.
//
// Interactive input is sent line by line as it arrives, each line trimmed and
// empty lines skipped. Otherwise r is read to EOF and sent as one message with
// its line endings intact; empty input sends nothing. The non-interactive path
// blocks until r is closed, so a writer that keeps stdin open stalls the call.
func (s *Sender) Pipe(ctx context.Context, destID string, r io.Reader, interactive, verbatim bool) error {
	if interactive {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := s.poster.Post(ctx, destID, line, verbatim); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		return nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		s.logger.Debug().Msg("empty input, nothing to send")
		return nil
	}
	return s.poster.Post(ctx, destID, string(data), verbatim)
}

// RunCommand runs command with sh -c and posts "$ command" followed by its output
// as a code block. Nothing is posted if the command fails.
func (s *Sender) RunCommand(ctx context.Context, destID, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return fmt.Errorf("command %q failed: %w: %s", command, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return fmt.Errorf("command %q failed: %w", command, err)
	}
	s.logger.Debug().Str("command", command).Int("bytes", len(output)).Msg("command finished")

	return s.poster.Post(ctx, destID, "$ "+command+"\n"+string(output), true)
}

// Upload sends the file at path.
func (s *Sender) Upload(ctx context.Context, destID, path string) error {
	return s.poster.Upload(ctx, path, destID)
}
