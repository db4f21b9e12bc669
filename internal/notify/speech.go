package notify

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/argusmon/argus/internal/argerr"
)

// Speaker reads notifications aloud through an external text-to-speech
// command such as espeak or say. The text is fed on stdin.
type Speaker struct {
	command []string
	timeout time.Duration
}

func NewSpeaker(command []string, timeout time.Duration) (*Speaker, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, argerr.New(argerr.ErrConfiguration, nil, "speaker command is required")
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Speaker{command: command, timeout: timeout}, nil
}

// Say runs the command once with the text on stdin and waits for it to
// finish, up to the timeout.
func (s *Speaker) Say(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.Stdin = strings.NewReader(text)

	if err := cmd.Run(); err != nil {
		return argerr.New(argerr.ErrNotification, err, "speaker command failed")
	}
	return nil
}
