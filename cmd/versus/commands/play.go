package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"versus/internal/app"
	"versus/internal/domain"
	"versus/internal/services/session"
)

// frameInterval paces the render loop's queue drain.
const frameInterval = 50 * time.Millisecond

// play runs one session to completion: key exchange, rendezvous, then the
// render loop until either side quits.
func play(cmd *cobra.Command, mode app.Mode) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := app.NewWire(ctx, cfg, mode, logrus.StandardLogger())
	if err != nil {
		return err
	}
	s := w.Session
	out := cmd.OutOrStdout()

	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()
	defer func() {
		_ = s.Close(context.Background())
		<-runErr
	}()

	if err := s.Start(ctx); err != nil {
		return err
	}
	if err := s.WaitEstablished(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "session established; fingerprint %s\n", s.Fingerprint())
	fmt.Fprintln(out, "compare the fingerprint with your opponent before trusting the session")

	if err := s.MarkLoaded(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "waiting for opponent...")
	if err := s.AwaitOpponent(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "opponent ready. type to chat; /gold N, /timer N, /quit")

	return renderLoop(ctx, s, readLines(cmd.InOrStdin()), out)
}

func renderLoop(ctx context.Context, s *session.Session, lines <-chan string, out io.Writer) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, u := range s.Updates() {
				fmt.Fprintln(out, formatUpdate(u))
			}

		case <-s.Done():
			for _, u := range s.Updates() {
				fmt.Fprintln(out, formatUpdate(u))
			}
			return sessionResult(s.Err())

		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			u, quit, err := parseLine(line)
			switch {
			case quit:
				return nil
			case err != nil:
				fmt.Fprintln(out, "!", err)
				continue
			case u == nil:
				continue
			}
			if err := s.Send(*u); err != nil {
				if errors.Is(err, domain.ErrAllocationFailure) {
					fmt.Fprintln(out, "! dropped, try again")
					continue
				}
				return sessionResult(err)
			}
		}
	}
}

// sessionResult hides the error of a session we closed ourselves.
func sessionResult(err error) error {
	if err == nil || errors.Is(err, domain.ErrSessionClosed) {
		return nil
	}
	return err
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}
