package commands

import (
	"fmt"
	"strconv"
	"strings"

	"versus/internal/domain"
)

// parseLine maps one line of input to an update. Blank lines yield nil.
func parseLine(line string) (u *domain.Update, quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return &domain.Update{Kind: domain.UpdateChat, Text: line}, false, nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return nil, true, nil
	case "/gold", "/timer":
		if len(fields) != 2 {
			return nil, false, fmt.Errorf("usage: %s N", fields[0])
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %q is not a number", fields[0], fields[1])
		}
		kind := domain.UpdateGold
		if fields[0] == "/timer" {
			kind = domain.UpdateTimer
		}
		return &domain.Update{Kind: kind, Amount: n}, false, nil
	default:
		return nil, false, fmt.Errorf("unknown command %s", fields[0])
	}
}

func formatUpdate(u domain.Update) string {
	switch u.Kind {
	case domain.UpdateChat:
		return "opponent: " + u.Text
	case domain.UpdateGold:
		return fmt.Sprintf("opponent gold: %d", u.Amount)
	case domain.UpdateTimer:
		return fmt.Sprintf("opponent timer: %ds", u.Amount)
	default:
		return fmt.Sprintf("opponent sent %q", string(u.Kind))
	}
}
