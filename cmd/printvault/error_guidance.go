package main

import (
	"context"
	"errors"
	"net"

	"printvault/internal/api"
	"printvault/internal/models"
)

// formatCLIError expands err into the message plus any hints that help the
// user act on it.
func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: set PRINTVAULT_API_TOKEN to a token matching the server's api_token_hash.")
		case "resource_exhausted":
			lines = append(lines, "hint: another archive download is running; retry shortly.")
		case "":
			lines = append(lines, "hint: verify PRINTVAULT_API_URL points to a printvault server.")
		}
		if apiErr.NotFound() && apiErr.Code != "" {
			lines = append(lines, "hint: list recent sessions with: printvault session list")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
	case errors.Is(err, models.ErrValidation):
		lines = append(lines, "hint: ids look like <kind>-<12 base36 chars>, e.g. ss-0a1b2c3d4e5f.")
	case errors.Is(err, context.DeadlineExceeded):
		lines = append(lines, "hint: request timed out; check server health or increase PRINTVAULT_HTTP_TIMEOUT.")
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			lines = append(lines,
				"hint: ensure a printvault server is running at PRINTVAULT_API_URL.",
				"hint: start a local server with: printvault srv",
			)
		}
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
