package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// readJSONFile decodes the JSON document at path into dst. "-" reads stdin.
func readJSONFile(path string, dst any) error {
	f := os.Stdin
	if path != "-" {
		opened, err := os.Open(path) //nolint:gosec // path comes from the command line
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer opened.Close()
		f = opened
	}
	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// formatDuration formats a duration as a human-readable string
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
