package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mustGetFlag reads a flag registered in init(). A lookup error means the flag
// was never defined on the command, which is a programming bug.
func mustGetFlag[T any](name string, get func(string) (T, error)) T {
	val, err := get(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustGetFlag(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustGetFlag(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustGetFlag(name, cmd.Flags().GetString)
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	return mustGetFlag(name, cmd.Flags().GetStringSlice)
}

// stringFlagOr returns the flag value, or fallback (usually from config) when
// the flag was left empty.
func stringFlagOr(cmd *cobra.Command, name, fallback string) string {
	if val := mustGetString(cmd, name); val != "" {
		return val
	}
	return fallback
}

// requireStringFlagOr is stringFlagOr for values a command cannot run without.
// envName is only used in the error message.
func requireStringFlagOr(cmd *cobra.Command, name, fallback, envName string) (string, error) {
	val := stringFlagOr(cmd, name, fallback)
	if val == "" {
		return "", fmt.Errorf("--%s or %s is required", name, envName)
	}
	return val, nil
}
