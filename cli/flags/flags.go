// Package flags provides reusable flag helpers for CLI commands.
//
// This package should only contain common flags that can be used by multiple commands
// to ensure unified naming and consistent behavior across the CLI.
// Command-specific flags should be defined locally in the command file.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smartcontractkit/app-release-framework/target"
	"github.com/smartcontractkit/app-release-framework/version"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// Platforms adds one boolean flag per platform (--ios, --android, --web, --macos, --tvos).
// Retrieve the selection with SelectedPlatforms.
func Platforms(cmd *cobra.Command) {
	for _, p := range target.Platforms() {
		cmd.Flags().Bool(p.String(), false, fmt.Sprintf("Select the %s target", p))
	}
}

// SelectedPlatforms returns the platforms whose flag is set, in canonical order. None selected
// means every configured target.
func SelectedPlatforms(cmd *cobra.Command) []target.Platform {
	var out []target.Platform
	for _, p := range target.Platforms() {
		if MustBool(cmd.Flags().GetBool(p.String())) {
			out = append(out, p)
		}
	}

	return out
}

// Version adds the --version flag for requesting a minimum release version.
// Retrieve the value with RequestedVersion.
//
// Usage:
//
//	flags.Version(cmd)
//	// later in RunE:
//	requested, err := flags.RequestedVersion(cmd)
func Version(cmd *cobra.Command) {
	cmd.Flags().String("version", "", "Release at least this version, e.g. 2.1.0")

	// Accept --build-version as an alias.
	existingNormalize := cmd.Flags().GetNormalizeFunc()
	cmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "build-version" {
			return pflag.NormalizedName("version")
		}
		if existingNormalize != nil {
			return existingNormalize(f, name)
		}

		return pflag.NormalizedName(name)
	})
}

// RequestedVersion returns the parsed --version flag, or the zero Version when unset.
func RequestedVersion(cmd *cobra.Command) (version.Version, error) {
	raw := strings.TrimSpace(MustString(cmd.Flags().GetString("version")))
	if raw == "" {
		return version.Version{}, nil
	}
	v, err := version.Parse(raw)
	if err != nil {
		return version.Version{}, fmt.Errorf("invalid --version: %w", err)
	}

	return v, nil
}
