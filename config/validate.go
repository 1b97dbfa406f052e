package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smartcontractkit/app-release-framework/source"
	"github.com/smartcontractkit/app-release-framework/target"
)

// Toolchain names accepted in the targets section.
const (
	ToolchainFlutter = "flutter"
	ToolchainXcode   = "xcode"
)

// ConfigurationError lists every problem found in a configuration. It is fatal: nothing runs
// with an invalid configuration.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}

	return &ConfigurationError{Problems: p}
}

// Validate checks the configuration needed to resolve versions and build the configured
// targets.
func (c *Config) Validate() error {
	var p problems

	if strings.TrimSpace(c.App.Identifier) == "" {
		p.addf("app.identifier is required")
	}
	if c.Resolver.Concurrency < 0 {
		p.addf("resolver.concurrency must not be negative")
	}

	for i, sc := range c.Sources {
		kind, err := source.ParseKind(sc.Kind)
		if err != nil {
			p.addf("sources[%d]: %v", i, err)
			continue
		}
		if _, err := appStorePlatforms(sc.Platforms); err != nil {
			p.addf("sources[%d]: %v", i, err)
		}
		switch kind {
		case source.KindAppStore:
			c.checkAppStoreCredentials(&p, fmt.Sprintf("sources[%d] (appstore)", i))
		case source.KindPlayStore:
			if c.PlayStore.ServiceAccountJSON == "" {
				p.addf("sources[%d] (playstore) requires playstore.service_account_json", i)
			}
		case source.KindStatic:
			if sc.Value == "" {
				p.addf("sources[%d] (static) requires a value", i)
			}
		case source.KindWebManifest, source.KindPubspec, source.KindGitTag:
		}
	}

	for _, name := range sortedKeys(c.Targets) {
		platform, err := target.ParsePlatform(name)
		if err != nil {
			p.addf("targets: %v", err)
			continue
		}
		tc, err := c.Toolchain(c.Targets[name])
		if err != nil {
			p.addf("targets.%s: %v", name, err)
			continue
		}
		if !tc.Supports(platform) {
			p.addf("targets.%s: toolchain %s does not support %s", name, tc.Name(), platform)
		}
		if x, ok := tc.(target.Xcode); ok && x.Scheme == "" {
			p.addf("targets.%s: toolchains.xcode.scheme is required", name)
		}
	}

	return p.err()
}

// ValidateUpload checks the credentials needed to upload the given platforms.
func (c *Config) ValidateUpload(platforms []target.Platform) error {
	var p problems
	apple := false
	for _, platform := range platforms {
		if _, ok := c.Targets[platform.String()]; !ok {
			p.addf("target %s is not configured", platform)
			continue
		}
		switch {
		case platform.IsApple():
			apple = true
		case platform == target.Android:
			if c.PlayStore.ServiceAccountJSON == "" {
				p.addf("android upload requires playstore.service_account_json")
			}
		case platform == target.Web:
			if c.Upload.S3.Bucket == "" {
				p.addf("web upload requires upload.s3.bucket")
			}
		}
	}
	if apple {
		c.checkAppStoreCredentials(&p, "apple upload")
	}

	return p.err()
}

func (c *Config) checkAppStoreCredentials(p *problems, what string) {
	var missing []string
	if c.AppStore.KeyID == "" {
		missing = append(missing, "appstore.key_id")
	}
	if c.AppStore.IssuerID == "" {
		missing = append(missing, "appstore.issuer_id")
	}
	if c.AppStore.PrivateKey == "" {
		missing = append(missing, "appstore.private_key")
	}
	if len(missing) > 0 {
		p.addf("%s requires %s", what, strings.Join(missing, ", "))
	}
}

// Toolchain returns the toolchain with the given name, configured from the toolchains section.
func (c *Config) Toolchain(name string) (target.Toolchain, error) {
	switch strings.ToLower(name) {
	case ToolchainFlutter:
		f := c.Toolchains.Flutter

		return target.Flutter{Dir: f.Dir, ExportOptionsPlist: f.ExportOptionsPlist, Binary: f.Binary}, nil
	case ToolchainXcode:
		x := c.Toolchains.Xcode

		return target.Xcode{
			Dir:                x.Dir,
			Workspace:          x.Workspace,
			Project:            x.Project,
			Scheme:             x.Scheme,
			Configuration:      x.Configuration,
			ExportOptionsPlist: x.ExportOptionsPlist,
			Keychain:           x.Keychain,
			OutputDir:          x.OutputDir,
		}, nil
	default:
		return nil, fmt.Errorf("unknown toolchain %q", name)
	}
}

// Platforms returns the configured target platforms in canonical order.
func (c *Config) Platforms() []target.Platform {
	var out []target.Platform
	for _, p := range target.Platforms() {
		if _, ok := c.Targets[p.String()]; ok {
			out = append(out, p)
		}
	}

	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
