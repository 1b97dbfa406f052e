// Package config loads the release configuration from a file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smartcontractkit/app-release-framework/source"
	"github.com/smartcontractkit/app-release-framework/store/appstore"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "release.yaml"

// AppConfig identifies the app being released.
type AppConfig struct {
	Identifier  string `mapstructure:"identifier" yaml:"identifier"`     // Bundle id, e.g. com.example.app
	PackageName string `mapstructure:"package_name" yaml:"package_name"` // Android package name, defaults to the identifier
	Live        bool   `mapstructure:"live" yaml:"live"`                 // Resolve against released versions instead of pre-release channels
}

// ResolverConfig tunes version resolution.
type ResolverConfig struct {
	Concurrency   int           `mapstructure:"concurrency" yaml:"concurrency"`
	SourceTimeout time.Duration `mapstructure:"source_timeout" yaml:"source_timeout"`
}

// SourceConfig describes a version source.
type SourceConfig struct {
	Kind      string   `mapstructure:"kind" yaml:"kind"`
	Name      string   `mapstructure:"name" yaml:"name"`
	Track     string   `mapstructure:"track" yaml:"track"`         // playstore: pre-release track
	Path      string   `mapstructure:"path" yaml:"path"`           // pubspec: file, gittag: repository
	URL       string   `mapstructure:"url" yaml:"url"`             // web: manifest location override
	Value     string   `mapstructure:"value" yaml:"value"`         // static: fixed version
	Platforms []string `mapstructure:"platforms" yaml:"platforms"` // appstore: ios, macos, tvos
}

// FlutterConfig configures the flutter toolchain.
type FlutterConfig struct {
	Dir                string `mapstructure:"dir" yaml:"dir"`
	ExportOptionsPlist string `mapstructure:"export_options_plist" yaml:"export_options_plist"`
	Binary             string `mapstructure:"binary" yaml:"binary"`
}

// XcodeConfig configures the xcode toolchain.
type XcodeConfig struct {
	Dir                string `mapstructure:"dir" yaml:"dir"`
	Workspace          string `mapstructure:"workspace" yaml:"workspace"`
	Project            string `mapstructure:"project" yaml:"project"`
	Scheme             string `mapstructure:"scheme" yaml:"scheme"`
	Configuration      string `mapstructure:"configuration" yaml:"configuration"`
	ExportOptionsPlist string `mapstructure:"export_options_plist" yaml:"export_options_plist"`
	Keychain           string `mapstructure:"keychain" yaml:"keychain"`
	OutputDir          string `mapstructure:"output_dir" yaml:"output_dir"`
}

// ToolchainsConfig groups the toolchain settings.
type ToolchainsConfig struct {
	Flutter FlutterConfig `mapstructure:"flutter" yaml:"flutter"`
	Xcode   XcodeConfig   `mapstructure:"xcode" yaml:"xcode"`
}

// BuildConfig tunes build operations.
type BuildConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// S3Config locates the bucket the web target is uploaded to.
type S3Config struct {
	Bucket       string `mapstructure:"bucket" yaml:"bucket"`
	Prefix       string `mapstructure:"prefix" yaml:"prefix"`
	Region       string `mapstructure:"region" yaml:"region"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	CacheControl string `mapstructure:"cache_control" yaml:"cache_control"`
}

// UploadConfig tunes upload operations.
type UploadConfig struct {
	Attempts     uint          `mapstructure:"attempts" yaml:"attempts"` // 1 means no retry
	RetryDelay   time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AndroidTrack string        `mapstructure:"android_track" yaml:"android_track"`
	S3           S3Config      `mapstructure:"s3" yaml:"s3"`
}

// AppStoreConfig is the App Store Connect API key.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type AppStoreConfig struct {
	KeyID      string `mapstructure:"key_id" yaml:"key_id"`
	IssuerID   string `mapstructure:"issuer_id" yaml:"issuer_id"`
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"` // Secret: PEM encoded .p8 key
}

// PlayStoreConfig is the Play Console service account.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type PlayStoreConfig struct {
	ServiceAccountJSON string `mapstructure:"service_account_json" yaml:"service_account_json"` // Secret: service account key file contents
}

// WebConfig configures the web manifest.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type WebConfig struct {
	ManifestToken string `mapstructure:"manifest_token" yaml:"manifest_token"` // Secret: bearer token of the manifest endpoint
}

// ReportsConfig configures the persisted run reports.
type ReportsConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // Empty disables persisted reports
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config wraps the entire release configuration.
type Config struct {
	App        AppConfig         `mapstructure:"app" yaml:"app"`
	Resolver   ResolverConfig    `mapstructure:"resolver" yaml:"resolver"`
	Sources    []SourceConfig    `mapstructure:"sources" yaml:"sources"`
	Targets    map[string]string `mapstructure:"targets" yaml:"targets"` // platform -> toolchain
	Toolchains ToolchainsConfig  `mapstructure:"toolchains" yaml:"toolchains"`
	Build      BuildConfig       `mapstructure:"build" yaml:"build"`
	Upload     UploadConfig      `mapstructure:"upload" yaml:"upload"`
	AppStore   AppStoreConfig    `mapstructure:"appstore" yaml:"appstore"`
	PlayStore  PlayStoreConfig   `mapstructure:"playstore" yaml:"playstore"`
	Web        WebConfig         `mapstructure:"web" yaml:"web"`
	Reports    ReportsConfig     `mapstructure:"reports" yaml:"reports"`
	Log        LogConfig         `mapstructure:"log" yaml:"log"`
}

var (
	// envBindings defines how environment variables map to configuration keys used by Viper.
	// The first name is the preferred one; the second, when present, is the name the fastlane
	// setup used and is kept for existing CI pipelines.
	envBindings = map[string][]string{
		"app.identifier":                 {"RELEASE_APP_IDENTIFIER", "APP_IDENTIFIER"},
		"app.package_name":               {"RELEASE_APP_PACKAGE_NAME"},
		"app.live":                       {"RELEASE_APP_LIVE"},
		"resolver.concurrency":           {"RELEASE_RESOLVER_CONCURRENCY"},
		"resolver.source_timeout":        {"RELEASE_RESOLVER_SOURCE_TIMEOUT"},
		"toolchains.flutter.dir":         {"RELEASE_FLUTTER_DIR"},
		"toolchains.xcode.project":       {"RELEASE_XCODE_PROJECT", "PROJECT"},
		"toolchains.xcode.scheme":        {"RELEASE_XCODE_SCHEME", "SCHEME"},
		"toolchains.xcode.keychain":      {"RELEASE_XCODE_KEYCHAIN", "KEYCHAIN"},
		"build.timeout":                  {"RELEASE_BUILD_TIMEOUT"},
		"upload.attempts":                {"RELEASE_UPLOAD_ATTEMPTS"},
		"upload.timeout":                 {"RELEASE_UPLOAD_TIMEOUT"},
		"upload.android_track":           {"RELEASE_UPLOAD_ANDROID_TRACK"},
		"upload.s3.bucket":               {"RELEASE_UPLOAD_S3_BUCKET"},
		"upload.s3.region":               {"RELEASE_UPLOAD_S3_REGION", "AWS_REGION"},
		"upload.s3.endpoint":             {"RELEASE_UPLOAD_S3_ENDPOINT"},
		"appstore.key_id":                {"RELEASE_APPSTORE_KEY_ID", "APP_STORE_CONNECT_API_KEY_KEY_ID"},
		"appstore.issuer_id":             {"RELEASE_APPSTORE_ISSUER_ID", "APP_STORE_CONNECT_API_KEY_ISSUER_ID"},
		"appstore.private_key":           {"RELEASE_APPSTORE_PRIVATE_KEY", "APP_STORE_CONNECT_API_KEY_KEY"},
		"playstore.service_account_json": {"RELEASE_PLAYSTORE_SERVICE_ACCOUNT_JSON", "SUPPLY_JSON_KEY_DATA"},
		"web.manifest_token":             {"RELEASE_WEB_MANIFEST_TOKEN", "WEB_API_KEY"},
		"reports.path":                   {"RELEASE_REPORTS_PATH"},
		"log.level":                      {"RELEASE_LOG_LEVEL", "LOG_LEVEL"},
		"log.format":                     {"RELEASE_LOG_FORMAT", "LOG_FORMAT"},
	}

	// secretKeys may only be set through the environment.
	secretKeys = []string{
		"appstore.private_key",
		"playstore.service_account_json",
		"web.manifest_token",
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("resolver.concurrency", 0)
	v.SetDefault("resolver.source_timeout", 30*time.Second)
	v.SetDefault("build.timeout", time.Hour)
	v.SetDefault("upload.attempts", 1)
	v.SetDefault("upload.retry_delay", 10*time.Second)
	v.SetDefault("upload.timeout", 30*time.Minute)
	v.SetDefault("upload.android_track", "internal")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
// Secrets found in the file are rejected with a *ConfigurationError.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
			}
		}
	}

	var inFile []string
	for _, key := range secretKeys {
		if v.InConfig(key) {
			inFile = append(inFile, fmt.Sprintf("%s must be set through the environment, not the config file", key))
		}
	}
	if len(inFile) > 0 {
		return nil, &ConfigurationError{Problems: inFile}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.App.PackageName == "" {
		cfg.App.PackageName = cfg.App.Identifier
	}

	return cfg, nil
}

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}

// SourceSpecs converts the configured sources into source specs.
func (c *Config) SourceSpecs() ([]source.Spec, error) {
	specs := make([]source.Spec, 0, len(c.Sources))
	for i, sc := range c.Sources {
		kind, err := source.ParseKind(sc.Kind)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		platforms, err := appStorePlatforms(sc.Platforms)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		specs = append(specs, source.Spec{
			Kind:      kind,
			Name:      sc.Name,
			Track:     sc.Track,
			Path:      sc.Path,
			URL:       sc.URL,
			Value:     sc.Value,
			Platforms: platforms,
		})
	}

	return specs, nil
}

// HasSource reports whether a source of kind is configured.
func (c *Config) HasSource(kind source.Kind) bool {
	return slices.ContainsFunc(c.Sources, func(sc SourceConfig) bool {
		return strings.EqualFold(sc.Kind, kind.String())
	})
}

func appStorePlatforms(names []string) ([]appstore.Platform, error) {
	var out []appstore.Platform
	for _, n := range names {
		switch strings.ToLower(n) {
		case "ios":
			out = append(out, appstore.PlatformIOS)
		case "macos", "mac_os":
			out = append(out, appstore.PlatformMacOS)
		case "tvos", "tv_os":
			out = append(out, appstore.PlatformTvOS)
		default:
			return nil, fmt.Errorf("unknown app store platform %q", n)
		}
	}

	return out, nil
}
