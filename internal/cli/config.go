package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vk/leafkit/internal/app"
)

// EnvPrefix prefixes every environment variable leafkit reads.
const EnvPrefix = "LEAFKIT"

func addPushFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("gateway-url", "", "Push gateway socket.io URL, e.g. wss://push.example.com/socket.io/.")
	f.String("gateway-namespace", "/", "socket.io namespace of the push gateway.")
	f.String("gateway-token", "", "Credential sent in the gateway handshake.")
	f.Bool("insecure-skip-verify", false, "Skip TLS certificate verification for the gateway.")
	f.Duration("ack-timeout", 10*time.Second, "How long to wait for the gateway to answer a token request.")
	f.String("app-server-url", "", "Base URL of the application server.")
	f.String("api-key", "", "Bearer token for the application server.")
	f.Duration("http-timeout", 10*time.Second, "Timeout of a single app server request.")
	f.Int("http-retries", 2, "Retries of a single app server request on 429, 5xx and network errors.")
	f.String("installation-id", "", "Installation identifier. A random UUID is used when empty.")
	f.String("platform", "", "Platform label sent with the token, e.g. 'android'.")
	f.Int("retry-max-attempts", 5, "Registration attempts before giving up.")
	f.Duration("retry-base-delay", time.Second, "Delay after the first failed registration attempt; doubles each attempt.")
	f.Duration("retry-max-delay", time.Minute, "Upper bound of the delay between registration attempts.")
}

// bindConfig layers configuration sources for cmd: flags set on the command
// line win over LEAFKIT_* environment variables, which win over the config
// file, which wins over flag defaults.
func bindConfig(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return usageError(fmt.Errorf("config file not found: %s", path))
			}
			return usageError(fmt.Errorf("failed to read config file %s: %w", path, err))
		}
	}
	return nil
}

func configFromViper(v *viper.Viper) (*app.Config, error) {
	return app.NewConfig(app.Config{
		ManifestPath:    v.GetString("manifest-path"),
		LogFormat:       v.GetString("log-format"),
		LogLevel:        v.GetString("log-level"),
		HealthcheckPort: v.GetInt("healthcheck-port"),
		WorkerCount:     v.GetInt("workers"),
		Push: app.PushConfig{
			GatewayURL:         v.GetString("gateway-url"),
			Namespace:          v.GetString("gateway-namespace"),
			GatewayToken:       v.GetString("gateway-token"),
			InsecureSkipVerify: v.GetBool("insecure-skip-verify"),
			AckTimeout:         v.GetDuration("ack-timeout"),
			AppServerURL:       v.GetString("app-server-url"),
			APIKey:             v.GetString("api-key"),
			HTTPTimeout:        v.GetDuration("http-timeout"),
			HTTPRetryCount:     v.GetInt("http-retries"),
			InstallationID:     v.GetString("installation-id"),
			Platform:           v.GetString("platform"),
			ResyncSchedule:     v.GetString("resync-schedule"),
			RetryMaxAttempts:   v.GetInt("retry-max-attempts"),
			RetryBaseDelay:     v.GetDuration("retry-base-delay"),
			RetryMaxDelay:      v.GetDuration("retry-max-delay"),
		},
	})
}
