package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// keyKind is the value type of a configuration key.
type keyKind int

const (
	kindString keyKind = iota
	kindFloat
	kindDuration
	kindLevel
	kindSecret
)

// configKeys lists every key the tool reads.
var configKeys = map[string]keyKind{
	"genome":          kindString,
	"ucsc.url":        kindString,
	"ncbi.search_url": kindString,
	"ncbi.eutils_url": kindString,
	"ncbi.api_key":    kindSecret,
	"ncbi.rate_limit": kindFloat,
	"evo2.url":        kindString,
	"evo2.timeout":    kindDuration,
	"http.timeout":    kindDuration,
	"log.level":       kindLevel,
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, get or set vibe-gene settings",
		Long: `Show the effective settings, or get and set values in ~/.vibe-gene.yaml.
Settings from the environment (VIBE_GENE_*, NCBI_API_KEY, .env) are shown but
never written to the file.`,
		Example: `  vibe-gene config                           # effective settings
  vibe-gene config set ncbi.api_key <key>    # raise the NCBI rate limit
  vibe-gene config set evo2.url <url>        # enable variants --analyze
  vibe-gene config set http.timeout 45s
  vibe-gene config get genome`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:       "set <key> <value>",
			Short:     "Set a value in the config file",
			Args:      cobra.ExactArgs(2),
			ValidArgs: sortedKeys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath()
				if err != nil {
					return err
				}
				if err := setConfigValue(path, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", args[0], path)
				return nil
			},
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print the effective value of a key",
			Args:      cobra.ExactArgs(1),
			ValidArgs: sortedKeys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				val, err := configValue(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), val)
				return nil
			},
		},
	)

	return cmd
}

// configPath returns ~/.vibe-gene.yaml.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

func sortedKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookupKey(key string) (keyKind, error) {
	kind, ok := configKeys[key]
	if !ok {
		return 0, fmt.Errorf("unknown key %q (valid keys: %s)", key, strings.Join(sortedKeys(), ", "))
	}
	return kind, nil
}

// parseConfigValue converts raw to the type of key.
func parseConfigValue(key, raw string) (any, error) {
	kind, err := lookupKey(key)
	if err != nil {
		return nil, err
	}

	switch kind {
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%s: %q is not a non-negative number", key, raw)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s: %q is not a positive duration such as 30s or 5m", key, raw)
		}
		return d.String(), nil
	case kindLevel:
		if _, err := zapcore.ParseLevel(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return strings.ToLower(raw), nil
	}
	return raw, nil
}

// setConfigValue writes key to the config file at path. Only the keys already
// in the file plus key are written; defaults and environment values stay out.
func setConfigValue(path, key, raw string) error {
	val, err := parseConfigValue(key, raw)
	if err != nil {
		return err
	}

	file := viper.New()
	file.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	file.Set(key, val)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// configValue returns the effective value of key, masking secrets.
func configValue(key string) (string, error) {
	kind, err := lookupKey(key)
	if err != nil {
		return "", err
	}
	if !viper.IsSet(key) {
		return "", fmt.Errorf("key %q is not set", key)
	}
	val := viper.GetString(key)
	if kind == kindSecret {
		val = maskSecret(val)
	}
	return val, nil
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// showConfig prints the effective value of every set key as YAML.
func showConfig(w io.Writer) error {
	settings := make(map[string]string)
	for _, key := range sortedKeys() {
		if val, err := configValue(key); err == nil {
			settings[key] = val
		}
	}
	if len(settings) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/"+configName+".yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}
