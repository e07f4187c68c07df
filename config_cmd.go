package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# voice used when no tone mapping applies
default_voice: "ava"
# tone -> voice mapping consulted before synthesis
voices:
  energetic: "nova"
  calm: "willow"
  stern: "atlas"
# how far ahead scheduled requests are pre-generated
pregenerate_horizon: "24h"

synthesis:
  # artifact encoding: wav or pcm
  format: "wav"
  # low, standard or high
  quality: "standard"
  # speaking speed multiplier (0.5 - 2.0)
  speed: 1.0

cache:
  # artifact directory (default: the OS user cache dir)
  # dir: "~/.cache/chime"
  # cache ceiling in bytes
  max_size: 500000000
  # how long artifacts stay servable
  ttl: "72h"
  # eviction shrinks the cache to this fraction of the ceiling
  evict_target: 0.8
  # zstd-compress the index snapshot
  compress_index: false
  # watch the cache dir and re-index on external deletes
  watch: false

# script provider: openai or mock
scripts:
  provider: "openai"
# speech provider: eleven or mock
speech:
  provider: "eleven"

openai:
  # api_key: "sk-..."   (or CHIME_OPENAI_API_KEY)
  model: "gpt-4o-mini"
  temperature: 0.8
  max_tokens: 120
  timeout: "30s"
  requests_per_minute: 30

eleven:
  # api_key: "..."   (or CHIME_ELEVEN_API_KEY)
  model: "eleven_turbo_v2"
  stability: 0.5
  similarity_boost: 0.75
  timeout: "30s"
  requests_per_minute: 60
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the chime config file",
	Long:    paragraph(fmt.Sprintf("\n%s the chime config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("chime config\nchime config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Chime", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
