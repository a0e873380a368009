package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

var defaultConfigBasenames = []string{
	"pori.yml", "pori.yaml", "pori.toml", "pori.json",
}

// findDefaultConfigFile searches, in order, the current directory, the
// user's home directory (as a dotfile), and ~/.config/pori/ for a config
// file. It returns "" if none exists.
func findDefaultConfigFile() string {
	for _, name := range defaultConfigBasenames {
		if path := "./" + name; fileExists(path) {
			return path
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, name := range defaultConfigBasenames {
		if path := filepath.Join(home, "."+name); fileExists(path) {
			return path
		}
	}
	for _, name := range defaultConfigBasenames {
		path := filepath.Join(home, ".config", "pori", strings.Replace(name, "pori.", "config.", 1))
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// loadFile decodes path into o. TOML is decoded directly via
// github.com/BurntSushi/toml; every other supported extension (yaml, yml,
// json) goes through cleanenv.ReadConfig, which also applies the env-tag
// overlay in the same pass.
func loadFile(path string, o *Options) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, o); err != nil {
			return fmt.Errorf("config: decode toml %s: %w", path, err)
		}
		return nil
	}
	if err := cleanenv.ReadConfig(path, o); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}
