// Package prefs persists the small on-device preferences that survive
// restarts. Today that is a single value: the light/dark theme choice.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	themeFile = "theme"
)

// Store reads and writes preferences under one directory. A missing
// directory or file is not an error; every read falls back to its default.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Theme returns the stored theme, defaulting to light when the entry is
// absent or unrecognized.
func (s *Store) Theme() string {
	b, err := os.ReadFile(filepath.Join(s.dir, themeFile))
	if err != nil {
		return ThemeLight
	}
	switch theme := strings.TrimSpace(string(b)); theme {
	case ThemeLight, ThemeDark:
		return theme
	}
	return ThemeLight
}

// SetTheme stores the theme choice, creating the directory on first write.
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create prefs directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, themeFile), []byte(theme+"\n"), 0644); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}

// Toggle flips between light and dark and stores the result.
func (s *Store) Toggle() (string, error) {
	next := ThemeDark
	if s.Theme() == ThemeDark {
		next = ThemeLight
	}
	if err := s.SetTheme(next); err != nil {
		return "", err
	}
	return next, nil
}
