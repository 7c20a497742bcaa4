// Package plugin hands records off to out-of-process uploaders. A plugin is
// any executable in the plugin directory named with the timelog- prefix; it
// reads one JSON document on stdin and writes one JSON result on stdout.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Prefix is the required executable-name prefix for plugin discovery.
const Prefix = "timelog-"

var (
	ErrPluginNotFound  = errors.New("plugin not found")
	ErrAmbiguousPlugin = errors.New("multiple plugins available")
	ErrPluginFailed    = errors.New("plugin failed")
	ErrInvalidOutput   = errors.New("invalid plugin output")
)

// Descriptor identifies one discovered plugin. Config holds the parsed
// sidecar JSON (<executable>.json) or nil when none exists. Descriptors are
// recomputed from the filesystem on every command, never cached.
type Descriptor struct {
	Name   string
	Path   string
	Config json.RawMessage
}

// Discover scans dir for plugin executables. A candidate qualifies iff it is
// a regular file, its name starts with Prefix, it does not carry the .json
// suffix, and it has an execute bit set. Non-qualifying files are silently
// ignored. A malformed sidecar config is reported as a warning, not an error;
// the plugin then runs with an empty config.
func Discover(dir string) ([]Descriptor, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read plugin directory: %w", err)
	}

	var plugins []Descriptor
	var warnings []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, Prefix) || strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		d := Descriptor{
			Name: strings.TrimPrefix(name, Prefix),
			Path: filepath.Join(dir, name),
		}
		cfg, warn := loadConfig(d.Path + ".json")
		d.Config = cfg
		if warn != "" {
			warnings = append(warnings, warn)
		}
		plugins = append(plugins, d)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name < plugins[j].Name })
	return plugins, warnings, nil
}

func loadConfig(path string) (json.RawMessage, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "" // missing config is ordinary
	}
	if !json.Valid(data) {
		return nil, fmt.Sprintf("ignoring malformed plugin config %s", path)
	}
	return json.RawMessage(data), ""
}

// Select picks the plugin to run. A requested name must match exactly. With
// no request, a single available plugin is auto-selected; multiple candidates
// are an error that lists the choices.
func Select(requested string, available []Descriptor) (Descriptor, error) {
	if requested != "" {
		for _, d := range available {
			if d.Name == requested {
				return d, nil
			}
		}
		return Descriptor{}, fmt.Errorf("%w: %q", ErrPluginNotFound, requested)
	}
	switch len(available) {
	case 0:
		return Descriptor{}, fmt.Errorf("%w: no plugins installed", ErrPluginNotFound)
	case 1:
		return available[0], nil
	default:
		names := make([]string, len(available))
		for i, d := range available {
			names[i] = d.Name
		}
		return Descriptor{}, fmt.Errorf("%w: %s; pick one with --plugin", ErrAmbiguousPlugin, strings.Join(names, ", "))
	}
}
