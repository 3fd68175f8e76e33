package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	brochure "github.com/alnah/go-brochure"
	"github.com/alnah/go-brochure/internal/assets"
	"github.com/alnah/go-brochure/internal/config"
	"github.com/alnah/go-brochure/internal/fileutil"
	"github.com/alnah/go-brochure/internal/hints"
)

// styleNone disables stylesheet injection.
const styleNone = "none"

// loadConfig resolves the effective configuration: defaults, then the config
// file (flag, then BROCHURE_CONFIG), then BROCHURE_* overrides.
// Unknown BROCHURE_* variables produce a warning.
func loadConfig(configFlag string, env *Environment) (*config.Config, *envConfig, error) {
	if env.Environ != nil {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}
	envCfg := loadEnvConfig(env.Getenv)

	path := configFlag
	if path == "" {
		path = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(triedPaths(err)))
			}
			return nil, nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, envCfg, nil
}

// triedPaths extracts the searched locations from a config-not-found error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// placementFromConfig builds the mark placement, keeping defaults for zero values.
func placementFromConfig(mc config.MarkConfig) (brochure.Placement, error) {
	p := brochure.DefaultPlacement()
	if mc.Corner != "" {
		corner, err := brochure.ParseCorner(mc.Corner)
		if err != nil {
			return p, err
		}
		p.Corner = corner
	}
	if mc.MaxWidth > 0 {
		p.MaxWidth = mc.MaxWidth
	}
	if mc.MaxHeight > 0 {
		p.MaxHeight = mc.MaxHeight
	}
	if mc.Margin > 0 {
		p.Margin = mc.Margin
	}
	if mc.Opacity > 0 {
		p.Opacity = mc.Opacity
	}
	return p, p.Validate()
}

// loadScript reads the page script named by render.script.
func loadScript(rc config.RenderConfig) (string, error) {
	if rc.Script == "" {
		return "", nil
	}
	js, err := os.ReadFile(rc.Script) // #nosec G304 -- user-provided script
	if err != nil {
		return "", fmt.Errorf("reading script %s: %w", rc.Script, err)
	}
	return string(js), nil
}

// resolveStyle returns the CSS injected before printing.
// A value with a path separator is read from disk; otherwise it names an
// embedded or asset-path stylesheet. Empty or "none" disables injection.
func resolveStyle(rc config.RenderConfig) (string, error) {
	if rc.Style == "" || rc.Style == styleNone {
		return "", nil
	}

	if fileutil.IsFilePath(rc.Style) {
		css, err := os.ReadFile(rc.Style) // #nosec G304 -- user-provided stylesheet
		if err != nil {
			return "", fmt.Errorf("reading style %s: %w", rc.Style, err)
		}
		return string(css), nil
	}

	resolver, err := assets.NewAssetResolver(rc.AssetPath)
	if err != nil {
		return "", err
	}
	css, err := resolver.LoadStyle(rc.Style)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return "", fmt.Errorf("%w%s", err, hints.ForStyleNotFound(resolver.Styles()))
		}
		return "", err
	}
	return css, nil
}
