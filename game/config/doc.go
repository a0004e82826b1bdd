// Package config loads board presets from a directory of JSON files.
//
// The file name without ".json" is the preset ID clients pass when they create
// a session. Each file is a engine.GameConfig and must pass
// engine.ValidateGameConfig; ListConfigs leaves out files that do not, and
// LoadConfig reports them as ErrInvalidConfig.
//
// The default preset is classic. If it is missing the first valid preset is
// used, and an empty directory falls back to engine.DefaultConfig.
package config
