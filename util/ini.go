package util

import (
	"gopkg.in/ini.v1"
)

// Ini loads a file from the config directory and returns the keys of its unnamed section.
func Ini(ininame string) (map[string]string, error) {
	cfg, err := ini.Load("config/" + ininame)
	if err != nil {
		return nil, err
	}
	return cfg.Section("").KeysHash(), nil
}
