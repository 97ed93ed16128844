// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The "config" command.

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/folio-tui/internal/config"
)

const configUsage = "folio config [show|get KEY|set KEY VALUE|path|keys]"

// secretKeys are redacted by "config get".
var secretKeys = map[string]bool{
	"server.groq_api_key": true,
}

// HandleConfig inspects or changes the configuration file.
func HandleConfig(args Args) error {
	setupLogging(args)

	switch args.Subcommand {
	case "", "show":
		return showConfig(args)
	case "get":
		return getConfig(args)
	case "set":
		return setConfig(args)
	case "path":
		return configPath(args)
	case "keys":
		if args.JSON {
			return outputJSON(config.GetAllKeys())
		}
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(stdout, k)
		}
		return nil
	default:
		return &UsageError{Message: "unknown config subcommand: " + args.Subcommand, Usage: configUsage}
	}
}

func showConfig(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if args.JSON {
		values := make(map[string]interface{}, len(config.GetAllKeys()))
		for _, k := range config.GetAllKeys() {
			v, err := cfg.Get(k)
			if err != nil {
				return wrap("config", "get "+k, err)
			}
			values[k] = redact(k, v)
		}
		return outputJSON(values)
	}
	fmt.Fprint(stdout, cfg.String())
	return nil
}

func getConfig(args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", configUsage)
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	key := strings.ToLower(args.ConfigKey)
	v, err := cfg.Get(key)
	if err != nil {
		return &UsageError{Message: err.Error(), Usage: configUsage}
	}
	v = redact(key, v)

	if args.JSON {
		return outputJSON(map[string]interface{}{"key": key, "value": v})
	}
	if list, ok := v.([]string); ok {
		fmt.Fprintln(stdout, strings.Join(list, ","))
		return nil
	}
	fmt.Fprintln(stdout, v)
	return nil
}

func setConfig(args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", configUsage)
	}
	cfg, err := loadConfig(Args{})
	if err != nil {
		return err
	}
	key := strings.ToLower(args.ConfigKey)
	if err := cfg.Set(key, args.ConfigVal); err != nil {
		return &UsageError{Message: err.Error(), Usage: configUsage}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return wrap("config", "save", err)
	}

	if args.JSON {
		return outputJSON(map[string]interface{}{"key": key, "value": redact(key, args.ConfigVal), "saved": true})
	}
	fmt.Fprintf(stdout, "%s %s = %v\n", RenderConditional(SuccessStyle, "Saved"), key, redact(key, args.ConfigVal))
	return nil
}

func configPath(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return wrap("config", "resolve path", err)
	}
	if args.JSON {
		return outputJSON(map[string]string{"path": path})
	}
	fmt.Fprintln(stdout, path)
	return nil
}

func redact(key string, v interface{}) interface{} {
	if s, ok := v.(string); ok && secretKeys[key] && s != "" {
		return "[REDACTED]"
	}
	return v
}
