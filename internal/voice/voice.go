// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice provides optional dictation into the chat input.
//
// Dictation is delegated to an external command that records speech and
// prints the transcript on stdout. The capability is resolved once, when
// the provider is built; if the command is not on PATH the microphone
// control stays hidden.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// ErrUnsupported is returned by Unsupported.Listen.
var ErrUnsupported = errors.New("speech recognition not available")

// ErrNoSpeech is returned when the command ran but produced no text.
var ErrNoSpeech = errors.New("no speech recognized")

// Provider turns speech into text.
type Provider interface {
	Supported() bool
	Listen(ctx context.Context) (string, error)
}

// Resolve returns a Supported provider when command is set and found on
// PATH, and Unsupported otherwise. The command string is split on spaces;
// the first field is the program.
func Resolve(command string) Provider {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Unsupported{}
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		log.Printf("VOICE_UNAVAILABLE | command=%s err=%v", fields[0], err)
		return Unsupported{}
	}
	log.Printf("VOICE_READY | command=%s", path)
	return &Command{Path: path, Args: fields[1:]}
}

// Unsupported is the provider used when no recognizer exists.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }

func (Unsupported) Listen(context.Context) (string, error) { return "", ErrUnsupported }

// Command runs an external dictation program.
type Command struct {
	Path string
	Args []string
}

func (c *Command) Supported() bool { return true }

// Listen runs the command and returns its trimmed stdout.
func (c *Command) Listen(ctx context.Context) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("dictation failed: %w", err)
		}
		return "", fmt.Errorf("dictation failed: %s: %w", msg, err)
	}

	text := strings.Join(strings.Fields(stdout.String()), " ")
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
