// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing for companion commands.

package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits raw arguments into flags and positionals.
// It handles these forms:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (only for names declared as boolean)
//   - Positional arguments: arguments without flags
//   - "--" ends flag parsing; everything after it is positional
type ArgParser struct {
	subcommand string            // First positional arg (e.g., "chat", "config")
	flags      map[string]string // String flags (--key=value)
	boolFlags  map[string]bool   // Boolean flags (--plain)
	missing    []string          // Value flags given without a value
	order      []string          // Flag names in the order seen
	positional []string
	raw        []string
}

// NewArgParser parses raw. Names listed in boolNames never consume the
// following argument; every other flag does.
//
// Example:
//
//	args := NewArgParser([]string{"chat", "--model", "llama3", "--plain"}, "plain")
//	args.Subcommand()     // "chat"
//	args.Flag("model")    // "llama3"
//	args.BoolFlag("plain") // true
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}
	isBool := func(name string) bool { return slices.Contains(boolNames, name) }

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}
		// A lone "-" is a positional
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			i++
			continue
		}

		// --flag=value
		if name, value, ok := strings.Cut(strings.TrimLeft(arg, "-"), "="); ok {
			parser.seen(name)
			if isBool(name) {
				parser.boolFlags[name] = value == "true" || value == "1"
			} else if value == "" {
				parser.missing = append(parser.missing, name)
			} else {
				parser.flags[name] = value
			}
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		parser.seen(name)
		switch {
		case isBool(name):
			parser.boolFlags[name] = true
			i++
		case i+1 < len(raw) && !looksLikeFlag(raw[i+1]):
			parser.flags[name] = raw[i+1]
			i += 2
		default:
			parser.missing = append(parser.missing, name)
			i++
		}
	}

	// First positional is the subcommand
	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}

	return parser
}

func (p *ArgParser) seen(name string) {
	if !slices.Contains(p.order, name) {
		p.order = append(p.order, name)
	}
}

// looksLikeFlag reports whether s starts a new flag. Negative numbers are
// values, so "--temperature -1" reaches validation instead of being
// reported as a missing value.
func looksLikeFlag(s string) bool {
	if !strings.HasPrefix(s, "-") || s == "-" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}

// Subcommand returns the first positional argument.
// Returns empty string if no positional arguments.
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "" if it was not given.
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the flag value or a default if not found.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// FlagInt returns the flag value as an integer.
func (p *ArgParser) FlagInt(name string) (int, error) {
	val := p.Flag(name)
	if val == "" {
		return 0, fmt.Errorf("flag %s not found", name)
	}
	return strconv.Atoi(val)
}

// FlagFloat returns the flag value as a float.
func (p *ArgParser) FlagFloat(name string) (float64, error) {
	val := p.Flag(name)
	if val == "" {
		return 0, fmt.Errorf("flag %s not found", name)
	}
	return strconv.ParseFloat(val, 64)
}

// BoolFlag returns the value of a boolean flag.
// Returns false if flag not found.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// Positional returns the positional argument at the given index.
// Index 0 is the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// HasFlag returns true if the flag was given in any form.
func (p *ArgParser) HasFlag(name string) bool {
	return slices.Contains(p.order, strings.TrimLeft(name, "-"))
}

// Names returns every flag name seen, in order, without dashes.
func (p *ArgParser) Names() []string {
	return slices.Clone(p.order)
}

// Missing returns value flags that were given without a value.
func (p *ArgParser) Missing() []string {
	return slices.Clone(p.missing)
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}
