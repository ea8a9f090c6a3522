// Package flagx lets several config stages read their own flags from the same
// command line without tripping over each other's unknown flags.
package flagx

import (
	"flag"
	"io"
	"os"
	"slices"
	"strings"
)

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      -config=conf.json
//
// A separate value is only consumed when it does not itself start with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// FilterBoolArgs returns the boolean flags from allowedFlags found in args,
// either bare (-p) or with an explicit value (-p=false). Unlike FilterArgs it
// never consumes the following argument.
func FilterBoolArgs(args []string, allowedFlags []string) []string {
	var filtered []string
	for _, arg := range args {
		name, _, _ := strings.Cut(arg, "=")
		if slices.Contains(allowedFlags, name) {
			filtered = append(filtered, arg)
		}
	}
	return filtered
}

// Positional returns the arguments that are neither flags in knownFlags nor
// the values that belong to them. The CLI uses it to find a one-shot command
// such as "scan https://example.com".
func Positional(args []string, knownFlags []string) []string {
	known := make(map[string]struct{}, len(knownFlags))
	for _, f := range knownFlags {
		known[f] = struct{}{}
	}

	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			out = append(out, arg)
			continue
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := known[arg]; ok && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}

// stringFlag extracts a single string flag registered under several names.
// The last occurrence wins.
func stringFlag(args []string, usage string, names ...string) string {
	var value string

	dashed := make([]string, 0, len(names))
	for _, n := range names {
		dashed = append(dashed, "-"+n)
	}

	fs := flag.NewFlagSet("flagx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", usage)
	}
	_ = fs.Parse(FilterArgs(args, dashed))

	return value
}

// JsonConfigFlags returns the config file path given via -c or -config, or ""
// when neither is present.
func JsonConfigFlags() string {
	return stringFlag(os.Args[1:], "Path to config file", "c", "config")
}

// EnvFileFlag returns the dotenv file path given via -env, or ".env".
func EnvFileFlag() string {
	if v := stringFlag(os.Args[1:], "Path to .env file", "env"); v != "" {
		return v
	}
	return ".env"
}
