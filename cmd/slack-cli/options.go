package main

import "fmt"

// options holds the parsed command line.
type options struct {
	dst       string
	src       []string
	last      int
	lastSet   bool
	file      string
	pre       bool
	run       bool
	saveCache bool
	token     string
	team      string
	debug     bool
	messages  []string
}

// usageError is a rejected flag combination. The message is printed followed by help.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// validateArgs rejects incompatible flag combinations before any Slack call is made.
func validateArgs(o *options) error {
	if o.saveCache && o.dst == "" && len(o.src) == 0 {
		return nil
	}
	if o.dst != "" && len(o.src) > 0 {
		return usagef("Incompatible arguments: --src and --dst")
	}
	if o.dst == "" && len(o.src) == 0 {
		return usagef("Invalid arguments: one of --src or --dst must be specified")
	}
	if o.dst != "" && o.last != 0 {
		return usagef("Incompatible arguments: --dst and --last")
	}
	if len(o.src) > 0 && o.file != "" {
		return usagef("Incompatible arguments: --src and --file")
	}
	if o.file != "" && len(o.messages) > 0 {
		return usagef("Incompatible arguments: `messages` and --file")
	}
	if o.last < 0 {
		return usagef("Invalid arguments: --last must not be negative")
	}
	return nil
}
