// Package main provides the eb-deploy CLI: publish an application version
// to Elastic Beanstalk and deploy it to an environment with monitored
// confirmation.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// rootOptions are shared across subcommands.
type rootOptions struct {
	Debug      bool   `short:"d" long:"debug" description:"enable debug logging"`
	LogJSON    bool   `long:"log-json" description:"emit log lines as JSON"`
	ConfigFile string `short:"c" long:"config" description:"YAML file with monitor tuning overrides"`
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts rootOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "eb-deploy"

	if _, err := parser.AddCommand("deploy",
		"Deploy an application version to an environment",
		"Trigger an environment update to an existing application version and monitor it to a confirmed success or failure.",
		&deployCommand{opts: &opts}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if _, err := parser.AddCommand("publish",
		"Publish a new application version",
		"Upload a package file to S3 and register it as a new Elastic Beanstalk application version.",
		&publishCommand{opts: &opts}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		return 1
	}
	return 0
}
