package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/zipview/internal/list"
	"github.com/nguyengg/zipview/internal/read"
)

var opts struct {
	Profile string       `short:"p" long:"profile" description:"override AWS_PROFILE if given"`
	List    list.Command `command:"list" alias:"ls" description:"list the entries of zip containers without downloading them"`
	Read    read.Command `command:"read" alias:"cat" description:"read a byte range of one entry without extracting the archive"`
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(command flags.Commander, args []string) error {
		if opts.Profile != "" {
			if err := os.Setenv("AWS_PROFILE", opts.Profile); err != nil {
				return fmt.Errorf("set AWS_PROFILE error: %w", err)
			}
		}

		return command.Execute(args)
	}

	if _, err := p.Parse(); err != nil && !flags.WroteHelp(err) {
		os.Exit(1)
	}
}
