package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/iox"
)

// HeadCommand returns the head command: print the latest frame of a topic.
func HeadCommand() *cli.Command {
	return &cli.Command{
		Name:      "head",
		Usage:     "Show the latest frame for a topic",
		ArgsUsage: "<topic>",
		Flags:     StoreFlags(),
		Action:    headAction,
	}
}

func headAction(c *cli.Context) error {
	topic := c.Args().First()
	if topic == "" {
		return cli.Exit("head requires a topic argument", 1)
	}

	s, _, err := openStore(c, nil)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(s)

	f, err := s.Head(topic)
	if err != nil {
		return fmt.Errorf("head failed: %w", err)
	}
	if f == nil {
		return cli.Exit(fmt.Sprintf("no frames for topic %q", topic), 1)
	}
	return printJSON(newFrameView(f))
}
