package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/iox"
	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

// GetCommand returns the get command: fetch one frame by id.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one frame by id",
		ArgsUsage: "<frame-id>",
		Flags: append(StoreFlags(),
			&cli.BoolFlag{
				Name:  "payload",
				Usage: "Include payload bytes in the output",
			},
		),
		Action: getAction,
	}
}

func getAction(c *cli.Context) error {
	raw := c.Args().First()
	if raw == "" {
		return cli.Exit("get requires a frame id argument", 1)
	}
	id, err := types.ParseFrameID(raw)
	if err != nil {
		return fmt.Errorf("invalid frame id: %w", err)
	}

	s, _, err := openStore(c, nil)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(s)

	f, err := s.Get(c.Context, id)
	if err != nil {
		if errors.Is(err, store.ErrFrameNotFound) {
			return cli.Exit(fmt.Sprintf("frame %s not found", raw), 1)
		}
		return fmt.Errorf("get failed: %w", err)
	}

	view := newFrameView(f)
	if c.Bool("payload") {
		data, err := s.CASGet(f.Hash)
		if err != nil {
			return fmt.Errorf("cannot resolve payload %s: %w", f.Hash, err)
		}
		view.Payload = string(data)
	}
	return printJSON(view)
}
