package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/iox"
	"github.com/strandhq/strand/lifecycle"
	"github.com/strandhq/strand/types"
)

// CatCommand returns the cat command: stream frames to stdout as NDJSON,
// tagged historical/threshold/live.
func CatCommand() *cli.Command {
	return &cli.Command{
		Name:  "cat",
		Usage: "Stream frames as NDJSON (history, then live with --follow)",
		Flags: append(StoreFlags(),
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Keep streaming after history drains",
			},
			&cli.BoolFlag{
				Name:  "tail",
				Usage: "Skip history, live frames only (implies --follow)",
			},
			&cli.StringFlag{
				Name:  "last-id",
				Usage: "Resume after this frame id (exclusive)",
			},
			&cli.StringFlag{
				Name:  "topic",
				Usage: "Only print frames for this topic",
			},
			&cli.BoolFlag{
				Name:  "payload",
				Usage: "Include payload bytes in each line",
			},
		),
		Action: catAction,
	}
}

func catAction(c *cli.Context) error {
	opts := types.ReadOptions{
		Follow: c.Bool("follow") || c.Bool("tail"),
		Tail:   c.Bool("tail"),
	}
	if raw := c.String("last-id"); raw != "" {
		id, err := types.ParseFrameID(raw)
		if err != nil {
			return fmt.Errorf("invalid --last-id: %w", err)
		}
		opts.LastID = &id
	}

	s, _, err := openStore(c, nil)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(s)

	sub, err := s.Read(c.Context, opts)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	cls := lifecycle.NewClassifier(sub)

	topicFilter := c.String("topic")
	withPayload := c.Bool("payload")

	for {
		lc, ok := cls.Recv(c.Context)
		if !ok {
			break
		}
		f := lc.Frame
		if topicFilter != "" && !f.IsThreshold() && f.Topic != topicFilter {
			continue
		}

		view := newFrameView(f)
		view.Tag = string(lc.Tag)
		if withPayload && !f.IsThreshold() {
			data, err := s.CASGet(f.Hash)
			if err != nil {
				return fmt.Errorf("cannot resolve payload %s: %w", f.Hash, err)
			}
			view.Payload = string(data)
		}
		if err := printJSON(view); err != nil {
			return err
		}
	}

	return cls.Err()
}
