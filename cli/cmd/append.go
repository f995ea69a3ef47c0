package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/bridge"
	"github.com/strandhq/strand/iox"
)

// AppendCommand returns the append command: write one frame whose payload
// comes from --payload or stdin.
func AppendCommand() *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "Append a frame to a topic (payload from --payload or stdin)",
		ArgsUsage: "<topic>",
		Flags: append(StoreFlags(),
			&cli.StringFlag{
				Name:  "payload",
				Usage: "Inline payload (stdin is read when omitted)",
			},
			&cli.StringFlag{
				Name:  "meta",
				Usage: "Frame metadata as a JSON object",
			},
		),
		Action: appendAction,
	}
}

func appendAction(c *cli.Context) error {
	topic := c.Args().First()
	if topic == "" {
		return cli.Exit("append requires a topic argument", 1)
	}

	var payload []byte
	if c.IsSet("payload") {
		payload = []byte(c.String("payload"))
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("cannot read payload from stdin: %w", err)
		}
		payload = data
	}

	var meta map[string]any
	if m := c.String("meta"); m != "" {
		if err := json.Unmarshal([]byte(m), &meta); err != nil {
			return fmt.Errorf("invalid --meta JSON: %w", err)
		}
	}

	s, _, err := openStore(c, nil)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(s)

	// The bridge handle applies the same reserved-topic refusal that
	// reactive bodies get; the sentinel topic is not writable from here.
	f, err := bridge.NewHandle(s).Append(c.Context, topic, payload, meta)
	if err != nil {
		return fmt.Errorf("append failed: %w", err)
	}
	return printJSON(newFrameView(f))
}
