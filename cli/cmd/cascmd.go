package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/cas"
	"github.com/strandhq/strand/iox"
)

// CASCommand returns the cas command group: direct blob access without
// touching the frame log.
func CASCommand() *cli.Command {
	return &cli.Command{
		Name:  "cas",
		Usage: "Content-addressable blob store access",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Write blob bytes for a hash to stdout",
				ArgsUsage: "<hash>",
				Flags:     StoreFlags(),
				Action:    casGetAction,
			},
			{
				Name:   "post",
				Usage:  "Store stdin as a blob and print its hash",
				Flags:  StoreFlags(),
				Action: casPostAction,
			},
		},
	}
}

func casGetAction(c *cli.Context) error {
	hash := c.Args().First()
	if hash == "" {
		return cli.Exit("cas get requires a hash argument", 1)
	}

	s, _, err := openStore(c, nil)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(s)

	data, err := s.CASGet(hash)
	if err != nil {
		var se *cas.StorageError
		if errors.As(err, &se) && errors.Is(se.Kind, cas.ErrNotFound) {
			return cli.Exit(fmt.Sprintf("blob %s not found", hash), 1)
		}
		return fmt.Errorf("cas get failed: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func casPostAction(c *cli.Context) error {
	s, _, err := openStore(c, nil)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(s)

	w, err := s.CASWriter()
	if err != nil {
		return fmt.Errorf("cas post failed: %w", err)
	}
	if _, err := io.Copy(w, os.Stdin); err != nil {
		w.Abort()
		return fmt.Errorf("cannot read stdin: %w", err)
	}
	hash, err := w.Commit()
	if err != nil {
		return fmt.Errorf("cas post failed: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(map[string]string{"hash": hash})
}
