package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// VersionCommand returns the version command. It never opens the store.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(*cli.Context) error {
			return printJSON(VersionResponse{
				Version: types.Version,
				Commit:  commit,
			})
		},
	}
}
