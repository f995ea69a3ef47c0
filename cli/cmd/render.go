package cmd

import (
	"encoding/json"
	"os"

	"github.com/strandhq/strand/types"
)

// frameView is the JSON shape commands print for one frame.
type frameView struct {
	ID      string         `json:"id"`
	Topic   string         `json:"topic"`
	Hash    string         `json:"hash"`
	Meta    map[string]any `json:"meta,omitempty"`
	Payload string         `json:"payload,omitempty"`
	Tag     string         `json:"lifecycle,omitempty"`
}

func newFrameView(f *types.Frame) frameView {
	return frameView{
		ID:    f.ID.String(),
		Topic: f.Topic,
		Hash:  f.Hash,
		Meta:  f.Meta,
	}
}

// printJSON writes one JSON value followed by a newline to stdout.
// Shared by the one-shot commands and the NDJSON cat stream.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}
