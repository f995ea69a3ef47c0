package cmd

import (
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/bridge"
	"github.com/strandhq/strand/cli/config"
	"github.com/strandhq/strand/types"
)

func testApp() *cli.App {
	return &cli.App{
		Name: "strand",
		Commands: []*cli.Command{
			ServeCommand(),
			AppendCommand(),
			CatCommand(),
			HeadCommand(),
			GetCommand(),
			CASCommand(),
			VersionCommand("test"),
		},
	}
}

// runCapture runs one CLI invocation and returns captured stdout.
func runCapture(t *testing.T, args ...string) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	runErr := testApp().Run(append([]string{"strand"}, args...))
	_ = w.Close()
	os.Stdout = orig

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if runErr != nil {
		t.Fatalf("run %v failed: %v", args, runErr)
	}
	return sb.String()
}

func decodeFrameView(t *testing.T, line string) frameView {
	t.Helper()
	var v frameView
	if err := json.Unmarshal([]byte(line), &v); err != nil {
		t.Fatalf("invalid frame JSON %q: %v", line, err)
	}
	return v
}

func TestAppendHeadGet_RoundTrip(t *testing.T) {
	root := t.TempDir()

	out := runCapture(t, "append", "--root", root, "--payload", "hello", "orders")
	appended := decodeFrameView(t, strings.TrimSpace(out))
	if appended.Topic != "orders" || appended.ID == "" || appended.Hash == "" {
		t.Fatalf("append output = %+v", appended)
	}

	out = runCapture(t, "head", "--root", root, "orders")
	head := decodeFrameView(t, strings.TrimSpace(out))
	if head.ID != appended.ID {
		t.Errorf("head id = %s, want %s", head.ID, appended.ID)
	}

	out = runCapture(t, "get", "--root", root, "--payload", appended.ID)
	got := decodeFrameView(t, strings.TrimSpace(out))
	if got.Payload != "hello" {
		t.Errorf("get payload = %q, want %q", got.Payload, "hello")
	}
}

func TestAppend_RefusesReservedTopic(t *testing.T) {
	root := t.TempDir()

	err := testApp().Run([]string{"strand", "append", "--root", root, "--payload", "x", types.TopicThreshold})
	if !errors.Is(err, bridge.ErrReservedTopic) {
		t.Fatalf("append on reserved topic: err = %v, want ErrReservedTopic", err)
	}

	// Nothing persisted: replay stays empty.
	out := runCapture(t, "cat", "--root", root)
	if strings.TrimSpace(out) != "" {
		t.Errorf("reserved-topic append left frames behind: %q", out)
	}
}

func TestCat_ReplaysHistoryInOrder(t *testing.T) {
	root := t.TempDir()

	var ids []string
	for _, p := range []string{"a", "b", "c"} {
		out := runCapture(t, "append", "--root", root, "--payload", p, "t")
		ids = append(ids, decodeFrameView(t, strings.TrimSpace(out)).ID)
	}

	out := runCapture(t, "cat", "--root", root)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("cat printed %d lines, want 3: %q", len(lines), out)
	}
	for i, line := range lines {
		v := decodeFrameView(t, line)
		if v.ID != ids[i] {
			t.Errorf("line %d id = %s, want %s", i, v.ID, ids[i])
		}
		if v.Tag != "historical" {
			t.Errorf("line %d lifecycle = %q, want historical", i, v.Tag)
		}
	}
}

func TestCat_TopicFilter(t *testing.T) {
	root := t.TempDir()
	runCapture(t, "append", "--root", root, "--payload", "x", "keep")
	runCapture(t, "append", "--root", root, "--payload", "y", "drop")
	runCapture(t, "append", "--root", root, "--payload", "z", "keep")

	out := runCapture(t, "cat", "--root", root, "--topic", "keep")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("filtered cat printed %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if v := decodeFrameView(t, line); v.Topic != "keep" {
			t.Errorf("topic = %q leaked through filter", v.Topic)
		}
	}
}

func TestCASPostGet_RoundTrip(t *testing.T) {
	root := t.TempDir()

	stdin, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatalf("temp stdin: %v", err)
	}
	if _, err := stdin.WriteString("blob bytes"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	if _, err := stdin.Seek(0, 0); err != nil {
		t.Fatalf("seek stdin: %v", err)
	}
	origStdin := os.Stdin
	os.Stdin = stdin
	defer func() { os.Stdin = origStdin }()

	out := runCapture(t, "cas", "post", "--root", root)
	var resp map[string]string
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid cas post output %q: %v", out, err)
	}
	os.Stdin = origStdin

	out = runCapture(t, "cas", "get", "--root", root, resp["hash"])
	if out != "blob bytes" {
		t.Errorf("cas get = %q, want %q", out, "blob bytes")
	}
}

func TestVersionCommand(t *testing.T) {
	out := runCapture(t, "version")
	var resp VersionResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid version output %q: %v", out, err)
	}
	if resp.Version == "" || resp.Commit != "test" {
		t.Errorf("version response = %+v", resp)
	}
}

func TestResolveRoot_Precedence(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("root", "", "")
	ctx := cli.NewContext(nil, set, nil)

	cfg := &config.Config{Root: "/from-config"}
	root, err := resolveRoot(ctx, cfg)
	if err != nil || root != "/from-config" {
		t.Errorf("config root: got %q, %v", root, err)
	}

	if err := set.Set("root", "/from-flag"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	root, err = resolveRoot(ctx, cfg)
	if err != nil || root != "/from-flag" {
		t.Errorf("flag root: got %q, %v", root, err)
	}

	root, err = resolveRoot(cli.NewContext(nil, flag.NewFlagSet("empty", flag.ContinueOnError), nil), &config.Config{})
	if err == nil {
		t.Errorf("expected error without root, got %q", root)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "", "")
	ctx := cli.NewContext(nil, set, nil)

	cfg, err := loadConfig(ctx)
	if err != nil {
		t.Fatalf("loadConfig without file failed: %v", err)
	}
	if cfg.Root != "" || len(cfg.Tasks) != 0 {
		t.Errorf("empty config = %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "strand.yaml")
	if err := os.WriteFile(path, []byte("root: /data\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := set.Set("config", path); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err = loadConfig(ctx)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Root != "/data" {
		t.Errorf("Root = %q, want /data", cfg.Root)
	}
}
