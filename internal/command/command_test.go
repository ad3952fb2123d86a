package command

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/motorsig/internal/ocrdoc"
)

func writeDoc(t *testing.T, n int) string {
	t.Helper()
	var b ocrdoc.Builder
	b.StartPage(1, 2000, 1000)
	x := 10.0
	for i := 0; i < n; i++ {
		w := 120 - 15*float64(i)
		brk := "SPACE"
		if i == n-1 {
			brk = "EOL"
		}
		b.AddToken("word", ocrdoc.Rect(x, 100, x+w, 140), 0.9, brk)
		x += w + 30 - 3*float64(i)
	}
	data, err := json.Marshal(b.Document())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "sample.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeTone(t *testing.T, seconds float64) string {
	t.Helper()
	const rate = 16000
	data := make([]int, int(seconds*rate))
	for i := range data {
		data[i] = int(12000 * math.Sin(2*math.Pi*180*float64(i)/rate))
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

// runApp runs the CLI and returns stdout and the exit code passed to cli.Exit.
func runApp(t *testing.T, args ...string) (string, int, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"motorcli"}, args...))
	code := 0
	if ec, ok := err.(cli.ExitCoder); ok {
		code = ec.ExitCode()
	}
	return out.String(), code, err
}

func TestHandwritingJSON(t *testing.T) {
	out, _, err := runApp(t, "handwriting", "--quiet", writeDoc(t, 5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got["insufficient"] != false {
		t.Errorf("insufficient = %v, want false", got["insufficient"])
	}
	if _, ok := got["token_width_trend"]; !ok {
		t.Errorf("missing token_width_trend in %v", got)
	}
}

func TestHandwritingYAMLToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.yaml")
	_, _, err := runApp(t, "handwriting", "-q", "--format", "yaml", "--output", dest, writeDoc(t, 5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if _, ok := got["conclusion"]; !ok {
		t.Errorf("missing conclusion in %v", got)
	}
}

func TestHandwritingTextAndMarkdown(t *testing.T) {
	path := writeDoc(t, 5)
	out, _, err := runApp(t, "handwriting", "-q", "--format", "text", path)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(out, "token width") {
		t.Errorf("text output missing narrative:\n%s", out)
	}

	out, _, err = runApp(t, "handwriting", "-q", "--format", "md", "--sample-id", "S-1", path)
	if err != nil {
		t.Fatalf("md: %v", err)
	}
	if !strings.Contains(out, "| Series |") || !strings.Contains(out, "S-1") {
		t.Errorf("markdown output unexpected:\n%s", out)
	}
}

func TestSpeechTooShort(t *testing.T) {
	_, code, err := runApp(t, "speech", "-q", writeTone(t, 1))
	if err == nil {
		t.Fatal("expected error for short clip")
	}
	if code != exitInsufficient {
		t.Errorf("exit code = %d, want %d", code, exitInsufficient)
	}
}

func TestSpeechText(t *testing.T) {
	out, _, err := runApp(t, "speech", "-q", "--format", "text", writeTone(t, 3.5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "Severity score:") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestUsageErrors(t *testing.T) {
	if _, code, err := runApp(t, "speech"); err == nil || code != exitFailed {
		t.Errorf("missing FILE: err=%v code=%d", err, code)
	}
	if _, code, err := runApp(t, "speech", "--format", "pdf", "x.wav"); err == nil || code != exitFailed {
		t.Errorf("bad format: err=%v code=%d", err, code)
	}
	if _, code, err := runApp(t, "handwriting", filepath.Join(t.TempDir(), "missing.json")); err == nil || code != exitFailed {
		t.Errorf("missing file: err=%v code=%d", err, code)
	}
}
