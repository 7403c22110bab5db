package imageopt

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubEncoder struct {
	profiles map[string]Profile
	failFor  map[string]bool
	outSize  int
}

func (s *stubEncoder) Encode(_ context.Context, src, dst string, p Profile) error {
	name := filepath.Base(src)
	if s.profiles == nil {
		s.profiles = make(map[string]Profile)
	}
	s.profiles[name] = p
	if s.failFor[name] {
		return errors.New("corrupt image data")
	}
	return os.WriteFile(dst, bytes.Repeat([]byte{1}, s.outSize), 0o644)
}

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), bytes.Repeat([]byte{0}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestBatch(dir string, enc Encoder) (*Batch, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewBatch(dir, enc, &out, &errOut, zap.NewNop().Sugar()), &out, &errOut
}

func TestRun_ConvertsWithClassifiedProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dashboard.png", 2048)
	writeFile(t, dir, "hero-bg.JPG", 2048)
	writeFile(t, dir, "foto1.jpg", 2048)
	writeFile(t, dir, "notes.txt", 10)

	enc := &stubEncoder{outSize: 1024}
	b, out, _ := newTestBatch(dir, enc)

	sum, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Converted != 3 || sum.Skipped != 0 || sum.Errors != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.BytesSaved != 3*1024 {
		t.Fatalf("expected 3072 bytes saved, got %d", sum.BytesSaved)
	}

	if p := enc.profiles["dashboard.png"]; !p.Lossless {
		t.Fatalf("expected dashboard lossless, got %+v", p)
	}
	if p := enc.profiles["hero-bg.JPG"]; p.Lossless || p.Quality != 65 {
		t.Fatalf("expected bg quality 65, got %+v", p)
	}
	if p := enc.profiles["foto1.jpg"]; p.Lossless || p.Quality != 80 {
		t.Fatalf("expected default quality 80, got %+v", p)
	}
	if _, ok := enc.profiles["notes.txt"]; ok {
		t.Fatalf("non-image file must not be converted")
	}

	for _, j := range sum.Jobs {
		if j.SavedPercent != 50 {
			t.Fatalf("expected 50%% saved for %s, got %.2f", j.Filename, j.SavedPercent)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "hero-bg.webp")); err != nil {
		t.Fatalf("expected output written: %v", err)
	}
	if !strings.Contains(out.String(), "💾 Total economizado: 3 KB") {
		t.Fatalf("report missing total:\n%s", out.String())
	}
}

func TestRun_SecondRunSkipsEverything(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.png", 100)
	writeFile(t, dir, "b.jpeg", 100)

	b, _, _ := newTestBatch(dir, &stubEncoder{outSize: 50})
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("first run error: %v", err)
	}

	enc := &stubEncoder{outSize: 50}
	b, out, _ := newTestBatch(dir, enc)
	sum, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if sum.Converted != 0 || sum.Skipped != 2 || sum.Errors != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(enc.profiles) != 0 {
		t.Fatalf("expected no conversions, got %v", enc.profiles)
	}
	if strings.Contains(out.String(), "Total economizado") {
		t.Fatalf("total must be hidden when nothing was saved:\n%s", out.String())
	}
}

func TestRun_FileFailureDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bom.png", 100)
	writeFile(t, dir, "ruim.png", 100)

	b, out, errOut := newTestBatch(dir, &stubEncoder{outSize: 40, failFor: map[string]bool{"ruim.png": true}})

	sum, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Converted != 1 || sum.Errors != 1 || sum.Skipped != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if !strings.Contains(errOut.String(), "❌ Erro ao converter ruim.png: corrupt image data") {
		t.Fatalf("error output missing failure line:\n%s", errOut.String())
	}
	if strings.Contains(out.String(), "Erro ao converter") {
		t.Fatalf("failure line must not go to the report:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "❌ Erros: 1") {
		t.Fatalf("summary missing error count:\n%s", out.String())
	}
}

func TestRun_OutputGrowthIsReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "icone.png", 100)

	b, out, _ := newTestBatch(dir, &stubEncoder{outSize: 150})
	sum, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.BytesSaved != -50 {
		t.Fatalf("expected -50 bytes saved, got %d", sum.BytesSaved)
	}
	if !strings.Contains(out.String(), "⚠️  Arquivo aumentou: 50 Bytes") {
		t.Fatalf("report missing growth line:\n%s", out.String())
	}
}

func TestRun_NothingToConvert(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", 10)

	b, out, _ := newTestBatch(dir, &stubEncoder{})
	sum, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Converted+sum.Skipped+sum.Errors != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if !strings.Contains(out.String(), "Nenhuma imagem encontrada") {
		t.Fatalf("report missing nothing-to-do line:\n%s", out.String())
	}
}

func TestRun_MissingDirWritesNothing(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "img")

	b, out, errOut := newTestBatch(dir, &stubEncoder{})
	_, err := b.Run(context.Background())
	if !errors.Is(err, ErrSourceDirMissing) {
		t.Fatalf("expected ErrSourceDirMissing, got %v", err)
	}
	if !strings.Contains(errOut.String(), "❌ Erro: Pasta "+dir+" não encontrada!") {
		t.Fatalf("error output missing dir line:\n%s", errOut.String())
	}
	if strings.Contains(out.String(), "não encontrada") {
		t.Fatalf("missing dir line must not go to the report:\n%s", out.String())
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatalf("read parent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no filesystem writes, found %d entries", len(entries))
	}
}

func TestRun_StopsBetweenFilesWhenCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.png", 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enc := &stubEncoder{}
	b, _, _ := newTestBatch(dir, enc)
	if _, err := b.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(enc.profiles) != 0 {
		t.Fatalf("expected no conversions after cancel")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		0:                      "0 Bytes",
		512:                    "512 Bytes",
		1024:                   "1 KB",
		1536:                   "1.5 KB",
		1234567:                "1.18 MB",
		3 * 1024 * 1024 * 1024: "3 GB",
		-2048:                  "-2 KB",
	}
	for in, want := range cases {
		if got := FormatBytes(in); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
