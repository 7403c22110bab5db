package imageopt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrSourceDirMissing is returned before any work when the source directory
// does not exist.
var ErrSourceDirMissing = errors.New("source directory not found")

// OutputExt is the extension of converted files.
const OutputExt = ".webp"

var sourceExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsSourceExt reports whether ext names a convertible image, ignoring case.
func IsSourceExt(ext string) bool {
	return sourceExts[strings.ToLower(ext)]
}

// Job is the conversion of one source file.
type Job struct {
	Filename     string
	OutputName   string
	Class        Class
	Profile      Profile
	InputSize    int64
	OutputSize   int64
	SavedBytes   int64
	SavedPercent float64
}

// Summary aggregates a run.
type Summary struct {
	Converted  int
	Skipped    int
	Errors     int
	BytesSaved int64
	Jobs       []Job
}

// Batch converts every source image of Dir that has no converted sibling.
// Files are processed one at a time, in name order.
type Batch struct {
	Dir     string
	Rules   []Rule
	Encoder Encoder
	Report  *Report
	Log     *zap.SugaredLogger
}

// NewBatch reports progress to out and failures to errOut.
func NewBatch(dir string, enc Encoder, out, errOut io.Writer, log *zap.SugaredLogger) *Batch {
	return &Batch{
		Dir:     dir,
		Rules:   DefaultRules,
		Encoder: enc,
		Report:  NewReport(out, errOut),
		Log:     log,
	}
}

// Run converts the directory. Failures of single files are counted in the
// summary; only a missing or unreadable directory, or ctx ending between
// files, returns an error.
func (b *Batch) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	b.Report.Start()

	info, err := os.Stat(b.Dir)
	if err != nil || !info.IsDir() {
		b.Report.MissingDir(b.Dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return sum, fmt.Errorf("%w: %s: %v", ErrSourceDirMissing, b.Dir, err)
		}
		return sum, fmt.Errorf("%w: %s", ErrSourceDirMissing, b.Dir)
	}

	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		return sum, fmt.Errorf("reading %s: %w", b.Dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsSourceExt(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, e.Name())
	}

	if len(files) == 0 {
		b.Report.NothingToDo()
		return sum, nil
	}
	b.Report.Found(len(files))

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			b.Report.Summary(sum)
			return sum, err
		}
		b.convert(ctx, name, &sum)
	}

	b.Report.Summary(sum)
	b.Log.Infow("optimize", "status", "done", "dir", b.Dir,
		"converted", sum.Converted, "skipped", sum.Skipped, "errors", sum.Errors, "saved_bytes", sum.BytesSaved)

	return sum, nil
}

func (b *Batch) convert(ctx context.Context, name string, sum *Summary) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	job := Job{Filename: name, OutputName: base + OutputExt}

	src := filepath.Join(b.Dir, name)
	dst := filepath.Join(b.Dir, job.OutputName)

	if _, err := os.Stat(dst); err == nil {
		sum.Skipped++
		b.Report.Skipped(job)
		return
	} else if !errors.Is(err, fs.ErrNotExist) {
		b.fail(job, err, sum)
		return
	}

	rule := Classify(b.Rules, name)
	job.Class = rule.Class
	job.Profile = rule.Profile
	b.Report.Converting(job)

	in, err := os.Stat(src)
	if err != nil {
		b.fail(job, err, sum)
		return
	}
	job.InputSize = in.Size()

	if err := b.Encoder.Encode(ctx, src, dst, job.Profile); err != nil {
		b.fail(job, err, sum)
		return
	}

	out, err := os.Stat(dst)
	if err != nil {
		b.fail(job, err, sum)
		return
	}
	job.OutputSize = out.Size()
	job.SavedBytes = job.InputSize - job.OutputSize
	if job.InputSize > 0 {
		job.SavedPercent = float64(job.SavedBytes) / float64(job.InputSize) * 100
	}

	sum.Converted++
	sum.BytesSaved += job.SavedBytes
	sum.Jobs = append(sum.Jobs, job)
	b.Report.Converted(job)
}

func (b *Batch) fail(job Job, err error, sum *Summary) {
	sum.Errors++
	b.Report.Failed(job, err)
	b.Log.Errorw("optimize", "file", job.Filename, "error", err)
}
