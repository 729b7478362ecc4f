// Package generate is the batch pipeline that turns inline text, a text file
// or an archive file into QR-code images.
//
// Every operation returns nil on success or a *Error whose Code tells the
// caller what went wrong; CodeOf and Message map it for presentation.
package generate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/openclaw/qrcodemaker/paths"
	"github.com/openclaw/qrcodemaker/qr"
	"github.com/openclaw/qrcodemaker/records"
	"github.com/openclaw/qrcodemaker/store"
)

// MaxTextLength is the character ceiling checked before encoding. It is the
// byte-mode capacity of the largest QR version and ignores the actual
// capacity of the chosen recovery level.
const MaxTextLength = 4296

// Mode names the three entry points.
type Mode string

const (
	ModeInline  Mode = "string"
	ModeFile    Mode = "textfile"
	ModeArchive Mode = "archfile"
)

// Recorder persists a finished job.
type Recorder interface {
	SaveJob(job *store.Job) error
}

// Notifier announces a finished job.
type Notifier interface {
	NotifyJob(job *store.Job) error
}

// Options configures a Generator.
type Options struct {
	// Debug traces every text and record at debug level.
	Debug bool
	// DryRun parses and validates without encoding or writing images.
	DryRun bool
	// LeadingSeparator decides how archive lines starting with "|" are read.
	LeadingSeparator records.LeadingSeparatorPolicy
	// Recorder and Notifier are optional.
	Recorder Recorder
	Notifier Notifier
}

// Generator runs generation requests. It holds no mutable state and is safe
// for concurrent use as long as callers target distinct output paths.
type Generator struct {
	enc  qr.Encoder
	log  *slog.Logger
	opts Options
}

// New returns a Generator using enc for symbols and images.
func New(enc qr.Encoder, log *slog.Logger, opts Options) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{enc: enc, log: log, opts: opts}
}

// InlineText encodes text into a single image at outputPath, adding the
// format extension when missing.
func (g *Generator) InlineText(text, outputPath string, format qr.Format, size int) error {
	target := paths.NormalizeExtension(outputPath, format)
	job := g.newJob(ModeInline, "", target, format, size)

	err := g.save(text, format, size, target)
	g.finish(job, nil, err)
	return err
}

// SingleFile encodes the whole content of sourcePath, read as raw bytes,
// into a single image at outputPath.
func (g *Generator) SingleFile(sourcePath, outputPath string, format qr.Format, size int) error {
	target := paths.NormalizeExtension(outputPath, format)
	job := g.newJob(ModeFile, sourcePath, target, format, size)

	err := g.singleFile(sourcePath, target, format, size)
	g.finish(job, nil, err)
	return err
}

func (g *Generator) singleFile(sourcePath, target string, format qr.Format, size int) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		code := IOError
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			code = FileNotFound
		}
		g.log.Error("read source file failed", "path", sourcePath, "error", err)
		return &Error{Code: code, Path: sourcePath, Err: err}
	}
	return g.save(string(data), format, size, target)
}

// Render streams a single image for text to w without touching the
// filesystem.
func (g *Generator) Render(w io.Writer, text string, format qr.Format, size int) error {
	if err := checkLength(text, ""); err != nil {
		return err
	}
	sym, err := g.enc.Encode(text, size, size)
	if err != nil {
		return &Error{Code: classify(err, EncodingError), Err: err}
	}
	if err := g.enc.Write(w, sym, format); err != nil {
		return &Error{Code: classify(err, IOError), Err: err}
	}
	return nil
}

// save runs the length check, encodes text and writes the image to path.
func (g *Generator) save(text string, format qr.Format, size int, path string) error {
	if err := checkLength(text, path); err != nil {
		return err
	}
	if g.opts.Debug {
		g.log.Debug("qr text", "path", path, "text", text)
	}
	if g.opts.DryRun {
		g.log.Info("dry run, image not written", "path", path)
		return nil
	}

	sym, err := g.enc.Encode(text, size, size)
	if err != nil {
		return &Error{Code: classify(err, EncodingError), Path: path, Err: err}
	}
	if err := g.enc.Render(sym, format, path); err != nil {
		return &Error{Code: classify(err, IOError), Path: path, Err: err}
	}

	g.log.Debug("qr image written", "path", path, "format", format, "size", size)
	return nil
}

func checkLength(text, path string) error {
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return &Error{
			Code: TextTooLong,
			Path: path,
			Err:  fmt.Errorf("text has %d characters, limit is %d", n, MaxTextLength),
		}
	}
	return nil
}

// --- job bookkeeping ---------------------------------------------------------

func (g *Generator) newJob(mode Mode, source, target string, format qr.Format, size int) *store.Job {
	return &store.Job{
		ID:     uuid.NewString(),
		Mode:   string(mode),
		Source: source,
		Target: target,
		Format: string(format),
		Size:   size,
	}
}

// finish completes job from the outcome and hands it to the recorder and
// notifier. Their failures are logged only.
func (g *Generator) finish(job *store.Job, report *Report, err error) {
	job.Code = CodeOf(err).String()
	if err != nil {
		job.Error = err.Error()
	}
	job.CreatedAt = time.Now().UnixMilli()

	if report != nil {
		job.Succeeded, job.Failed, job.Skipped = report.Succeeded, report.Failed, report.Skipped
		job.Records = report.jobRecords()
	} else if err == nil {
		job.Succeeded = 1
	} else {
		job.Failed = 1
	}

	if err != nil {
		g.log.Warn("generation finished with error", "job_id", job.ID, "mode", job.Mode, "code", job.Code, "error", err)
	} else {
		g.log.Info("generation finished", "job_id", job.ID, "mode", job.Mode, "target", job.Target, "images", job.Succeeded)
	}

	if g.opts.Recorder != nil {
		if rerr := g.opts.Recorder.SaveJob(job); rerr != nil {
			g.log.Error("save job history failed", "job_id", job.ID, "error", rerr)
		}
	}
	if g.opts.Notifier != nil {
		if nerr := g.opts.Notifier.NotifyJob(job); nerr != nil {
			g.log.Error("job notification failed", "job_id", job.ID, "error", nerr)
		}
	}
}
