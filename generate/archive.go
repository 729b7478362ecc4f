package generate

import (
	"fmt"
	"os"

	"github.com/openclaw/qrcodemaker/paths"
	"github.com/openclaw/qrcodemaker/qr"
	"github.com/openclaw/qrcodemaker/records"
	"github.com/openclaw/qrcodemaker/store"
)

// Outcome is the result of one archive record.
type Outcome struct {
	Record  records.Record
	Code    Code
	Err     error
	Skipped bool
}

// Report collects the outcomes of an archive run in source order.
type Report struct {
	JobID     string
	Source    string
	Folder    string
	Outcomes  []Outcome
	Succeeded int
	Failed    int
	Skipped   int
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch {
	case o.Skipped:
		r.Skipped++
	case o.Err != nil:
		r.Failed++
	default:
		r.Succeeded++
	}
}

// FailedLines returns the source lines whose record produced no image,
// excluding skipped lines.
func (r *Report) FailedLines() []int {
	var lines []int
	for _, o := range r.Outcomes {
		if o.Err != nil {
			lines = append(lines, o.Record.Line)
		}
	}
	return lines
}

func (r *Report) jobRecords() []store.JobRecord {
	out := make([]store.JobRecord, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		jr := store.JobRecord{
			Line:     o.Record.Line,
			Text:     o.Record.Text,
			Filename: o.Record.Filename,
			Status:   store.StatusOK,
			Code:     o.Code.String(),
		}
		switch {
		case o.Skipped:
			jr.Status = store.StatusSkipped
		case o.Err != nil:
			jr.Status = store.StatusFailed
			jr.Error = o.Err.Error()
		}
		out = append(out, jr)
	}
	return out
}

// ArchiveFile reads sourcePath line by line and writes one image per record
// into outputFolder, prefixing every text with header. Records are processed
// sequentially; a failing record does not stop the run. The returned report
// is never nil. The error is nil only when every record produced an image.
func (g *Generator) ArchiveFile(sourcePath, outputFolder, header string, format qr.Format, size int) (*Report, error) {
	job := g.newJob(ModeArchive, sourcePath, outputFolder, format, size)
	job.Header = header
	report := &Report{JobID: job.ID, Source: sourcePath, Folder: outputFolder}

	err := g.archive(report, header, format, size)
	g.finish(job, report, err)
	return report, err
}

func (g *Generator) archive(report *Report, header string, format qr.Format, size int) error {
	if err := paths.EnsureFolder(report.Folder); err != nil {
		g.log.Error("output folder unavailable", "folder", report.Folder, "error", err)
		return &Error{Code: FolderFailure, Path: report.Folder, Err: err}
	}

	f, err := os.Open(report.Source)
	if err != nil {
		g.log.Error("open archive file failed", "path", report.Source, "error", err)
		return &Error{Code: FileNotFound, Path: report.Source, Err: err}
	}
	defer f.Close()

	p := records.NewParser(f, header, format, records.WithLeadingSeparator(g.opts.LeadingSeparator))
	for p.Next() {
		rec := p.Record()
		if g.opts.Debug {
			g.log.Debug("archive record", "line", rec.Line, "text", rec.Text, "filename", rec.Filename)
		}
		if rec.Dropped {
			g.log.Warn("line starts with separator, skipped", "path", report.Source, "line", rec.Line)
			report.add(Outcome{Record: rec, Skipped: true})
			continue
		}

		target, err := paths.Join(report.Folder, rec.Filename)
		if err != nil {
			err = &Error{Code: IOError, Path: rec.Filename, Err: err}
		} else {
			err = g.save(rec.Text, format, size, target)
		}
		if err != nil {
			g.log.Warn("record not generated", "line", rec.Line, "filename", rec.Filename, "error", err)
		}
		report.add(Outcome{Record: rec, Code: CodeOf(err), Err: err})
	}
	if err := p.Err(); err != nil {
		g.log.Error("reading archive file failed", "path", report.Source, "error", err)
		return &Error{Code: IOError, Path: report.Source, Err: err}
	}

	if failed := report.FailedLines(); len(failed) > 0 {
		return &Error{
			Code:   PartialFailure,
			Path:   report.Folder,
			Failed: failed,
			Err:    fmt.Errorf("%d of %d records failed", len(failed), len(report.Outcomes)-report.Skipped),
		}
	}
	return nil
}
