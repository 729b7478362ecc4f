package generate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/qrcodemaker/paths"
	"github.com/openclaw/qrcodemaker/qr"
	"github.com/openclaw/qrcodemaker/records"
)

func writeArchive(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "items.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestArchiveFile_NamesAndOrder(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "Item A|itemA\nItem B\n\nItem C\n")
	out := filepath.Join(dir, "codes")

	enc := &fakeEncoder{}
	g := New(enc, quietLogger(), Options{})

	report, err := g.ArchiveFile(src, out, "", qr.PNG, 200)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, []string{
		filepath.Join(out, "itemA.png"),
		filepath.Join(out, "0.png"),
		filepath.Join(out, "1.png"),
	}, enc.rendered)
	assert.Equal(t, 3, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.NotEmpty(t, report.JobID)

	data, err := os.ReadFile(filepath.Join(out, "itemA.png"))
	require.NoError(t, err)
	assert.Equal(t, "Item A", string(data))
}

func TestArchiveFile_HeaderPrefix(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "abc | code1\nxyz\n")

	enc := &fakeEncoder{}
	g := New(enc, quietLogger(), Options{})

	_, err := g.ArchiveFile(src, filepath.Join(dir, "out"), "https://example.com/p/", qr.JPG, 100)
	require.NoError(t, err)
	require.Len(t, enc.encodeCalls, 2)
	assert.Equal(t, "https://example.com/p/abc", enc.encodeCalls[0].Text)
	assert.Equal(t, "https://example.com/p/xyz", enc.encodeCalls[1].Text)
	assert.Equal(t, 100, enc.encodeCalls[0].Width)
	assert.Equal(t, 100, enc.encodeCalls[0].Height)
}

func TestArchiveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	g := New(&fakeEncoder{}, quietLogger(), Options{})

	report, err := g.ArchiveFile(filepath.Join(dir, "nope.txt"), out, "", qr.PNG, 100)
	assert.Equal(t, FileNotFound, CodeOf(err))
	require.NotNil(t, report)
	assert.Empty(t, report.Outcomes)
	// The folder is prepared before the source is opened.
	assert.DirExists(t, out)
}

func TestArchiveFile_FolderFailure(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "a\n")
	enc := &fakeEncoder{}
	g := New(enc, quietLogger(), Options{})

	_, err := g.ArchiveFile(src, filepath.Join(dir, "no", "such", "parent"), "", qr.PNG, 100)
	assert.Equal(t, FolderFailure, CodeOf(err))
	assert.Empty(t, enc.encodeCalls)
}

func TestArchiveFile_PartialFailureCollected(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("L", MaxTextLength+1)
	src := writeArchive(t, dir, "good|g\n"+long+"\nbad|b\nlast\n")

	enc := &fakeEncoder{
		failEncode: map[string]error{"bad": fmt.Errorf("%w: charset", qr.ErrEncoding)},
	}
	g := New(enc, quietLogger(), Options{})

	report, err := g.ArchiveFile(src, filepath.Join(dir, "out"), "", qr.PNG, 100)
	assert.Equal(t, PartialFailure, CodeOf(err))

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, []int{2, 3}, ge.Failed)

	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, OK, report.Outcomes[0].Code)
	assert.Equal(t, TextTooLong, report.Outcomes[1].Code)
	assert.Equal(t, EncodingError, report.Outcomes[2].Code)
	assert.Equal(t, OK, report.Outcomes[3].Code)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Failed)

	// Processing continued past the failures.
	assert.FileExists(t, filepath.Join(dir, "out", "1.png"))
	// The auto index is consumed by the over-long line even though it failed.
	assert.Equal(t, "0.png", report.Outcomes[1].Record.Filename)
}

func TestArchiveFile_LeadingSeparatorDropped(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "|orphan\nkept\n")

	enc := &fakeEncoder{}
	rec := &fakeRecorder{}
	g := New(enc, quietLogger(), Options{Recorder: rec})

	report, err := g.ArchiveFile(src, filepath.Join(dir, "out"), "", qr.PNG, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Succeeded)
	assert.True(t, report.Outcomes[0].Skipped)
	require.Len(t, enc.encodeCalls, 1)
	assert.Equal(t, "kept", enc.encodeCalls[0].Text)

	require.Len(t, rec.jobs, 1)
	job := rec.jobs[0]
	assert.Equal(t, 1, job.Skipped)
	require.Len(t, job.Records, 2)
	assert.Equal(t, "skipped", job.Records[0].Status)
	assert.Equal(t, "ok", job.Records[1].Status)
}

func TestArchiveFile_LeadingSeparatorEmptyText(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "|orphan\n")

	enc := &fakeEncoder{}
	g := New(enc, quietLogger(), Options{LeadingSeparator: records.EmptyTextLeadingSeparator})

	_, err := g.ArchiveFile(src, filepath.Join(dir, "out"), "BASE", qr.PNG, 100)
	require.NoError(t, err)
	require.Len(t, enc.rendered, 1)
	assert.Equal(t, filepath.Join(dir, "out", "orphan.png"), enc.rendered[0])
	assert.Equal(t, "BASE", enc.encodeCalls[0].Text)
}

func TestArchiveFile_DryRun(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "a|one\nb\n")
	out := filepath.Join(dir, "out")

	enc := &fakeEncoder{}
	g := New(enc, quietLogger(), Options{DryRun: true})

	report, err := g.ArchiveFile(src, out, "", qr.PNG, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Empty(t, enc.encodeCalls)
	assert.NoFileExists(t, filepath.Join(out, "one.png"))
}

func TestArchiveFile_RecordsFailuresInHistory(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "ok\nbroken\n")

	enc := &fakeEncoder{failRender: map[string]error{"broken": fmt.Errorf("%w: disk full", qr.ErrWrite)}}
	rec := &fakeRecorder{}
	g := New(enc, quietLogger(), Options{Recorder: rec})

	_, err := g.ArchiveFile(src, filepath.Join(dir, "out"), "", qr.PNG, 100)
	require.Error(t, err)

	require.Len(t, rec.jobs, 1)
	job := rec.jobs[0]
	assert.Equal(t, "archfile", job.Mode)
	assert.Equal(t, "partial_failure", job.Code)
	assert.Equal(t, 1, job.Succeeded)
	assert.Equal(t, 1, job.Failed)
	require.Len(t, job.Records, 2)
	assert.Equal(t, "failed", job.Records[1].Status)
	assert.Equal(t, "write_failure", job.Records[1].Code)
	assert.Contains(t, job.Records[1].Error, "disk full")
}

func TestArchiveFile_RejectsFilenameOutsideFolder(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
	src := writeArchive(t, dir, "pwned|../../escaped\nfine|ok\n")

	enc := &fakeEncoder{}
	g := New(enc, quietLogger(), Options{})

	report, err := g.ArchiveFile(src, out, "", qr.PNG, 100)
	require.Error(t, err)
	assert.Equal(t, PartialFailure, CodeOf(err))
	require.NotNil(t, report)
	assert.Equal(t, []int{1}, report.FailedLines())
	assert.Equal(t, IOError, report.Outcomes[0].Code)
	assert.ErrorIs(t, report.Outcomes[0].Err, paths.ErrOutsideFolder)

	assert.Equal(t, []string{filepath.Join(out, "ok.png")}, enc.rendered)
	assert.NoFileExists(t, filepath.Join(dir, "escaped.png"))
}
