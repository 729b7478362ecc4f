package generate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/openclaw/qrcodemaker/qr"
	"github.com/openclaw/qrcodemaker/store"
)

// --- Mocks ---

type encodeCall struct {
	Text          string
	Width, Height int
}

type fakeEncoder struct {
	encodeCalls []encodeCall
	rendered    []string

	// failEncode and failRender hold texts whose processing must fail.
	failEncode map[string]error
	failRender map[string]error
}

func (f *fakeEncoder) Encode(text string, width, height int) (*qr.Symbol, error) {
	f.encodeCalls = append(f.encodeCalls, encodeCall{Text: text, Width: width, Height: height})
	if err, ok := f.failEncode[text]; ok {
		return nil, err
	}
	return &qr.Symbol{Text: text, Width: width, Height: height}, nil
}

func (f *fakeEncoder) Render(sym *qr.Symbol, format qr.Format, path string) error {
	if err, ok := f.failRender[sym.Text]; ok {
		return err
	}
	if err := os.WriteFile(path, []byte(sym.Text), 0o644); err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	f.rendered = append(f.rendered, path)
	return nil
}

func (f *fakeEncoder) Write(w io.Writer, sym *qr.Symbol, format qr.Format) error {
	if err, ok := f.failRender[sym.Text]; ok {
		return err
	}
	_, err := fmt.Fprintf(w, "%s:%s", format, sym.Text)
	return err
}

type fakeRecorder struct {
	mu   sync.Mutex
	jobs []*store.Job
	err  error
}

func (r *fakeRecorder) SaveJob(job *store.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return r.err
}

type fakeNotifier struct {
	jobs []*store.Job
}

func (n *fakeNotifier) NotifyJob(job *store.Job) error {
	n.jobs = append(n.jobs, job)
	return errors.New("webhook down")
}
