package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// TimeLayout is the timestamp format of log lines
const TimeLayout = "2006-01-02 15:04:05.000"

var sanitizer = strings.NewReplacer("[", "(", "]", ")", "\r", " ", "\n", " ")

// Writer is a serial sink writing one bracketed entry per line
type Writer struct {
	sync.Mutex

	out io.Writer
	now func() time.Time
}

// NewWriter creates a *Writer over out
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out: out,
		now: time.Now,
	}
}

// Event writes `[<time> EVENT k=v ...]`
func (w *Writer) Event(event string, fields ...string) error {
	var line strings.Builder
	line.WriteString("[")
	line.WriteString(w.now().Format(TimeLayout))
	line.WriteString(" ")
	line.WriteString(event)
	for idx := 0; idx+1 < len(fields); idx += 2 {
		line.WriteString(" ")
		line.WriteString(fields[idx])
		line.WriteString("=")
		line.WriteString(sanitizer.Replace(fields[idx+1]))
	}
	line.WriteString("]\n")

	w.Lock()
	defer w.Unlock()
	_, err := io.WriteString(w.out, line.String())
	return err
}

// describe renders an error as `<type>: <message>`
func describe(err error) string {
	return fmt.Sprintf("%T: %s", errors.Cause(err), err.Error())
}

// FileWriter appends to a progress log file, holding an advisory lock
// around every write so concurrent bootstrap processes never tear lines
type FileWriter struct {
	file *os.File
	lock *flock.Flock
}

// OpenFile opens (creating if needed) the progress log at path
func OpenFile(path string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "can't create progress log directory %s", dir)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open progress log %s", path)
	}
	return &FileWriter{
		file: file,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (f *FileWriter) Write(p []byte) (int, error) {
	if err := f.lock.Lock(); err != nil {
		return 0, errors.Wrap(err, "can't lock progress log")
	}
	defer f.lock.Unlock()
	return f.file.Write(p)
}

// Close releases the file and its lock
func (f *FileWriter) Close() error {
	f.lock.Close()
	return f.file.Close()
}
