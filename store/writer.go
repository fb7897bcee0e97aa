package store

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/teranos/bulkgraph/errors"
)

// Writer appends msgpack encoded records to a log file on its own goroutine.
// Callers hand over batches and continue; Flush is the barrier that waits for everything
// handed over so far to reach the file.
type Writer struct {
	path  string
	file  *os.File
	queue chan writeRequest
	done  chan struct{}

	// sendMu guards queue sends against the close of the queue
	sendMu sync.RWMutex
	closed bool

	mu  sync.Mutex
	err error
}

type writeRequest struct {
	records []any
	flushed chan error
}

// NewWriter opens path for appending and starts the writer goroutine
func NewWriter(path string, queueSize int) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log %s", path)
	}
	if queueSize < 1 {
		queueSize = 1
	}
	w := &Writer{
		path:  path,
		file:  file,
		queue: make(chan writeRequest, queueSize),
		done:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Path is the log file
func (w *Writer) Path() string { return w.path }

func (w *Writer) run() {
	defer close(w.done)

	buf := bufio.NewWriterSize(w.file, 1<<16)
	enc := msgpack.NewEncoder(buf)
	for req := range w.queue {
		for _, record := range req.records {
			if w.Err() != nil {
				break
			}
			if err := enc.Encode(record); err != nil {
				w.setErr(errors.Wrapf(err, "failed to encode record into %s", w.path))
			}
		}
		if req.flushed != nil {
			if err := buf.Flush(); err != nil {
				w.setErr(errors.Wrapf(err, "failed to flush %s", w.path))
			}
			req.flushed <- w.Err()
		}
	}
}

// Write queues records for appending. It blocks only while the queue is full and returns
// the first error the writer goroutine ran into.
func (w *Writer) Write(records ...any) error {
	if err := w.Err(); err != nil {
		return err
	}
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return errors.Newf("write to closed log %s", w.path)
	}
	w.queue <- writeRequest{records: records}
	return nil
}

// Flush waits until every record written so far is in the file
func (w *Writer) Flush() error {
	w.sendMu.RLock()
	if w.closed {
		w.sendMu.RUnlock()
		return w.Err()
	}
	flushed := make(chan error, 1)
	w.queue <- writeRequest{flushed: flushed}
	w.sendMu.RUnlock()
	return <-flushed
}

// Close flushes and closes the log. Safe to call more than once.
func (w *Writer) Close() error {
	err := w.Flush()

	w.sendMu.Lock()
	if w.closed {
		w.sendMu.Unlock()
		return err
	}
	w.closed = true
	w.sendMu.Unlock()

	close(w.queue)
	<-w.done
	if cerr := w.file.Close(); cerr != nil {
		err = errors.CombineErrors(err, errors.Wrapf(cerr, "failed to close %s", w.path))
	}
	return err
}

// Err returns the first write error, if any
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

// Replay decodes every record of the log at path in write order. A record id appearing
// more than once was patched in update mode; the later entry wins.
func Replay[T any](path string, fn func(T) error) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open log %s", path)
	}
	defer file.Close()

	dec := msgpack.NewDecoder(bufio.NewReader(file))
	for {
		var record T
		if err := dec.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrapf(err, "failed to decode %s", path)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

// Load replays the log at path into the latest version of every record
func Load[T Record](path string) (map[int64]T, error) {
	records := map[int64]T{}
	err := Replay(path, func(record T) error {
		records[record.RecordID()] = record
		return nil
	})
	return records, err
}
