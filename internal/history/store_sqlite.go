package history

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/inkforge/brushengine/internal/layer"
)

// DefaultStoreBatchSize is the number of snapshot records buffered in
// memory before a flush to disk.
const DefaultStoreBatchSize = 20

// snapshotRecord is one buffered write: a fully-serialized stack snapshot
// keyed by its position in the undo sequence.
type snapshotRecord struct {
	Seq   int
	Label string
	Blob  []byte
}

// SqliteStore is an optional durable backing store for History entries,
// adapted from internal/mbtiles's {reader,writer}.go: same WAL/pragma
// tuning, same buffer-then-batch-insert-in-a-transaction discipline, same
// gzip-compressed blob column, repointed from tile z/x/y coordinates to a
// monotonically increasing undo sequence number.
type SqliteStore struct {
	db        *sql.DB
	batch     []snapshotRecord
	batchSize int
	mu        sync.Mutex
}

// OpenSqliteStore creates (or opens) a durable snapshot store at path.
func OpenSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 50000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			seq   INTEGER PRIMARY KEY,
			label TEXT NOT NULL,
			data  BLOB NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SqliteStore{db: db, batchSize: DefaultStoreBatchSize}, nil
}

// WriteSnapshot serializes and gzip-compresses s, buffering it under seq.
// When the buffer reaches batchSize, it is flushed automatically.
func (st *SqliteStore) WriteSnapshot(seq int, label string, s *layer.Stack) error {
	blob, err := encodeStack(s)
	if err != nil {
		return fmt.Errorf("encode snapshot %d: %w", seq, err)
	}
	compressed, err := gzipCompress(blob)
	if err != nil {
		return fmt.Errorf("compress snapshot %d: %w", seq, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.batch = append(st.batch, snapshotRecord{Seq: seq, Label: label, Blob: compressed})
	if len(st.batch) >= st.batchSize {
		return st.flushLocked()
	}
	return nil
}

// Flush writes any buffered snapshots to the database.
func (st *SqliteStore) Flush() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.flushLocked()
}

func (st *SqliteStore) flushLocked() error {
	if len(st.batch) == 0 {
		return nil
	}

	tx, err := st.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO snapshots (seq, label, data) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range st.batch {
		if _, err := stmt.Exec(rec.Seq, rec.Label, rec.Blob); err != nil {
			return fmt.Errorf("insert snapshot %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	st.batch = st.batch[:0]
	return nil
}

// ReadSnapshot reads and decodes the stack stored under seq.
func (st *SqliteStore) ReadSnapshot(seq int) (*layer.Stack, string, error) {
	var label string
	var compressed []byte
	err := st.db.QueryRow("SELECT label, data FROM snapshots WHERE seq = ?", seq).Scan(&label, &compressed)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("snapshot not found: seq=%d", seq)
	}
	if err != nil {
		return nil, "", fmt.Errorf("query snapshot %d: %w", seq, err)
	}

	blob, err := gzipDecompress(compressed)
	if err != nil {
		return nil, "", fmt.Errorf("decompress snapshot %d: %w", seq, err)
	}
	s, err := decodeStack(blob)
	if err != nil {
		return nil, "", fmt.Errorf("decode snapshot %d: %w", seq, err)
	}
	return s, label, nil
}

// Close flushes remaining buffered snapshots and closes the database.
func (st *SqliteStore) Close() error {
	if err := st.Flush(); err != nil {
		st.db.Close()
		return err
	}
	return st.db.Close()
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

// encodeStack serializes a layer.Stack to a simple binary form: a header
// (css size, dpr, active id, layer count) followed by one record per
// layer (metadata + raw float32 pixel planes). This is an internal wire
// format, not a public file format, so it favors a direct binary.Write
// dump over a general-purpose codec.
func encodeStack(s *layer.Stack) ([]byte, error) {
	var buf bytes.Buffer
	w := func(v interface{}) error { return binary.Write(&buf, binary.LittleEndian, v) }

	if err := w(s.CssW); err != nil {
		return nil, err
	}
	if err := w(s.CssH); err != nil {
		return nil, err
	}
	if err := w(s.Dpr); err != nil {
		return nil, err
	}
	if err := writeString32(&buf, s.ActiveLayerID); err != nil {
		return nil, err
	}
	if err := w(int32(len(s.Layers))); err != nil {
		return nil, err
	}

	for _, l := range s.Layers {
		if err := writeString32(&buf, l.ID); err != nil {
			return nil, err
		}
		if err := writeString32(&buf, l.Name); err != nil {
			return nil, err
		}
		if err := w(l.Opacity); err != nil {
			return nil, err
		}
		if err := w(int32(l.Blend)); err != nil {
			return nil, err
		}
		visible := int32(0)
		if l.Visible {
			visible = 1
		}
		if err := w(visible); err != nil {
			return nil, err
		}
		p := l.Pixels
		if err := w(int32(p.W)); err != nil {
			return nil, err
		}
		if err := w(int32(p.H)); err != nil {
			return nil, err
		}
		if err := w(p.R); err != nil {
			return nil, err
		}
		if err := w(p.G); err != nil {
			return nil, err
		}
		if err := w(p.B); err != nil {
			return nil, err
		}
		if err := w(p.A); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func decodeStack(data []byte) (*layer.Stack, error) {
	r := bytes.NewReader(data)
	read := func(v interface{}) error { return binary.Read(r, binary.LittleEndian, v) }

	s := &layer.Stack{}
	if err := read(&s.CssW); err != nil {
		return nil, err
	}
	if err := read(&s.CssH); err != nil {
		return nil, err
	}
	if err := read(&s.Dpr); err != nil {
		return nil, err
	}
	activeID, err := readString32(r)
	if err != nil {
		return nil, err
	}
	s.ActiveLayerID = activeID

	var count int32
	if err := read(&count); err != nil {
		return nil, err
	}

	s.Layers = make([]*layer.Layer, 0, count)
	for i := int32(0); i < count; i++ {
		id, err := readString32(r)
		if err != nil {
			return nil, err
		}
		name, err := readString32(r)
		if err != nil {
			return nil, err
		}
		l := &layer.Layer{ID: id, Name: name}
		if err := read(&l.Opacity); err != nil {
			return nil, err
		}
		var blend int32
		if err := read(&blend); err != nil {
			return nil, err
		}
		l.Blend = layer.BlendMode(blend)
		var visible int32
		if err := read(&visible); err != nil {
			return nil, err
		}
		l.Visible = visible != 0

		var w32, h32 int32
		if err := read(&w32); err != nil {
			return nil, err
		}
		if err := read(&h32); err != nil {
			return nil, err
		}
		surf := layer.NewSurface(int(w32), int(h32))
		if err := read(surf.R); err != nil {
			return nil, err
		}
		if err := read(surf.G); err != nil {
			return nil, err
		}
		if err := read(surf.B); err != nil {
			return nil, err
		}
		if err := read(surf.A); err != nil {
			return nil, err
		}
		l.Pixels = surf
		s.Layers = append(s.Layers, l)
	}

	return s, nil
}

func writeString32(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, int32(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readString32(r *bytes.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
