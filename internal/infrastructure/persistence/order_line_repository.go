package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/domain/order"
	"github.com/ordertrack/backend/internal/infrastructure/persistence/models"
)

// ErrDocumentWrite is returned when the order document cannot be persisted
// for a reason other than a transient file lock.
var ErrDocumentWrite = errors.New("persistence: order document write failed")

// JSONOrderLineRepository implements order.Repository on a single JSON
// document. Every operation re-reads the file under one mutex, so the
// reload-mutate-persist cycle is serialized within the process.
type JSONOrderLineRepository struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	// readFile and writeFile are swapped in tests to simulate I/O faults
	readFile  func(name string) ([]byte, error)
	writeFile func(name string, data []byte) error

	mu  sync.Mutex
	doc models.DocumentModel
	// dirty is set while doc holds changes a transient fault kept off disk
	dirty bool
}

// JSONOrderLineRepositoryOption configures a JSONOrderLineRepository
type JSONOrderLineRepositoryOption func(*JSONOrderLineRepository)

// WithRepositoryLogger sets the logger
func WithRepositoryLogger(logger *zap.Logger) JSONOrderLineRepositoryOption {
	return func(r *JSONOrderLineRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for created_at/updated_at
func WithClock(now func() time.Time) JSONOrderLineRepositoryOption {
	return func(r *JSONOrderLineRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewJSONOrderLineRepository opens (or creates) the document at path
func NewJSONOrderLineRepository(path string, opts ...JSONOrderLineRepositoryOption) (*JSONOrderLineRepository, error) {
	r := &JSONOrderLineRepository{
		path:      path,
		logger:    zap.NewNop(),
		now:       time.Now,
		readFile:  os.ReadFile,
		writeFile: writeFileAtomic,
		doc:       emptyDocument(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("persistence: create document directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	r.logger.Info("Order store opened",
		zap.String("path", path),
		zap.Int("order_lines", len(r.doc.Siparisler)),
		zap.Int64("last_id", r.doc.LastID),
	)
	return r, nil
}

// Path returns the document location
func (r *JSONOrderLineRepository) Path() string {
	return r.path
}

// Create assigns the next id and both timestamps, then persists the line
func (r *JSONOrderLineRepository) Create(ctx context.Context, line *order.OrderLine) (*order.OrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	created := *line
	created.PrepareForCreate()
	r.doc.LastID++
	created.ID = r.doc.LastID
	now := r.now()
	created.CreatedAt = now
	created.UpdatedAt = now

	m := models.OrderLineModelFromDomain(&created)
	r.doc.Siparisler = append(r.doc.Siparisler, m)
	if err := r.save(); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Update applies mutate to the line with the given id and re-stamps updated_at.
// Nothing is written when mutate returns an error.
func (r *JSONOrderLineRepository) Update(ctx context.Context, id int64, mutate func(*order.OrderLine) error) (*order.OrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, order.ErrOrderLineNotFound
	}

	current := r.doc.Siparisler[idx]
	line := current.ToDomain()
	createdAt := line.CreatedAt
	if err := mutate(line); err != nil {
		return nil, err
	}
	line.ID = id
	line.CreatedAt = createdAt
	line.UpdatedAt = r.now()

	m := models.OrderLineModelFromDomain(line)
	if createdAt.IsZero() {
		// unparseable timestamps are carried over verbatim
		m.CreatedAt = current.CreatedAt
	}
	r.doc.Siparisler[idx] = m
	if err := r.save(); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll returns lines newest first by created_at, falling back to the
// order date. Lines with neither sort last in document order.
func (r *JSONOrderLineRepository) FindAll(ctx context.Context, filter order.Filter) ([]*order.OrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.load()
	lines := make([]*order.OrderLine, 0, len(r.doc.Siparisler))
	for _, m := range r.doc.Siparisler {
		if filter.Status != "" && order.Status(m.Status) != filter.Status {
			continue
		}
		lines = append(lines, m.ToDomain())
	}
	r.mu.Unlock()

	sortNewestFirst(lines)
	return lines, nil
}

// FindByID returns the line with the given id
func (r *JSONOrderLineRepository) FindByID(ctx context.Context, id int64) (*order.OrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, order.ErrOrderLineNotFound
	}
	return r.doc.Siparisler[idx].ToDomain(), nil
}

// Delete removes one line by id
func (r *JSONOrderLineRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	idx := r.indexOf(id)
	if idx < 0 {
		return order.ErrOrderLineNotFound
	}
	r.doc.Siparisler = append(r.doc.Siparisler[:idx], r.doc.Siparisler[idx+1:]...)
	return r.save()
}

// DeleteByOrderNo removes every line of an order
func (r *JSONOrderLineRepository) DeleteByOrderNo(ctx context.Context, orderNo string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	removed := r.removeWhere(func(m *models.OrderLineModel) bool {
		return string(m.OrderNo) == orderNo
	})
	if removed == 0 {
		return 0, nil
	}
	return removed, r.save()
}

// PurgeOlderThan removes lines ordered before cutoff. Lines without a
// parseable order date are kept, unless useCreatedAt lets created_at stand in.
func (r *JSONOrderLineRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time, useCreatedAt bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	removed := r.removeWhere(func(m *models.OrderLineModel) bool {
		l := m.ToDomain()
		t, ok := l.OrderTime()
		if !ok && useCreatedAt && !l.CreatedAt.IsZero() {
			t, ok = l.CreatedAt, true
		}
		return ok && t.Before(cutoff)
	})
	if removed == 0 {
		return 0, nil
	}
	r.logger.Info("Purged old order lines",
		zap.Int("removed", removed),
		zap.Time("cutoff", cutoff),
	)
	return removed, r.save()
}

// PurgeAll removes every line and resets the id sequence
func (r *JSONOrderLineRepository) PurgeAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	r.doc = emptyDocument()
	return r.save()
}

// OrderNumbers returns the set of stored order numbers
func (r *JSONOrderLineRepository) OrderNumbers(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	set := make(map[string]struct{}, len(r.doc.Siparisler))
	for _, m := range r.doc.Siparisler {
		set[string(m.OrderNo)] = struct{}{}
	}
	return set, nil
}

// ---------------------------------------------------------------------------
// Document I/O
// ---------------------------------------------------------------------------

func emptyDocument() models.DocumentModel {
	return models.DocumentModel{Siparisler: []*models.OrderLineModel{}, LastID: 0}
}

// load replaces the in-memory snapshot with the file contents. Callers hold mu.
// It never fails: unreadable documents are reset, transient faults keep the
// previous snapshot. Pending changes are flushed first; while the flush keeps
// failing the in-memory snapshot stays authoritative.
func (r *JSONOrderLineRepository) load() {
	if r.dirty {
		if err := r.save(); err != nil || r.dirty {
			return
		}
		r.logger.Info("Pending order changes written", zap.String("path", r.path))
	}

	data, err := r.readFile(r.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.doc = emptyDocument()
		_ = r.save()
		return
	case err != nil && isTransient(err):
		r.logger.Warn("Order document busy, using last loaded snapshot",
			zap.String("path", r.path),
			zap.Error(err),
		)
		return
	case err != nil:
		r.logger.Error("Order document unreadable, resetting",
			zap.String("path", r.path),
			zap.Error(err),
		)
		r.reset()
		return
	}

	doc, dropped, err := decodeDocument(data)
	if err != nil {
		r.logger.Error("Order document invalid, resetting",
			zap.String("path", r.path),
			zap.Error(err),
		)
		r.reset()
		return
	}
	r.doc = doc
	if dropped > 0 {
		r.logger.Warn("Dropped incomplete order lines",
			zap.String("path", r.path),
			zap.Int("dropped", dropped),
		)
		_ = r.save()
	}
}

func (r *JSONOrderLineRepository) reset() {
	r.doc = emptyDocument()
	_ = r.save()
}

// save writes the snapshot. Transient faults are logged and swallowed; the
// snapshot is marked dirty and kept in memory until the next successful write.
func (r *JSONOrderLineRepository) save() error {
	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentWrite, err)
	}
	if err := r.writeFile(r.path, data); err != nil {
		if isTransient(err) {
			r.logger.Warn("Order document busy, change kept in memory",
				zap.String("path", r.path),
				zap.Error(err),
			)
			r.dirty = true
			return nil
		}
		r.logger.Error("Failed to write order document",
			zap.String("path", r.path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrDocumentWrite, err)
	}
	r.dirty = false
	return nil
}

var (
	errNotObject     = errors.New("document is not an object")
	errMissingOrders = errors.New("siparisler is not an array")
)

// decodeDocument parses the document, dropping records that are not objects
// or lack required fields. A missing lastId falls back to the highest id.
func decodeDocument(data []byte) (models.DocumentModel, int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.DocumentModel{}, 0, errors.New("document is empty")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return models.DocumentModel{}, 0, err
	}
	if top == nil {
		return models.DocumentModel{}, 0, errNotObject
	}

	var raws []json.RawMessage
	rawLines, ok := top["siparisler"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(rawLines), []byte("[")) {
		return models.DocumentModel{}, 0, errMissingOrders
	}
	if err := json.Unmarshal(rawLines, &raws); err != nil {
		return models.DocumentModel{}, 0, err
	}

	doc := emptyDocument()
	dropped := 0
	var maxID int64
	for _, raw := range raws {
		var m models.OrderLineModel
		if err := json.Unmarshal(raw, &m); err != nil || !m.IsComplete() {
			dropped++
			continue
		}
		if m.ID > maxID {
			maxID = m.ID
		}
		doc.Siparisler = append(doc.Siparisler, &m)
	}

	doc.LastID = maxID
	if rawLastID, ok := top["lastId"]; ok {
		var n float64
		if err := json.Unmarshal(rawLastID, &n); err == nil {
			doc.LastID = int64(n)
		}
	}
	return doc, dropped, nil
}

// writeFileAtomic writes through a temp file in the same directory and renames
// it into place so readers never observe a partial document.
func writeFileAtomic(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, name); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func isTransient(err error) bool {
	return errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EACCES) ||
		errors.Is(err, syscall.EAGAIN)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *JSONOrderLineRepository) indexOf(id int64) int {
	for i, m := range r.doc.Siparisler {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (r *JSONOrderLineRepository) removeWhere(match func(*models.OrderLineModel) bool) int {
	kept := r.doc.Siparisler[:0]
	removed := 0
	for _, m := range r.doc.Siparisler {
		if match(m) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.doc.Siparisler = kept
	return removed
}

func sortNewestFirst(lines []*order.OrderLine) {
	type keyed struct {
		line *order.OrderLine
		at   time.Time
		ok   bool
	}
	keys := make([]keyed, len(lines))
	for i, l := range lines {
		at, ok := l.SortTime()
		keys[i] = keyed{line: l, at: at, ok: ok}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if !keys[i].ok || !keys[j].ok {
			return keys[i].ok && !keys[j].ok
		}
		return keys[i].at.After(keys[j].at)
	})
	for i := range keys {
		lines[i] = keys[i].line
	}
}

var _ order.Repository = (*JSONOrderLineRepository)(nil)
