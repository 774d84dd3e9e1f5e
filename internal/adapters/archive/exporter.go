// Package archive moves collections in and out of blob storage: an async
// export worker renders stored collections into durable artifacts, and the
// import path rebuilds collections from archived payloads.
package archive

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"neuroncore/internal/blob"
	"neuroncore/pkg/domain"
)

// Format identifies an export artifact encoding.
type Format string

const (
	FormatJSON Format = "json" // full snapshot: keys, elements, table
	FormatCSV  Format = "csv"  // metadata table only, key column first
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportArtifact captures a stored artifact.
type ExportArtifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportRecord tracks an export request and resulting artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Collection  string           `json:"collection"`
	Formats     []Format         `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by"`
	Reason      string           `json:"reason,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	Collection  string
	Formats     []Format
	RequestedBy string
	Reason      string
}

// ExportScheduler queues collection export requests and exposes status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string       `json:"id"`
	Action     string       `json:"action"`
	Actor      string       `json:"actor"`
	Collection string       `json:"collection"`
	Status     ExportStatus `json:"status"`
	Reason     string       `json:"reason,omitempty"`
	Note       string       `json:"note,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Worker executes collection exports asynchronously.
type Worker struct {
	source domain.PersistentStore
	store  blob.Store
	audit  AuditLogger

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
}

type renderedArtifact struct {
	artifact ExportArtifact
	payload  []byte
}

// NewWorker constructs an export worker reading from source and writing
// artifacts to store.
func NewWorker(source domain.PersistentStore, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan exportTask, 32),
		jobs:   make(map[string]*ExportRecord),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	name := strings.TrimSpace(input.Collection)
	if name == "" {
		return ExportRecord{}, fmt.Errorf("collection name required")
	}
	if _, ok := w.source.GetCollection(name); !ok {
		return ExportRecord{}, domain.KeyNotFoundError{Key: name}
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniqFormats := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		if format != FormatJSON && format != FormatCSV {
			return ExportRecord{}, fmt.Errorf("unsupported export format %s", format)
		}
		uniqFormats = append(uniqFormats, format)
		seen[format] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := ExportRecord{
		ID:          id,
		Collection:  name,
		Formats:     uniqFormats,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queuedSnapshot := record.copy()
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, AuditEntry{
			ID:         newID(),
			Action:     "collection_export",
			Actor:      input.RequestedBy,
			Collection: name,
			Status:     ExportStatusQueued,
			Reason:     input.Reason,
			OccurredAt: now,
		})
	}

	select {
	case w.queue <- exportTask{id: id, input: input}:
	default:
		return ExportRecord{}, fmt.Errorf("export queue full")
	}

	return queuedSnapshot, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return ExportRecord{}, false
	}
	snapshot := record.copy()
	w.mu.RUnlock()
	return snapshot, true
}

func (w *Worker) process(task exportTask) {
	record, ok := w.GetExport(task.id)
	if !ok {
		return
	}

	snap, found := w.source.GetCollection(record.Collection)
	if !found {
		w.fail(task.id, fmt.Sprintf("collection %s missing", record.Collection))
		return
	}

	w.updateStatus(task.id, ExportStatusRunning, "")

	artifacts := make([]ExportArtifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		rendered, err := renderArtifact(record.ID, format, snap)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		info, err := w.store.Put(w.ctx, rendered.artifact.Key, bytes.NewReader(rendered.payload), blob.PutOptions{
			ContentType: rendered.artifact.ContentType,
			Metadata:    map[string]string{"collection": record.Collection, "format": string(format)},
		})
		if err != nil {
			w.fail(task.id, fmt.Sprintf("store artifact failed: %v", err))
			return
		}
		rendered.artifact.SizeBytes = info.Size
		rendered.artifact.URL = info.URL
		rendered.artifact.CreatedAt = info.LastModified
		artifacts = append(artifacts, rendered.artifact)
	}

	w.complete(task.id, artifacts)
}

func (w *Worker) updateStatus(id string, status ExportStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(id, status, message, now)
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, ExportStatusSucceeded, "", now)
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, ExportStatusFailed, reason, now)
}

func (w *Worker) recordAudit(id string, status ExportStatus, note string, now time.Time) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	actor, coll := "", ""
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
		coll = record.Collection
	}
	w.mu.RUnlock()
	w.audit.Record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "collection_export",
		Actor:      actor,
		Collection: coll,
		Status:     status,
		Note:       note,
		OccurredAt: now,
	})
}

// ArtifactKey returns the blob key for a given export, collection and format.
func ArtifactKey(exportID, collection string, format Format) string {
	return fmt.Sprintf("exports/%s/%s.%s", exportID, collection, format)
}

func renderArtifact(exportID string, format Format, snap domain.Snapshot) (renderedArtifact, error) {
	switch format {
	case FormatJSON:
		payload, err := json.Marshal(snap)
		if err != nil {
			return renderedArtifact{}, fmt.Errorf("marshal json: %w", err)
		}
		return renderedArtifact{
			artifact: ExportArtifact{
				Key:         ArtifactKey(exportID, snap.Name, FormatJSON),
				Format:      FormatJSON,
				ContentType: "application/json",
				SizeBytes:   int64(len(payload)),
			},
			payload: payload,
		}, nil
	case FormatCSV:
		payload, err := renderTableCSV(snap)
		if err != nil {
			return renderedArtifact{}, err
		}
		return renderedArtifact{
			artifact: ExportArtifact{
				Key:         ArtifactKey(exportID, snap.Name, FormatCSV),
				Format:      FormatCSV,
				ContentType: "text/csv",
				SizeBytes:   int64(len(payload)),
			},
			payload: payload,
		}, nil
	default:
		return renderedArtifact{}, fmt.Errorf("unsupported export format %s", format)
	}
}

// renderTableCSV writes one row per element: the key column followed by the
// metadata table columns. Collections without a table produce a key-only CSV.
func renderTableCSV(snap domain.Snapshot) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	header := []string{"key"}
	if snap.Table != nil {
		for _, col := range snap.Table.Columns {
			header = append(header, col.Name)
		}
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for i, key := range snap.Keys {
		row := []string{key}
		if snap.Table != nil {
			for _, col := range snap.Table.Columns {
				row = append(row, formatValue(col.Values[i]))
			}
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
