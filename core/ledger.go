package core

import "github.com/appforge-dev/appforge/schema"

// ledger is the authoritative record of every file the active session has
// touched. It is owned exclusively by its session's controller; a version
// counter advances on every accepted mutation so derived artifacts can be
// memoized without deep-diffing content.
type ledger struct {
	records map[string]*schema.FileRecord
	order   []string
	version uint64
}

func newLedger() *ledger {
	return &ledger{records: make(map[string]*schema.FileRecord)}
}

// apply upserts the record at frame.Path. A new path is appended in arrival
// order; an existing path is updated in place without reordering. Frames with
// an unrecognized operation kind are rejected and the ledger left unchanged.
// Stale status regressions (an update ranking below the recorded status) are
// ignored as no-ops.
func (l *ledger) apply(frame schema.Frame) error {
	kind, err := schema.NormalizeOperationKind(string(frame.Operation))
	if err != nil {
		return err
	}
	status, err := schema.NormalizeFileStatus(string(frame.Status))
	if err != nil {
		return err
	}
	existing, ok := l.records[frame.Path]
	if !ok {
		l.records[frame.Path] = &schema.FileRecord{
			Path:     frame.Path,
			Kind:     kind,
			Status:   status,
			Content:  frame.FileContent,
			Language: frame.Language,
		}
		l.order = append(l.order, frame.Path)
		l.version++
		return nil
	}
	if schema.StatusRank(status) < schema.StatusRank(existing.Status) {
		return nil
	}
	existing.Kind = kind
	existing.Status = status
	if frame.FileContent != "" {
		existing.Content = frame.FileContent
	}
	if frame.Language != "" {
		existing.Language = frame.Language
	}
	l.version++
	return nil
}

// allCompleted returns completed records in ledger order. Deleted paths are
// excluded: a completed delete means the file is gone.
func (l *ledger) allCompleted() []schema.FileRecord {
	out := make([]schema.FileRecord, 0, len(l.order))
	for _, path := range l.order {
		record := l.records[path]
		if record == nil || record.Status != schema.StatusCompleted {
			continue
		}
		if record.Kind == schema.OperationDelete {
			continue
		}
		out = append(out, *record)
	}
	return out
}

// all returns every live record in ledger order.
func (l *ledger) all() []schema.FileRecord {
	out := make([]schema.FileRecord, 0, len(l.order))
	for _, path := range l.order {
		if record := l.records[path]; record != nil {
			out = append(out, *record)
		}
	}
	return out
}

func (l *ledger) len() int {
	return len(l.order)
}

func (l *ledger) completedCount() int {
	count := 0
	for _, path := range l.order {
		if record := l.records[path]; record != nil && record.Status == schema.StatusCompleted {
			count++
		}
	}
	return count
}

// reset clears all records and bumps the version so memoized artifacts
// invalidate.
func (l *ledger) reset() {
	l.records = make(map[string]*schema.FileRecord)
	l.order = nil
	l.version++
}
