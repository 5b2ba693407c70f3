package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sgaunet/review-importer/pkg/audit"
	"github.com/sgaunet/review-importer/pkg/status"
	"github.com/sgaunet/review-importer/pkg/storage"
)

const (
	archiveRecordName = "record.json"
	archiveAuditName  = "audit.jsonl"
)

// CompleteImport ends the import of a project: its record is archived when an archive storage is
// configured, then deleted so that the project can no longer be resumed.
func (o *Orchestrator) CompleteImport(ctx context.Context, project, actorName string) (*Result, error) {
	startTime := time.Now()
	r := &run{op: OpComplete, project: project}
	result := &Result{Project: project}

	held, err := o.projectLocks.TryLock(project)
	if err != nil {
		return o.reject(r, actorName, classify(fmt.Errorf("project %s: %w", project, err)))
	}
	defer func() {
		if err := held.Release(); err != nil {
			log.Warn("failed to release project lock", "project", project, "error", err)
		}
	}()

	err = o.complete(ctx, project, result)
	result.Duration = time.Since(startTime)
	result.Success = err == nil
	o.recordAudit(r, actorName, result, err)
	return result, err
}

func (o *Orchestrator) complete(ctx context.Context, project string, result *Result) error {
	rec, err := o.records.Load(project)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			err = fmt.Errorf("%w: project %s has no import in progress", ErrValidation, project)
		}
		result.addError(PhaseArchive, "Record", err.Error(), true)
		return err
	}
	r := &run{project: project, from: rec.From}

	if o.archive == nil {
		o.progress.SkipPhase(project, PhaseArchive, "no archive storage configured")
	} else if err := o.archiveRecord(ctx, r, rec); err != nil {
		o.progress.FailPhase(project, PhaseArchive, err)
		result.addError(PhaseArchive, "Storage", err.Error(), true)
		return err
	}

	if err := o.records.Delete(project); err != nil {
		result.addError(PhaseComplete, "Record", err.Error(), true)
		return err
	}
	log.Info("import completed", "project", project, "from", rec.From, "runs", len(rec.Imports))
	o.progress.CompletePhase(project, PhaseComplete)
	return nil
}

// archiveRecord stores the record and the audit entries of the project as one tar.gz.
func (o *Orchestrator) archiveRecord(ctx context.Context, r *run, rec *status.Record) error {
	o.progress.StartPhase(r.project, PhaseArchive)
	recordData, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode import record: %w", err)
	}
	entries, err := o.audit.ForProject(r.project)
	if err != nil {
		return err
	}
	var trail bytes.Buffer
	enc := json.NewEncoder(&trail)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return fmt.Errorf("failed to encode audit entry: %w", err)
		}
	}

	tmpDir, err := os.MkdirTemp("", "review-import-")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Warn("failed to remove temporary directory", "path", tmpDir, "error", err)
		}
	}()

	now := o.now().UTC()
	name := archiveName(r.project, now)
	archivePath := filepath.Join(tmpDir, name)
	err = storage.CreateArchive(ctx, archivePath, []storage.Entry{
		{Name: archiveRecordName, Data: recordData, ModTime: now},
		{Name: archiveAuditName, Data: trail.Bytes(), ModTime: now},
	})
	if err != nil {
		return err
	}
	if err := storage.ValidateArchive(archivePath); err != nil {
		return fmt.Errorf("archive validation failed: %w", err)
	}
	if err := o.archive.SaveFile(ctx, archivePath, name); err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}
	log.Info("import record archived", "project", r.project, "archive", name)
	o.progress.CompletePhase(r.project, PhaseArchive)
	return nil
}

// archiveName returns the archive file name of project, e.g. team-app-20260102-150405.tar.gz.
func archiveName(project string, at time.Time) string {
	return fmt.Sprintf("%s-%s.tar.gz", strings.ReplaceAll(project, "/", "-"), at.Format("20060102-150405"))
}

// ListImports returns the records of the imports in progress whose project name contains match.
func (o *Orchestrator) ListImports(match string) (map[string]status.Record, error) {
	records, err := o.records.List(match)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	return records, nil
}

// History returns the audit entries of a project, oldest first.
func (o *Orchestrator) History(project string) ([]audit.Entry, error) {
	return o.audit.ForProject(project)
}

// Archived is the content of a completion archive.
type Archived struct {
	Record status.Record `json:"record"`
	Audit  []audit.Entry `json:"audit"`
}

// ReadArchived decodes an archive written by CompleteImport.
func ReadArchived(ctx context.Context, path string) (*Archived, error) {
	if err := storage.ValidateArchive(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	entries, err := storage.ReadArchive(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	out := &Archived{}
	hasRecord := false
	for _, e := range entries {
		switch e.Name {
		case archiveRecordName:
			if err := json.Unmarshal(e.Data, &out.Record); err != nil {
				return nil, fmt.Errorf("%w: invalid %s: %w", ErrValidation, e.Name, err)
			}
			hasRecord = true
		case archiveAuditName:
			dec := json.NewDecoder(bytes.NewReader(e.Data))
			for dec.More() {
				var entry audit.Entry
				if err := dec.Decode(&entry); err != nil {
					return nil, fmt.Errorf("%w: invalid %s: %w", ErrValidation, e.Name, err)
				}
				out.Audit = append(out.Audit, entry)
			}
		}
	}
	if !hasRecord {
		return nil, fmt.Errorf("%w: %s holds no %s", ErrValidation, path, archiveRecordName)
	}
	return out, nil
}
