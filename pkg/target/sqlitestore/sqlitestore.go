// Package sqlitestore is a SQLite-backed target.Store for single-host deployments.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sgaunet/review-importer/pkg/target"
)

// Store is a target.Store persisted in a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens the database at dsn and creates the schema when missing.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection serialises writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema if it doesn't exist.
func (s *Store) Initialize() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ssh_keys (
		account_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		public_key TEXT NOT NULL,
		PRIMARY KEY (account_id, seq),
		UNIQUE (account_id, public_key),
		FOREIGN KEY (account_id) REFERENCES accounts(id)
	);

	CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY,
		parent TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		change_key TEXT NOT NULL,
		project TEXT NOT NULL,
		branch TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		owner_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		current_patch_set INTEGER NOT NULL DEFAULT 0,
		UNIQUE (project, branch, change_key)
	);

	CREATE TABLE IF NOT EXISTS patch_sets (
		change_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		revision TEXT NOT NULL,
		uploader_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		draft BOOLEAN NOT NULL DEFAULT 0,
		ref TEXT NOT NULL,
		PRIMARY KEY (change_id, number),
		FOREIGN KEY (change_id) REFERENCES changes(id)
	);

	CREATE TABLE IF NOT EXISTS patch_set_ancestors (
		change_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		position INTEGER NOT NULL,
		ancestor TEXT NOT NULL,
		PRIMARY KEY (change_id, number, position),
		FOREIGN KEY (change_id, number) REFERENCES patch_sets(change_id, number)
	);

	CREATE TABLE IF NOT EXISTS comments (
		change_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		uuid TEXT NOT NULL,
		patch_set INTEGER NOT NULL,
		path TEXT NOT NULL,
		line INTEGER NOT NULL DEFAULT 0,
		has_range BOOLEAN NOT NULL DEFAULT 0,
		start_line INTEGER NOT NULL DEFAULT 0,
		start_character INTEGER NOT NULL DEFAULT 0,
		end_line INTEGER NOT NULL DEFAULT 0,
		end_character INTEGER NOT NULL DEFAULT 0,
		parent_uuid TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		written_at TIMESTAMP NOT NULL,
		side TEXT NOT NULL,
		PRIMARY KEY (change_id, author_id, uuid),
		FOREIGN KEY (change_id) REFERENCES changes(id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		change_id INTEGER NOT NULL,
		uuid TEXT NOT NULL,
		patch_set INTEGER NOT NULL DEFAULT 0,
		author_id INTEGER NOT NULL DEFAULT 0,
		written_at TIMESTAMP NOT NULL,
		message TEXT NOT NULL,
		tag TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (change_id, uuid),
		FOREIGN KEY (change_id) REFERENCES changes(id)
	);

	CREATE TABLE IF NOT EXISTS approvals (
		change_id INTEGER NOT NULL,
		patch_set INTEGER NOT NULL,
		account_id INTEGER NOT NULL,
		label TEXT NOT NULL,
		value INTEGER NOT NULL,
		granted_at TIMESTAMP NOT NULL,
		PRIMARY KEY (change_id, patch_set, account_id, label),
		FOREIGN KEY (change_id) REFERENCES changes(id)
	);

	CREATE TABLE IF NOT EXISTS hashtags (
		change_id INTEGER NOT NULL,
		hashtag TEXT NOT NULL,
		PRIMARY KEY (change_id, hashtag),
		FOREIGN KEY (change_id) REFERENCES changes(id)
	);

	CREATE TABLE IF NOT EXISTS account_groups (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		owner_uuid TEXT NOT NULL,
		visible_to_all BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS group_members (
		group_uuid TEXT NOT NULL,
		account_id INTEGER NOT NULL,
		PRIMARY KEY (group_uuid, account_id),
		FOREIGN KEY (group_uuid) REFERENCES account_groups(uuid)
	);

	CREATE TABLE IF NOT EXISTS group_includes (
		group_uuid TEXT NOT NULL,
		include_uuid TEXT NOT NULL,
		PRIMARY KEY (group_uuid, include_uuid),
		FOREIGN KEY (group_uuid) REFERENCES account_groups(uuid)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// isConstraint reports whether err is a SQLite constraint violation.
func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, target.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// withTx runs fn inside a transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (*target.Account, error) {
	return s.scanAccount(ctx, `SELECT id, username, full_name, email, created_at FROM accounts WHERE username = ?`, username)
}

func (s *Store) AccountByID(ctx context.Context, id target.AccountID) (*target.Account, error) {
	return s.scanAccount(ctx, `SELECT id, username, full_name, email, created_at FROM accounts WHERE id = ?`, id)
}

func (s *Store) scanAccount(ctx context.Context, query string, arg any) (*target.Account, error) {
	var a target.Account
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Username, &a.FullName, &a.Email, &a.Created)
	if err != nil {
		return nil, notFound(err, "account %v", arg)
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *target.Account) error {
	if account.Created.IsZero() {
		account.Created = time.Now().UTC()
	}
	query := `INSERT INTO accounts (username, full_name, email, created_at) VALUES (?, ?, ?, ?)`
	args := []any{account.Username, account.FullName, account.Email, account.Created}
	if account.ID != 0 {
		query = `INSERT INTO accounts (id, username, full_name, email, created_at) VALUES (?, ?, ?, ?, ?)`
		args = append([]any{account.ID}, args...)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("account %s: %w", account.Username, target.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to save account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read account id: %w", err)
	}
	account.ID = target.AccountID(id)
	return nil
}

func (s *Store) AddSSHKey(ctx context.Context, id target.AccountID, key string) error {
	query := `
	INSERT INTO ssh_keys (account_id, seq, public_key)
	VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM ssh_keys WHERE account_id = ?), ?)
	ON CONFLICT(account_id, public_key) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, id, id, key); err != nil {
		if isConstraint(err) {
			return fmt.Errorf("account %d: %w", id, target.ErrNotFound)
		}
		return fmt.Errorf("failed to save ssh key: %w", err)
	}
	return nil
}

func (s *Store) SSHKeys(ctx context.Context, id target.AccountID) ([]string, error) {
	return queryStrings(ctx, s.db, `SELECT public_key FROM ssh_keys WHERE account_id = ? ORDER BY seq`, id)
}

func (s *Store) Project(ctx context.Context, name string) (*target.Project, error) {
	var p target.Project
	err := s.db.QueryRowContext(ctx, `SELECT name, parent, description FROM projects WHERE name = ?`, name).
		Scan(&p.Name, &p.Parent, &p.Description)
	if err != nil {
		return nil, notFound(err, "project %s", name)
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *target.Project) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects (name, parent, description) VALUES (?, ?, ?)`,
		p.Name, p.Parent, p.Description)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("project %s: %w", p.Name, target.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *target.Project) error {
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET parent = ?, description = ? WHERE name = ?`,
		p.Parent, p.Description, p.Name)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireRow(res, "project %s", p.Name)
}

const changeColumns = `id, change_key, project, branch, topic, subject, owner_id, status, created_at, updated_at, current_patch_set`

func scanChange(row interface{ Scan(dest ...any) error }) (*target.Change, error) {
	var c target.Change
	var status string
	err := row.Scan(&c.ID, &c.Key, &c.Project, &c.Branch, &c.Topic, &c.Subject, &c.Owner, &status,
		&c.Created, &c.Updated, &c.CurrentPatchSet)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}
	c.Status = target.ChangeStatus(status)
	return &c, nil
}

func (s *Store) ChangeByKey(ctx context.Context, project, branch, key string) (*target.Change, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+changeColumns+` FROM changes WHERE project = ? AND branch = ? AND change_key = ?`, project, branch, key)
	c, err := scanChange(row)
	if err != nil {
		return nil, notFound(err, "change %s on %s in %s", key, branch, project)
	}
	return c, nil
}

func (s *Store) ChangeByID(ctx context.Context, id target.ChangeID) (*target.Change, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+changeColumns+` FROM changes WHERE id = ?`, id)
	c, err := scanChange(row)
	if err != nil {
		return nil, notFound(err, "change %d", id)
	}
	return c, nil
}

func (s *Store) ListChanges(ctx context.Context, project string, start, limit int) ([]target.Change, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+changeColumns+` FROM changes WHERE project = ? ORDER BY id LIMIT ? OFFSET ?`, project, limit, start)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []target.Change
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) CreateChange(ctx context.Context, c *target.Change) error {
	query := `
	INSERT INTO changes (change_key, project, branch, topic, subject, owner_id, status, created_at, updated_at, current_patch_set)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query, c.Key, c.Project, c.Branch, c.Topic, c.Subject, c.Owner,
		string(c.Status), c.Created, c.Updated, c.CurrentPatchSet)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("change %s on %s in %s: %w", c.Key, c.Branch, c.Project, target.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to save change: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read change id: %w", err)
	}
	c.ID = target.ChangeID(id)
	return nil
}

func (s *Store) UpdateChange(ctx context.Context, c *target.Change) error {
	query := `
	UPDATE changes SET branch = ?, topic = ?, subject = ?, owner_id = ?, status = ?, created_at = ?,
		updated_at = ?, current_patch_set = ?
	WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query, c.Branch, c.Topic, c.Subject, c.Owner, string(c.Status),
		c.Created, c.Updated, c.CurrentPatchSet, c.ID)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("change %s on %s in %s: %w", c.Key, c.Branch, c.Project, target.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update change: %w", err)
	}
	return requireRow(res, "change %d", c.ID)
}

func (s *Store) PatchSets(ctx context.Context, id target.ChangeID) ([]target.PatchSet, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT change_id, number, revision, uploader_id, created_at, draft, ref
	FROM patch_sets WHERE change_id = ? ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list patch sets: %w", err)
	}
	var out []target.PatchSet
	for rows.Next() {
		var ps target.PatchSet
		if err := rows.Scan(&ps.ChangeID, &ps.Number, &ps.Revision, &ps.Uploader, &ps.Created, &ps.Draft, &ps.Ref); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan patch set: %w", err)
		}
		out = append(out, ps)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list patch sets: %w", err)
	}
	for i := range out {
		out[i].Parents, err = queryStrings(ctx, s.db,
			`SELECT ancestor FROM patch_set_ancestors WHERE change_id = ? AND number = ? ORDER BY position`,
			id, out[i].Number)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) InsertPatchSet(ctx context.Context, ps *target.PatchSet) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO patch_sets (change_id, number, revision, uploader_id, created_at, draft, ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ps.ChangeID, ps.Number, ps.Revision, ps.Uploader, ps.Created, ps.Draft, ps.Ref)
		if err != nil {
			if isConstraint(err) {
				return fmt.Errorf("patch set %d,%d: %w", ps.ChangeID, ps.Number, target.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to save patch set: %w", err)
		}
		for i, parent := range ps.Parents {
			_, err := tx.ExecContext(ctx, `
			INSERT INTO patch_set_ancestors (change_id, number, position, ancestor) VALUES (?, ?, ?, ?)`,
				ps.ChangeID, ps.Number, i, parent)
			if err != nil {
				return fmt.Errorf("failed to save ancestor: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) Comments(ctx context.Context, id target.ChangeID, patchSet int, author target.AccountID) ([]target.Comment, error) {
	query := `
	SELECT change_id, author_id, uuid, patch_set, path, line, has_range, start_line, start_character,
		end_line, end_character, parent_uuid, message, written_at, side
	FROM comments WHERE change_id = ? AND patch_set = ?`
	args := []any{id, patchSet}
	if author != 0 {
		query += ` AND author_id = ?`
		args = append(args, author)
	}
	query += ` ORDER BY written_at, uuid`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []target.Comment
	for rows.Next() {
		var c target.Comment
		var hasRange bool
		var r target.Range
		var side string
		err := rows.Scan(&c.ChangeID, &c.Author, &c.UUID, &c.PatchSet, &c.Path, &c.Line, &hasRange,
			&r.StartLine, &r.StartCharacter, &r.EndLine, &r.EndCharacter, &c.ParentUUID, &c.Message, &c.Written, &side)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if hasRange {
			c.Range = &r
		}
		c.Side = target.Side(side)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpsertComment(ctx context.Context, c *target.Comment) error {
	var r target.Range
	if c.Range != nil {
		r = *c.Range
	}
	query := `
	INSERT INTO comments (change_id, author_id, uuid, patch_set, path, line, has_range, start_line, start_character,
		end_line, end_character, parent_uuid, message, written_at, side)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(change_id, author_id, uuid) DO UPDATE SET
		patch_set = excluded.patch_set,
		path = excluded.path,
		line = excluded.line,
		has_range = excluded.has_range,
		start_line = excluded.start_line,
		start_character = excluded.start_character,
		end_line = excluded.end_line,
		end_character = excluded.end_character,
		parent_uuid = excluded.parent_uuid,
		message = excluded.message,
		written_at = excluded.written_at,
		side = excluded.side
	`
	_, err := s.db.ExecContext(ctx, query, c.ChangeID, c.Author, c.UUID, c.PatchSet, c.Path, c.Line, c.Range != nil,
		r.StartLine, r.StartCharacter, r.EndLine, r.EndCharacter, c.ParentUUID, c.Message, c.Written, string(c.Side))
	if err != nil {
		return fmt.Errorf("failed to save comment: %w", err)
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id target.ChangeID, author target.AccountID, uuid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE change_id = ? AND author_id = ? AND uuid = ?`,
		id, author, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireRow(res, "comment %s", uuid)
}

func (s *Store) Messages(ctx context.Context, id target.ChangeID) ([]target.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT change_id, uuid, patch_set, author_id, written_at, message, tag
	FROM messages WHERE change_id = ? ORDER BY written_at, rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []target.Message
	for rows.Next() {
		var m target.Message
		if err := rows.Scan(&m.ChangeID, &m.UUID, &m.PatchSet, &m.Author, &m.Written, &m.Message, &m.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) InsertMessage(ctx context.Context, m *target.Message) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO messages (change_id, uuid, patch_set, author_id, written_at, message, tag)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(change_id, uuid) DO NOTHING`,
		m.ChangeID, m.UUID, m.PatchSet, m.Author, m.Written, m.Message, m.Tag)
	if err != nil {
		if isConstraint(err) {
			return false, fmt.Errorf("change %d: %w", m.ChangeID, target.ErrNotFound)
		}
		return false, fmt.Errorf("failed to save message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Approvals(ctx context.Context, id target.ChangeID) ([]target.Approval, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT change_id, patch_set, account_id, label, value, granted_at
	FROM approvals WHERE change_id = ? ORDER BY label, account_id, patch_set`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []target.Approval
	for rows.Next() {
		var a target.Approval
		if err := rows.Scan(&a.ChangeID, &a.PatchSet, &a.Account, &a.Label, &a.Value, &a.Granted); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpsertApproval(ctx context.Context, a *target.Approval) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO approvals (change_id, patch_set, account_id, label, value, granted_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(change_id, patch_set, account_id, label) DO UPDATE SET
		value = excluded.value,
		granted_at = excluded.granted_at`,
		a.ChangeID, a.PatchSet, a.Account, a.Label, a.Value, a.Granted)
	if err != nil {
		return fmt.Errorf("failed to save approval: %w", err)
	}
	return nil
}

func (s *Store) Hashtags(ctx context.Context, id target.ChangeID) ([]string, error) {
	return queryStrings(ctx, s.db, `SELECT hashtag FROM hashtags WHERE change_id = ? ORDER BY hashtag`, id)
}

func (s *Store) SetHashtags(ctx context.Context, id target.ChangeID, tags []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hashtags WHERE change_id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear hashtags: %w", err)
		}
		for _, tag := range tags {
			_, err := tx.ExecContext(ctx, `INSERT INTO hashtags (change_id, hashtag) VALUES (?, ?) ON CONFLICT DO NOTHING`,
				id, tag)
			if err != nil {
				return fmt.Errorf("failed to save hashtag %s: %w", tag, err)
			}
		}
		return nil
	})
}

func (s *Store) GroupByUUID(ctx context.Context, uuid string) (*target.Group, error) {
	return s.scanGroup(ctx, `uuid = ?`, uuid)
}

func (s *Store) GroupByName(ctx context.Context, name string) (*target.Group, error) {
	return s.scanGroup(ctx, `name = ?`, name)
}

func (s *Store) scanGroup(ctx context.Context, where string, arg string) (*target.Group, error) {
	var g target.Group
	err := s.db.QueryRowContext(ctx, `
	SELECT uuid, name, description, owner_uuid, visible_to_all, created_at FROM account_groups WHERE `+where, arg).
		Scan(&g.UUID, &g.Name, &g.Description, &g.OwnerUUID, &g.VisibleToAll, &g.Created)
	if err != nil {
		return nil, notFound(err, "group %s", arg)
	}
	g.Members, err = s.groupMembers(ctx, g.UUID)
	if err != nil {
		return nil, err
	}
	g.Includes, err = queryStrings(ctx, s.db,
		`SELECT include_uuid FROM group_includes WHERE group_uuid = ? ORDER BY include_uuid`, g.UUID)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) groupMembers(ctx context.Context, uuid string) ([]target.AccountID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT account_id FROM group_members WHERE group_uuid = ? ORDER BY account_id`, uuid)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []target.AccountID
	for rows.Next() {
		var id target.AccountID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) CreateGroup(ctx context.Context, g *target.Group) error {
	if g.Created.IsZero() {
		g.Created = time.Now().UTC()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO account_groups (uuid, name, description, owner_uuid, visible_to_all, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			g.UUID, g.Name, g.Description, g.OwnerUUID, g.VisibleToAll, g.Created)
		if err != nil {
			if isConstraint(err) {
				return fmt.Errorf("group %s (%s): %w", g.Name, g.UUID, target.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to save group: %w", err)
		}
		return writeGroupEdges(ctx, tx, g)
	})
}

func (s *Store) UpdateGroup(ctx context.Context, g *target.Group) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE account_groups SET name = ?, description = ?, owner_uuid = ?, visible_to_all = ? WHERE uuid = ?`,
			g.Name, g.Description, g.OwnerUUID, g.VisibleToAll, g.UUID)
		if err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		if err := requireRow(res, "group %s", g.UUID); err != nil {
			return err
		}
		for _, table := range []string{"group_members", "group_includes"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE group_uuid = ?`, g.UUID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return writeGroupEdges(ctx, tx, g)
	})
}

func writeGroupEdges(ctx context.Context, tx *sql.Tx, g *target.Group) error {
	for _, member := range g.Members {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_uuid, account_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, g.UUID, member)
		if err != nil {
			return fmt.Errorf("failed to save member %d: %w", member, err)
		}
	}
	for _, include := range g.Includes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_includes (group_uuid, include_uuid) VALUES (?, ?) ON CONFLICT DO NOTHING`, g.UUID, include)
		if err != nil {
			return fmt.Errorf("failed to save include %s: %w", include, err)
		}
	}
	return nil
}

func requireRow(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf(format+": %w", append(args, target.ErrNotFound)...)
	}
	return nil
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", strings.Fields(query)[1], err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var _ target.Store = (*Store)(nil)
