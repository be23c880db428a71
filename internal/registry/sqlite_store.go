package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"medialinkd/internal/log"
	"medialinkd/internal/media"
	"medialinkd/internal/persistence/sqlite"
)

// SQLiteStore is the durable Store implementation backing a running daemon.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if absent) the registry database at path
// and applies pending migrations.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("registry: open: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) RegisterIfNew(ctx context.Context, originalFilepath, originalFilename string, deviceID, inode, fileSize uint64) (int64, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO media_files
			(device_id, inode, original_filepath, original_filename, file_size, status, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (device_id, inode) DO NOTHING`,
		deviceID, inode, originalFilepath, originalFilename, fileSize, media.StatusPending, now, now)
	if err != nil {
		return 0, false, fmt.Errorf("registry: insert: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 1 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("registry: last insert id: %w", err)
		}
		return id, true, nil
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM media_files WHERE device_id = ? AND inode = ?`, deviceID, inode).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("registry: lookup existing: %w", err)
	}
	return id, false, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*media.MediaFile, error) {
	return scanRow(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
}

func (s *SQLiteStore) Claim(ctx context.Context, id int64) (*media.MediaFile, bool, error) {
	to, ok := media.Transitions.Fire(media.StatusPending, media.EventClaim)
	if !ok {
		return nil, false, fmt.Errorf("registry: claim: no transition registered for pending->processing")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `
		UPDATE media_files
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		to, now, id, media.StatusPending)
	if err != nil {
		return nil, false, fmt.Errorf("registry: claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("registry: claim rows affected: %w", err)
	}
	if affected == 0 {
		return nil, false, nil
	}
	mf, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return mf, true, nil
}

func (s *SQLiteStore) RecordGuess(ctx context.Context, id int64, guess *media.Guess) error {
	raw, err := json.Marshal(guess)
	if err != nil {
		return fmt.Errorf("registry: marshal guess: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `UPDATE media_files SET llm_guess = ?, updated_at = ? WHERE id = ?`, string(raw), now, id)
	if err != nil {
		return fmt.Errorf("registry: record guess: %w", err)
	}
	return nil
}

// fireFromProcessing resolves the destination status for event, fired from
// PROCESSING, against media.Transitions. It panics on an unregistered event
// since every caller here passes one of the fixed Event constants — a miss
// means the transition table and the call sites have drifted apart, which is
// a programming error, not a runtime condition to recover from.
func fireFromProcessing(event media.Event) media.Status {
	to, ok := media.Transitions.Fire(media.StatusProcessing, event)
	if !ok {
		panic(fmt.Sprintf("registry: no transition registered for processing->%s", event))
	}
	return to
}

func (s *SQLiteStore) TransitionCompleted(ctx context.Context, id int64, newFilepath string, match *media.Match) error {
	raw, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("registry: marshal match: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		UPDATE media_files
		SET status = ?, new_filepath = ?, tmdb_id = ?, media_type = ?, processed_data = ?, error_message = NULL, updated_at = ?
		WHERE id = ? AND status = ?`,
		fireFromProcessing(media.EventComplete), newFilepath, match.TMDBID, match.Type, string(raw), now, id, media.StatusProcessing)
	return wrapStaleCheck(err, "transition completed")
}

func (s *SQLiteStore) TransitionNoMatch(ctx context.Context, id int64, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		UPDATE media_files SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		fireFromProcessing(media.EventNoMatch), nullableString(message), now, id, media.StatusProcessing)
	return wrapStaleCheck(err, "transition no match")
}

func (s *SQLiteStore) TransitionConflict(ctx context.Context, id int64, newFilepath, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		UPDATE media_files SET status = ?, new_filepath = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		fireFromProcessing(media.EventConflict), newFilepath, message, now, id, media.StatusProcessing)
	return wrapStaleCheck(err, "transition conflict")
}

func (s *SQLiteStore) TransitionFailed(ctx context.Context, id int64, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		UPDATE media_files SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		fireFromProcessing(media.EventFail), message, now, id, media.StatusProcessing)
	return wrapStaleCheck(err, "transition failed")
}

func (s *SQLiteStore) Retry(ctx context.Context, id int64) (bool, error) {
	from := media.RetryableStatuses()
	if len(from) == 0 {
		return false, fmt.Errorf("registry: retry: no status has a registered retry transition")
	}
	to, _ := media.Transitions.Fire(from[0], media.EventRetry)
	placeholders := make([]string, len(from))
	args := make([]any, 0, len(from)+3)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	args = append(args, to, now, id)
	for i, st := range from {
		placeholders[i] = "?"
		args = append(args, st)
	}
	query := fmt.Sprintf(`
		UPDATE media_files SET status = ?, retry_count = retry_count + 1, updated_at = ?
		WHERE id = ? AND status IN (%s)`, strings.Join(placeholders, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("registry: retry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("registry: retry rows affected: %w", err)
	}
	if affected == 0 {
		log.WithComponent("registry").Debug().Int64("id", id).Msg("retry: stale, row not in a retryable state")
		return false, nil
	}
	return true, nil
}

func wrapStaleCheck(err error, op string) error {
	if err != nil {
		return fmt.Errorf("registry: %s: %w", op, err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const selectColumns = `
SELECT id, device_id, inode, original_filepath, original_filename, file_size,
       status, retry_count, tmdb_id, media_type, llm_guess, processed_data,
       new_filepath, error_message, created_at, updated_at
FROM media_files`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*media.MediaFile, error) {
	var (
		mf          media.MediaFile
		status      string
		tmdbID      sql.NullInt64
		mediaType   sql.NullString
		llmGuess    sql.NullString
		processed   sql.NullString
		newFilepath sql.NullString
		errMessage  sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&mf.ID, &mf.DeviceID, &mf.Inode, &mf.OriginalFilepath, &mf.OriginalFilename, &mf.FileSize,
		&status, &mf.RetryCount, &tmdbID, &mediaType, &llmGuess, &processed,
		&newFilepath, &errMessage, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("registry: scan row: %w", err)
	}

	mf.Status = media.Status(status)
	if tmdbID.Valid {
		v := tmdbID.Int64
		mf.TMDBID = &v
	}
	if mediaType.Valid {
		v := media.MediaType(mediaType.String)
		mf.MediaType = &v
	}
	if llmGuess.Valid && llmGuess.String != "" {
		var g media.Guess
		if jsonErr := json.Unmarshal([]byte(llmGuess.String), &g); jsonErr == nil {
			mf.LLMGuess = &g
		}
	}
	if processed.Valid && processed.String != "" {
		var m media.Match
		if jsonErr := json.Unmarshal([]byte(processed.String), &m); jsonErr == nil {
			mf.ProcessedData = &m
		}
	}
	if newFilepath.Valid {
		v := newFilepath.String
		mf.NewFilepath = &v
	}
	if errMessage.Valid {
		v := errMessage.String
		mf.ErrorMessage = &v
	}
	mf.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	mf.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &mf, nil
}
