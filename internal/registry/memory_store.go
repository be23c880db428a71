package registry

import (
	"context"
	"sync"
	"time"

	"medialinkd/internal/media"
)

// deviceInode is the uniqueness key used to dedupe registrations.
type deviceInode struct {
	device uint64
	inode  uint64
}

// MemoryStore is an in-process Store used by tests and by callers that do
// not need durability across restarts.
type MemoryStore struct {
	mu      sync.Mutex
	rows    map[int64]*media.MediaFile
	byIdent map[deviceInode]int64
	nextID  int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:    make(map[int64]*media.MediaFile),
		byIdent: make(map[deviceInode]int64),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) RegisterIfNew(_ context.Context, originalFilepath, originalFilename string, deviceID, inode, fileSize uint64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deviceInode{device: deviceID, inode: inode}
	if id, exists := s.byIdent[key]; exists {
		return id, false, nil
	}

	s.nextID++
	id := s.nextID
	now := time.Now().UTC()
	s.rows[id] = &media.MediaFile{
		ID:               id,
		DeviceID:         deviceID,
		Inode:            inode,
		OriginalFilepath: originalFilepath,
		OriginalFilename: originalFilename,
		FileSize:         fileSize,
		Status:           media.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.byIdent[key] = id
	return id, true, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*media.MediaFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mf, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *mf
	return &cp, nil
}

func (s *MemoryStore) Claim(_ context.Context, id int64) (*media.MediaFile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mf, ok := s.rows[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	to, canFire := media.Transitions.Fire(mf.Status, media.EventClaim)
	if !canFire {
		return nil, false, nil
	}
	mf.Status = to
	mf.UpdatedAt = time.Now().UTC()
	cp := *mf
	return &cp, true, nil
}

func (s *MemoryStore) RecordGuess(_ context.Context, id int64, guess *media.Guess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mf, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	g := *guess
	mf.LLMGuess = &g
	mf.UpdatedAt = time.Now().UTC()
	return nil
}

// transitionFromProcessing fires event against a row currently PROCESSING,
// guarded by media.Transitions exactly as the SQL store's "WHERE status = ?"
// guards its update. A row not in PROCESSING (or an event with no edge from
// it) is left untouched and reported as a no-op, matching the guarded-update
// stale semantics.
func (s *MemoryStore) transitionFromProcessing(id int64, event media.Event, mutate func(*media.MediaFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mf, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	to, canFire := media.Transitions.Fire(mf.Status, event)
	if !canFire {
		return nil
	}
	mutate(mf)
	mf.Status = to
	mf.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) TransitionCompleted(_ context.Context, id int64, newFilepath string, match *media.Match) error {
	return s.transitionFromProcessing(id, media.EventComplete, func(mf *media.MediaFile) {
		m := *match
		mf.NewFilepath = &newFilepath
		mf.TMDBID = &m.TMDBID
		mf.MediaType = &m.Type
		mf.ProcessedData = &m
		mf.ErrorMessage = nil
	})
}

func (s *MemoryStore) TransitionNoMatch(_ context.Context, id int64, message string) error {
	return s.transitionFromProcessing(id, media.EventNoMatch, func(mf *media.MediaFile) {
		if message != "" {
			mf.ErrorMessage = &message
		}
	})
}

func (s *MemoryStore) TransitionConflict(_ context.Context, id int64, newFilepath, message string) error {
	return s.transitionFromProcessing(id, media.EventConflict, func(mf *media.MediaFile) {
		mf.NewFilepath = &newFilepath
		mf.ErrorMessage = &message
	})
}

func (s *MemoryStore) TransitionFailed(_ context.Context, id int64, message string) error {
	return s.transitionFromProcessing(id, media.EventFail, func(mf *media.MediaFile) {
		mf.ErrorMessage = &message
	})
}

func (s *MemoryStore) Retry(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mf, ok := s.rows[id]
	if !ok {
		return false, ErrNotFound
	}
	to, canFire := media.Transitions.Fire(mf.Status, media.EventRetry)
	if !canFire {
		return false, nil
	}
	mf.Status = to
	mf.RetryCount++
	mf.UpdatedAt = time.Now().UTC()
	return true, nil
}
