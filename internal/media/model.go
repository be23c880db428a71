package media

import "time"

// MediaFile is the sole persistent entity: one row per discovered file,
// identified by its filesystem (device_id, inode) pair.
type MediaFile struct {
	ID       int64
	DeviceID uint64
	Inode    uint64

	OriginalFilepath string
	OriginalFilename string
	FileSize         uint64

	Status     Status
	RetryCount int

	TMDBID    *int64
	MediaType *MediaType

	LLMGuess      *Guess
	ProcessedData *Match

	NewFilepath  *string
	ErrorMessage *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Guess is the structured output of the filename analyser.
type Guess struct {
	Title   string
	Year    *int
	Type    MediaType
	Season  *int
	Episode *int
}

// Match is the structured output the catalogue client extracts from a search
// result, carrying the subset of fields the path generator and registry need.
type Match struct {
	TMDBID  int64
	Type    MediaType
	Title   string
	Year    *int
	Season  *int
	Episode *int
}
