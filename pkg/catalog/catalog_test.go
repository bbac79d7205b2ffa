package catalog

import (
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/ferrata/stationdb/pkg/hashing"
	"github.com/ferrata/stationdb/pkg/ledger"
	"github.com/ferrata/stationdb/pkg/storage/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// setupTestDB creates an in-memory database with the embedded schema applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	storage, err := sqlite.New(logger, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(storage.Close)

	return storage.Connection
}

func TestSongs(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddSong(AddSongData{Meta: "Artist - Title", Length: 245})
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
		if created.Id == 0 {
			t.Error("song id should be assigned on creation")
		}
		if created.Digest != hashing.Digest("artist - title") {
			t.Errorf("digest %s doesn't derive from the lowercased metadata", created.Digest)
		}

		resolved, err := store.ResolveSong("Artist - Title")
		if err != nil {
			t.Fatalf("failed to resolve song: %v", err)
		}
		if resolved.Id != created.Id {
			t.Errorf("resolved id %d, expected %d", resolved.Id, created.Id)
		}
		if resolved.Meta != "Artist - Title" {
			t.Errorf("resolved meta %q, expected the original casing", resolved.Meta)
		}
	})

	t.Run("CaseInsensitiveResolution", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddSong(AddSongData{Meta: "Artist - Title", Length: 245})
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		resolved, err := store.ResolveSong("ARTIST - TITLE")
		if err != nil {
			t.Fatalf("failed to resolve shouted metadata: %v", err)
		}
		if resolved.Id != created.Id {
			t.Errorf("case variants should resolve to the same row; got %d, expected %d", resolved.Id, created.Id)
		}
	})

	t.Run("ResolveMissing", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if _, err := store.ResolveSong("never catalogued"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DigestConflict", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if _, err := store.AddSong(AddSongData{Meta: "Artist - Title"}); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		// a case variant lowercases to the same digest
		if _, err := store.AddSong(AddSongData{Meta: "artist - TITLE"}); !errors.Is(err, ErrDigestConflict) {
			t.Fatalf("expected ErrDigestConflict, got %v", err)
		}

		var count int
		if err := store.Connection.QueryRow("SELECT count(*) FROM esong").Scan(&count); err != nil {
			t.Fatalf("failed to count songs: %v", err)
		}
		if count != 1 {
			t.Errorf("conflicting create should leave a single row, found %d", count)
		}
	})

	t.Run("EmptyMetadata", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddSong(AddSongData{Meta: ""})
		if err != nil {
			t.Fatalf("empty metadata should be storable: %v", err)
		}

		resolved, err := store.ResolveSong("")
		if err != nil {
			t.Fatalf("empty metadata should resolve: %v", err)
		}
		if resolved.Id != created.Id {
			t.Errorf("resolved id %d, expected %d", resolved.Id, created.Id)
		}
	})

	t.Run("UpdateKeepsDigest", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddSong(AddSongData{Meta: "Artist - Title"})
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		if err = store.UpdateSong(created.Id, UpdateSongData{Meta: "Artist - Title (remaster)"}); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		// amending meta must not rederive the digest; that duty stays with callers
		amended, err := store.GetSong(created.Id)
		if err != nil {
			t.Fatalf("failed to fetch song: %v", err)
		}
		if amended.Digest != created.Digest {
			t.Errorf("digest changed from %s to %s on a meta edit", created.Digest, amended.Digest)
		}
		if amended.Meta != "Artist - Title (remaster)" {
			t.Errorf("meta %q, expected the amended value", amended.Meta)
		}
	})

	t.Run("DeleteReferencedSong", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		ledgerStore := ledger.NewStore(db)

		created, err := store.AddSong(AddSongData{Meta: "Artist - Title"})
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
		if _, err = ledgerStore.RecordPlay(ledger.RecordPlayData{SongId: created.Id}); err != nil {
			t.Fatalf("failed to record play: %v", err)
		}

		if err = store.DeleteSong(created.Id); !errors.Is(err, ErrReferenced) {
			t.Errorf("expected ErrReferenced deleting a played song, got %v", err)
		}
	})

	t.Run("DeleteUnreferencedSong", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddSong(AddSongData{Meta: "Artist - Title"})
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
		if err = store.DeleteSong(created.Id); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err = store.GetSong(created.Id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after deletion, got %v", err)
		}
	})
}

func TestTracks(t *testing.T) {
	var trackData = AddTrackData{
		Artist:   "Artist",
		Title:    "Title",
		Filename: "artist/title.flac",
		Priority: 7,
		Usable:   true,
	}

	t.Run("RoundTrip", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddTrack(trackData)
		if err != nil {
			t.Fatalf("failed to add track: %v", err)
		}
		if created.RequestCount != 0 || created.NeedsReupload {
			t.Error("new tracks should start with a zeroed request count and no reupload flag")
		}
		if created.Priority != 7 {
			t.Errorf("priority %d, expected the caller's 7", created.Priority)
		}

		resolved, err := store.ResolveTrack("ARTIST - title")
		if err != nil {
			t.Fatalf("failed to resolve track: %v", err)
		}
		if resolved.Id != created.Id {
			t.Errorf("resolved id %d, expected %d", resolved.Id, created.Id)
		}
		if resolved.LastPlayed.Valid() || resolved.LastRequested.Valid() {
			t.Error("new tracks should carry null lastplayed and lastrequested instants")
		}
	})

	t.Run("IndependentDigestNamespaces", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)

		if _, err := store.AddSong(AddSongData{Meta: "Artist - Title"}); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		// the same metadata resolves as a song yet not as a track
		if _, err := store.ResolveTrack("Artist - Title"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound resolving a song-only string as a track, got %v", err)
		}

		if _, err := store.AddTrack(trackData); err != nil {
			t.Fatalf("adding a track with a digest already known to esong should succeed: %v", err)
		}
	})

	t.Run("UpdateUsable", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddTrack(trackData)
		if err != nil {
			t.Fatalf("failed to add track: %v", err)
		}

		if err = store.UpdateUsable(created.Id, false); err != nil {
			t.Fatalf("failed to update usable: %v", err)
		}

		unusable, err := store.GetUnusableTracks()
		if err != nil {
			t.Fatalf("failed to list unusable tracks: %v", err)
		}
		if len(unusable) != 1 || unusable[0].Id != created.Id {
			t.Errorf("expected the flagged track among the unusable ones, got %v", unusable)
		}
	})

	t.Run("BumpRequestCount", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddTrack(trackData)
		if err != nil {
			t.Fatalf("failed to add track: %v", err)
		}

		if err = store.BumpRequestCount(created.Id); err != nil {
			t.Fatalf("failed to bump request count: %v", err)
		}
		if err = store.BumpRequestCount(created.Id); err != nil {
			t.Fatalf("failed to bump request count: %v", err)
		}

		bumped, err := store.GetTrack(created.Id)
		if err != nil {
			t.Fatalf("failed to fetch track: %v", err)
		}
		if bumped.RequestCount != 2 {
			t.Errorf("request count %d, expected 2", bumped.RequestCount)
		}
		if !bumped.LastRequested.Valid() {
			t.Error("bumping should stamp the lastrequested instant")
		}
	})

	t.Run("MarkNeedsReupload", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		created, err := store.AddTrack(trackData)
		if err != nil {
			t.Fatalf("failed to add track: %v", err)
		}

		if err = store.MarkNeedsReupload(created.Id, true); err != nil {
			t.Fatalf("failed to mark track: %v", err)
		}

		marked, err := store.GetTrack(created.Id)
		if err != nil {
			t.Fatalf("failed to fetch track: %v", err)
		}
		if !marked.NeedsReupload {
			t.Error("the reupload flag should persist")
		}
		// unrelated mutations must not clear the flag
		if err = store.UpdateUsable(created.Id, false); err != nil {
			t.Fatalf("failed to update usable: %v", err)
		}
		if still, _ := store.GetTrack(created.Id); !still.NeedsReupload {
			t.Error("updating usable should leave the reupload flag alone")
		}
	})

	t.Run("MutateMissingTrack", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if err := store.UpdateUsable(99, true); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := store.BumpRequestCount(99); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
