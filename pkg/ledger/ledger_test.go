package ledger

import (
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ferrata/stationdb/pkg/catalog"
	"github.com/ferrata/stationdb/pkg/directory"
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

// seedSong catalogues one song so plays and faves have something to reference
func seedSong(t *testing.T, db *sql.DB) catalog.Song {
	t.Helper()

	song, err := catalog.NewStore(db).AddSong(catalog.AddSongData{Meta: "Artist - Title", Length: 245})
	if err != nil {
		t.Fatalf("failed to seed song: %v", err)
	}
	return song
}

func seedNickname(t *testing.T, db *sql.DB) directory.Nickname {
	t.Helper()

	nickname, err := directory.NewStore(db).AddNickname(directory.AddNicknameData{Nickname: "listener"})
	if err != nil {
		t.Fatalf("failed to seed nickname: %v", err)
	}
	return nickname
}

func TestPlays(t *testing.T) {
	t.Run("Record", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		song := seedSong(t, db)

		play, err := store.RecordPlay(RecordPlayData{SongId: song.Id})
		if err != nil {
			t.Fatalf("failed to record play: %v", err)
		}
		if play.Id == 0 {
			t.Error("play id should be assigned on creation")
		}
		if play.Time.IsZero() {
			t.Error("an omitted instant should default to now")
		}
	})

	t.Run("UnknownSong", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)

		if _, err := store.RecordPlay(RecordPlayData{SongId: 99}); !errors.Is(err, ErrUnknownSong) {
			t.Fatalf("expected ErrUnknownSong, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT count(*) FROM eplay").Scan(&count); err != nil {
			t.Fatalf("failed to count plays: %v", err)
		}
		if count != 0 {
			t.Errorf("a rejected play should create no row, found %d", count)
		}
	})

	t.Run("ChronologicalOrder", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		song := seedSong(t, db)

		var base = time.Date(2013, 4, 20, 12, 0, 0, 0, time.UTC)
		// insert out of order to exercise the sort
		for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
			if _, err := store.RecordPlay(RecordPlayData{SongId: song.Id, Time: base.Add(offset)}); err != nil {
				t.Fatalf("failed to record play: %v", err)
			}
		}

		plays, err := store.PlaysFor(song.Id)
		if err != nil {
			t.Fatalf("failed to list plays: %v", err)
		}
		if len(plays) != 3 {
			t.Fatalf("expected 3 plays, got %d", len(plays))
		}
		for i := 1; i < len(plays); i++ {
			if plays[i].Time.Before(plays[i-1].Time) {
				t.Errorf("plays out of chronological order: %v before %v", plays[i-1].Time, plays[i].Time)
			}
		}
	})

	t.Run("Restartable", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		song := seedSong(t, db)

		if _, err := store.RecordPlay(RecordPlayData{SongId: song.Id}); err != nil {
			t.Fatalf("failed to record play: %v", err)
		}

		first, err := store.PlaysFor(song.Id)
		if err != nil {
			t.Fatalf("failed to list plays: %v", err)
		}
		second, err := store.PlaysFor(song.Id)
		if err != nil {
			t.Fatalf("failed to list plays again: %v", err)
		}
		if len(first) != len(second) {
			t.Errorf("reissued reads should restart the sequence; got %d then %d", len(first), len(second))
		}
	})
}

func TestFaves(t *testing.T) {
	t.Run("DuplicatesAllowed", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		song := seedSong(t, db)
		nickname := seedNickname(t, db)

		var data = RecordFaveData{NickId: nickname.Id, SongId: song.Id}
		first, err := store.RecordFave(data)
		if err != nil {
			t.Fatalf("failed to record fave: %v", err)
		}
		second, err := store.RecordFave(data)
		if err != nil {
			t.Fatalf("an identical fave should be legal, got %v", err)
		}
		if first.Id == second.Id {
			t.Error("duplicate faves should be distinct rows")
		}

		faves, err := store.FavesFor(song.Id)
		if err != nil {
			t.Fatalf("failed to list faves: %v", err)
		}
		if len(faves) != 2 {
			t.Errorf("expected both duplicate faves, got %d", len(faves))
		}
	})

	t.Run("UnknownNick", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		song := seedSong(t, db)

		if _, err := store.RecordFave(RecordFaveData{NickId: 99, SongId: song.Id}); !errors.Is(err, ErrUnknownNick) {
			t.Errorf("expected ErrUnknownNick, got %v", err)
		}
	})

	t.Run("UnknownSong", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		nickname := seedNickname(t, db)

		if _, err := store.RecordFave(RecordFaveData{NickId: nickname.Id, SongId: 99}); !errors.Is(err, ErrUnknownSong) {
			t.Errorf("expected ErrUnknownSong, got %v", err)
		}
	})
}
