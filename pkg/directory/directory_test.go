package directory

import (
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ferrata/stationdb/pkg/catalog"
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

func TestDJs(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		added, err := store.AddDJ(AddDJData{Name: "Hanyuu", Description: "resident robot", Visible: true, Priority: 5})
		if err != nil {
			t.Fatalf("failed to add dj: %v", err)
		}

		byId, err := store.GetDJ(added.Id)
		if err != nil {
			t.Fatalf("failed to get dj by id: %v", err)
		}
		byName, err := store.GetDJByName("Hanyuu")
		if err != nil {
			t.Fatalf("failed to get dj by name: %v", err)
		}
		if byId != byName {
			t.Errorf("lookups disagree: %+v vs %+v", byId, byName)
		}
		if !byId.Visible || byId.Priority != 5 {
			t.Errorf("attributes lost on round trip: %+v", byId)
		}
	})

	t.Run("NameTaken", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if _, err := store.AddDJ(AddDJData{Name: "Wessie"}); err != nil {
			t.Fatalf("failed to add dj: %v", err)
		}
		if _, err := store.AddDJ(AddDJData{Name: "Wessie"}); !errors.Is(err, ErrNameTaken) {
			t.Errorf("expected ErrNameTaken, got %v", err)
		}
	})

	t.Run("UpdateKeepsName", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		added, err := store.AddDJ(AddDJData{Name: "Vin"})
		if err != nil {
			t.Fatalf("failed to add dj: %v", err)
		}

		if err = store.UpdateDJ(added.Id, UpdateDJData{Description: "late shift", Visible: true}); err != nil {
			t.Fatalf("failed to update dj: %v", err)
		}

		updated, err := store.GetDJ(added.Id)
		if err != nil {
			t.Fatalf("failed to get dj: %v", err)
		}
		if updated.Name != "Vin" {
			t.Errorf("name changed to %q, should stay immutable", updated.Name)
		}
		if updated.Description != "late shift" || !updated.Visible {
			t.Errorf("update not applied: %+v", updated)
		}
	})

	t.Run("DeleteReferenced", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		dj, err := store.AddDJ(AddDJData{Name: "Kilim"})
		if err != nil {
			t.Fatalf("failed to add dj: %v", err)
		}
		if _, err = store.AddUser(AddUserData{Name: "kilim", Password: "hunter2", DJId: dj.Id}); err != nil {
			t.Fatalf("failed to add user: %v", err)
		}

		if err = store.DeleteDJ(dj.Id); !errors.Is(err, ErrReferenced) {
			t.Errorf("expected ErrReferenced, got %v", err)
		}
		if !store.ExistsDJ(dj.Id) {
			t.Error("a rejected delete should leave the dj in place")
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if err := store.DeleteDJ(42); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUsers(t *testing.T) {
	t.Run("UnknownDJ", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if _, err := store.AddUser(AddUserData{Name: "ghost", Password: "pw", DJId: 9}); !errors.Is(err, ErrUnknownDJ) {
			t.Errorf("expected ErrUnknownDJ, got %v", err)
		}
	})

	t.Run("PasswordStoredVerbatim", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		dj, err := store.AddDJ(AddDJData{Name: "Hanyuu"})
		if err != nil {
			t.Fatalf("failed to add dj: %v", err)
		}

		// the column carries whatever the auth collaborator hands over, untouched
		added, err := store.AddUser(AddUserData{Name: "hanyuu", Password: "$6$rounds=656000$x", DJId: dj.Id})
		if err != nil {
			t.Fatalf("failed to add user: %v", err)
		}

		user, err := store.GetUserByName("hanyuu")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if user.Password != "$6$rounds=656000$x" {
			t.Errorf("password altered on storage: %q", user.Password)
		}
		if user.Id != added.Id || user.DJId != dj.Id {
			t.Errorf("identifiers lost on round trip: %+v", user)
		}

		if !store.ExistsUserName("hanyuu") {
			t.Error("existing user name should be reported")
		}
		if store.ExistsUserName("nobody") {
			t.Error("missing user name should not be reported")
		}
	})

	t.Run("Privileges", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		dj, err := store.AddDJ(AddDJData{Name: "Vin"})
		if err != nil {
			t.Fatalf("failed to add dj: %v", err)
		}
		user, err := store.AddUser(AddUserData{Name: "vin", Password: "pw", DJId: dj.Id})
		if err != nil {
			t.Fatalf("failed to add user: %v", err)
		}

		if err = store.UpdateUserPrivileges(user.Id, 3); err != nil {
			t.Fatalf("failed to update privileges: %v", err)
		}
		updated, err := store.GetUser(user.Id)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if updated.Privileges != 3 {
			t.Errorf("privileges %d, expected 3", updated.Privileges)
		}
	})
}

func TestNicknames(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		added, err := store.AddNickname(AddNicknameData{Nickname: "Eggbert"})
		if err != nil {
			t.Fatalf("failed to add nickname: %v", err)
		}
		if added.FirstSeen.IsZero() {
			t.Error("first sighting should be stamped on creation")
		}

		nickname, err := store.GetNicknameByName("Eggbert")
		if err != nil {
			t.Fatalf("failed to get nickname: %v", err)
		}
		if nickname.Id != added.Id {
			t.Errorf("id %d, expected %d", nickname.Id, added.Id)
		}
		if nickname.Authcode != nil {
			t.Error("a fresh nickname should carry no authcode")
		}
	})

	t.Run("NameTaken", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if _, err := store.AddNickname(AddNicknameData{Nickname: "Eggbert"}); err != nil {
			t.Fatalf("failed to add nickname: %v", err)
		}
		if _, err := store.AddNickname(AddNicknameData{Nickname: "Eggbert"}); !errors.Is(err, ErrNameTaken) {
			t.Errorf("expected ErrNameTaken, got %v", err)
		}
	})

	t.Run("AuthcodeSetAndClear", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		added, err := store.AddNickname(AddNicknameData{Nickname: "Eggbert"})
		if err != nil {
			t.Fatalf("failed to add nickname: %v", err)
		}

		var code = "a1b2c3"
		if err = store.SetAuthcode(added.Id, SetAuthcodeData{Authcode: &code}); err != nil {
			t.Fatalf("failed to set authcode: %v", err)
		}
		nickname, err := store.GetNickname(added.Id)
		if err != nil {
			t.Fatalf("failed to get nickname: %v", err)
		}
		if nickname.Authcode == nil || *nickname.Authcode != code {
			t.Errorf("authcode %v, expected %q", nickname.Authcode, code)
		}

		if err = store.SetAuthcode(added.Id, SetAuthcodeData{}); err != nil {
			t.Fatalf("failed to clear authcode: %v", err)
		}
		nickname, err = store.GetNickname(added.Id)
		if err != nil {
			t.Fatalf("failed to get nickname: %v", err)
		}
		if nickname.Authcode != nil {
			t.Errorf("authcode should be cleared, got %q", *nickname.Authcode)
		}
	})

	t.Run("DeleteFaved", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)

		nickname, err := store.AddNickname(AddNicknameData{Nickname: "Eggbert"})
		if err != nil {
			t.Fatalf("failed to add nickname: %v", err)
		}
		song, err := catalog.NewStore(db).AddSong(catalog.AddSongData{Meta: "Artist - Title"})
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
		if _, err = ledger.NewStore(db).RecordFave(ledger.RecordFaveData{NickId: nickname.Id, SongId: song.Id}); err != nil {
			t.Fatalf("failed to record fave: %v", err)
		}

		if err = store.DeleteNickname(nickname.Id); !errors.Is(err, ErrReferenced) {
			t.Errorf("expected ErrReferenced, got %v", err)
		}
	})
}

func TestNickRequests(t *testing.T) {
	t.Run("CountRecentByHost", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		for i := 0; i < 3; i++ {
			if _, err := store.AddNickRequest("198.51.100.4"); err != nil {
				t.Fatalf("failed to add nick request: %v", err)
			}
		}
		if _, err := store.AddNickRequest("198.51.100.9"); err != nil {
			t.Fatalf("failed to add nick request: %v", err)
		}

		count, err := store.CountRecentNickRequests("198.51.100.4", time.Now().UTC().Add(-time.Hour))
		if err != nil {
			t.Fatalf("failed to count nick requests: %v", err)
		}
		if count != 3 {
			t.Errorf("count %d, expected 3", count)
		}

		// a cutoff past the claims excludes them all
		count, err = store.CountRecentNickRequests("198.51.100.4", time.Now().UTC().Add(time.Hour))
		if err != nil {
			t.Fatalf("failed to count nick requests: %v", err)
		}
		if count != 0 {
			t.Errorf("count %d, expected 0", count)
		}
	})
}

func TestLastFm(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		added, err := store.AddLastFm(AddLastFmData{Nick: "Eggbert", Username: "eggbert_fm"})
		if err != nil {
			t.Fatalf("failed to add linkage: %v", err)
		}

		linkage, err := store.GetLastFmByNick("Eggbert")
		if err != nil {
			t.Fatalf("failed to get linkage: %v", err)
		}
		if linkage.Id != added.Id || linkage.Username != "eggbert_fm" {
			t.Errorf("linkage lost on round trip: %+v", linkage)
		}

		if err = store.DeleteLastFm(linkage.Id); err != nil {
			t.Fatalf("failed to delete linkage: %v", err)
		}
		if _, err = store.GetLastFmByNick("Eggbert"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after deletion, got %v", err)
		}
	})
}

func TestRelays(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		added, err := store.AddRelay(AddRelayData{Subdomain: "mirror-a", Owner: "Kilim"})
		if err != nil {
			t.Fatalf("failed to add relay: %v", err)
		}

		relay, err := store.GetRelay(added.Id)
		if err != nil {
			t.Fatalf("failed to get relay: %v", err)
		}
		if relay.Port != 1130 {
			t.Errorf("port %d, expected the default 1130", relay.Port)
		}
		if relay.Mountpoint != "/main.mp3" {
			t.Errorf("mount %q, expected the default /main.mp3", relay.Mountpoint)
		}
		if relay.Bitrate != 192 || relay.Format != "mp3" {
			t.Errorf("stream defaults lost: %d %q", relay.Bitrate, relay.Format)
		}
		if relay.Country != "us" {
			t.Errorf("country %q, expected the default us", relay.Country)
		}
		if relay.Priority == nil || *relay.Priority != 0 {
			t.Errorf("priority %v, expected 0", relay.Priority)
		}
		if relay.ListenerLimit != nil {
			t.Errorf("listener limit should stay null, got %d", *relay.ListenerLimit)
		}
		if relay.Active || relay.Disabled {
			t.Error("fresh relays should be neither active nor disabled")
		}
	})

	t.Run("DuplicateSubdomains", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		// no natural key guards relays: two mirrors may share a subdomain
		first, err := store.AddRelay(AddRelayData{Subdomain: "mirror-a"})
		if err != nil {
			t.Fatalf("failed to add relay: %v", err)
		}
		second, err := store.AddRelay(AddRelayData{Subdomain: "mirror-a"})
		if err != nil {
			t.Fatalf("failed to add duplicate relay: %v", err)
		}
		if first.Id == second.Id {
			t.Error("duplicate relays should get distinct ids")
		}
	})

	t.Run("StatusFlags", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		added, err := store.AddRelay(AddRelayData{Subdomain: "mirror-a"})
		if err != nil {
			t.Fatalf("failed to add relay: %v", err)
		}

		if err = store.SetRelayListeners(added.Id, 117); err != nil {
			t.Fatalf("failed to set listeners: %v", err)
		}
		if err = store.SetRelayActive(added.Id, true); err != nil {
			t.Fatalf("failed to set active: %v", err)
		}
		if err = store.SetRelayDisabled(added.Id, true); err != nil {
			t.Fatalf("failed to set disabled: %v", err)
		}

		relay, err := store.GetRelay(added.Id)
		if err != nil {
			t.Fatalf("failed to get relay: %v", err)
		}
		if relay.Listeners != 117 {
			t.Errorf("listeners %d, expected 117", relay.Listeners)
		}
		// the polled active flag and the administrative kill switch live side by side
		if !relay.Active || !relay.Disabled {
			t.Errorf("flags lost: active=%v disabled=%v", relay.Active, relay.Disabled)
		}
	})

	t.Run("MutateMissing", func(t *testing.T) {
		store := NewStore(setupTestDB(t))

		if err := store.SetRelayListeners(7, 10); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := store.DeleteRelay(7); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
