package directory

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ferrata/stationdb/pkg/auth"
	JSON "github.com/ferrata/stationdb/pkg/json-utilities"
	"github.com/ferrata/stationdb/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, ds DirectoryRepository) {
	engine.Get("/djs", getDJs(ds))
	engine.Get("/djs/:id", getDJ(ds))
	engine.Post("/djs", addDJ(ds), auth.Auth(ds))
	engine.Put("/djs/:id", updateDJ(ds), auth.Auth(ds))
	engine.Delete("/djs/:id", deleteDJ(ds), auth.Auth(ds))

	engine.Post("/users", addUser(ds), auth.Auth(ds))

	engine.Get("/nicknames", getNicknameByName(ds))
	engine.Get("/nicknames/:id", getNickname(ds))
	engine.Post("/nicknames", addNickname(ds), auth.Auth(ds))
	engine.Put("/nicknames/:id/authcode", setAuthcode(ds), auth.Auth(ds))
	engine.Delete("/nicknames/:id", deleteNickname(ds), auth.Auth(ds))

	engine.Post("/nickrequests", addNickRequest(ds), auth.Auth(ds))
	engine.Get("/nickrequests", countNickRequests(ds))

	engine.Get("/lastfm", getLastFm(ds))
	engine.Post("/lastfm", addLastFm(ds), auth.Auth(ds))
	engine.Delete("/lastfm/:id", deleteLastFm(ds), auth.Auth(ds))

	engine.Get("/relays", getRelays(ds))
	engine.Get("/relays/:id", getRelay(ds))
	engine.Post("/relays", addRelay(ds), auth.Auth(ds))
	engine.Put("/relays/:id/listeners", setRelayListeners(ds), auth.Auth(ds))
	engine.Put("/relays/:id/active", setRelayActive(ds), auth.Auth(ds))
	engine.Put("/relays/:id/disabled", setRelayDisabled(ds), auth.Auth(ds))
	engine.Delete("/relays/:id", deleteRelay(ds), auth.Auth(ds))
}

func getDJs(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if djs, err := ds.GetDJs(); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Ok(writer, djs)
		}
	}
}

func getDJ(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		dj, err := ds.GetDJ(id)
		switch {
		case err == nil:
			JSON.Ok(writer, dj)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No dj matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addDJ(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[AddDJData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		dj, err := ds.AddDJ(data)
		switch {
		case err == nil:
			JSON.Created(writer, dj)
		case errors.Is(err, ErrNameTaken):
			JSON.Conflict(writer, fmt.Sprintf("The name %q is already taken", data.Name))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func updateDJ(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[UpdateDJData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		switch err = ds.UpdateDJ(id, data); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No dj matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func deleteDJ(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		switch err = ds.DeleteDJ(id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No dj matches id %d", id))
		case errors.Is(err, ErrReferenced):
			JSON.Conflict(writer, "The dj is referenced by users or queue entries")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addUser(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[AddUserData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		user, err := ds.AddUser(data)
		switch {
		case err == nil:
			JSON.Created(writer, user)
		case errors.Is(err, ErrUnknownDJ):
			JSON.BadRequestWithMessage(writer, fmt.Sprintf("No dj matches id %d", data.DJId))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// getNicknameByName handles the "/nicknames?nick=..." natural key lookup.
func getNicknameByName(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var nick = request.URL.Query().Get("nick")
		if nick == "" {
			JSON.BadRequestWithMessage(writer, "Missing `nick` query parameter")
			return
		}

		nickname, err := ds.GetNicknameByName(nick)
		switch {
		case err == nil:
			JSON.Ok(writer, nickname)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No nickname matches %q", nick))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func getNickname(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		nickname, err := ds.GetNickname(id)
		switch {
		case err == nil:
			JSON.Ok(writer, nickname)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No nickname matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addNickname(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[AddNicknameData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		nickname, err := ds.AddNickname(data)
		switch {
		case err == nil:
			JSON.Created(writer, nickname)
		case errors.Is(err, ErrNameTaken):
			JSON.Conflict(writer, fmt.Sprintf("The nickname %q is already registered", data.Nickname))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func setAuthcode(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[SetAuthcodeData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		switch err = ds.SetAuthcode(id, data); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No nickname matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func deleteNickname(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		switch err = ds.DeleteNickname(id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No nickname matches id %d", id))
		case errors.Is(err, ErrReferenced):
			JSON.Conflict(writer, "The nickname is referenced by faves")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addNickRequest(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var host = request.URL.Query().Get("host")
		if host == "" {
			JSON.BadRequestWithMessage(writer, "Missing `host` query parameter")
			return
		}

		if nickRequest, err := ds.AddNickRequest(host); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Created(writer, nickRequest)
		}
	}
}

// countNickRequests handles "/nickrequests?host=...&since=...", the figure rate
// limiting collaborators act on.
func countNickRequests(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var query = request.URL.Query()
		var host = query.Get("host")
		if host == "" {
			JSON.BadRequestWithMessage(writer, "Missing `host` query parameter")
			return
		}

		since, err := time.Parse("2006-01-02 15:04:05", query.Get("since"))
		if err != nil {
			JSON.BadRequestWithMessage(writer, fmt.Sprintf("Can't parse instant %q", query.Get("since")))
			return
		}

		count, err := ds.CountRecentNickRequests(host, since)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, struct {
			Host  string
			Count int
		}{host, count})
	}
}

func getLastFm(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var nick = request.URL.Query().Get("nick")
		if nick == "" {
			JSON.BadRequestWithMessage(writer, "Missing `nick` query parameter")
			return
		}

		linkage, err := ds.GetLastFmByNick(nick)
		switch {
		case err == nil:
			JSON.Ok(writer, linkage)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No scrobbler linkage matches %q", nick))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addLastFm(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[AddLastFmData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if linkage, err := ds.AddLastFm(data); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Created(writer, linkage)
		}
	}
}

func deleteLastFm(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		switch err = ds.DeleteLastFm(id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No scrobbler linkage matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func getRelays(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if relays, err := ds.GetRelays(); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Ok(writer, relays)
		}
	}
}

func getRelay(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		relay, err := ds.GetRelay(id)
		switch {
		case err == nil:
			JSON.Ok(writer, relay)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No relay matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addRelay(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[AddRelayData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if relay, err := ds.AddRelay(data); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Created(writer, relay)
		}
	}
}

type setListenersData struct {
	Listeners int
}

func (data setListenersData) Validate() error {
	return nil
}

func setRelayListeners(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[setListenersData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		respondToRelayMutation(writer, ds.SetRelayListeners(id, data.Listeners), id)
	}
}

type setFlagData struct {
	Value bool
}

func (data setFlagData) Validate() error {
	return nil
}

func setRelayActive(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[setFlagData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		respondToRelayMutation(writer, ds.SetRelayActive(id, data.Value), id)
	}
}

func setRelayDisabled(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[setFlagData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		respondToRelayMutation(writer, ds.SetRelayDisabled(id, data.Value), id)
	}
}

func deleteRelay(ds DirectoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		respondToRelayMutation(writer, ds.DeleteRelay(id), id)
	}
}

func respondToRelayMutation(writer http.ResponseWriter, err error, id int64) {
	switch {
	case err == nil:
		JSON.NoContent(writer)
	case errors.Is(err, ErrNotFound):
		JSON.NotFound(writer, fmt.Sprintf("No relay matches id %d", id))
	default:
		JSON.InternalServerError(writer, err)
	}
}
