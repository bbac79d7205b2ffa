package ledger

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ferrata/stationdb/pkg/auth"
	JSON "github.com/ferrata/stationdb/pkg/json-utilities"
	"github.com/ferrata/stationdb/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, ls LedgerRepository, ur auth.UserChecker) {
	engine.Get("/songs/:id/plays", getPlays(ls))
	engine.Get("/songs/:id/faves", getFaves(ls))
	engine.Post("/plays", recordPlay(ls), auth.Auth(ur))
	engine.Post("/faves", recordFave(ls), auth.Auth(ur))
}

// recordPlay handles the POST "/plays" route, appending one playback event.
func recordPlay(ls LedgerRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[RecordPlayData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		play, err := ls.RecordPlay(data)
		switch {
		case err == nil:
			JSON.Created(writer, play)
		case errors.Is(err, ErrUnknownSong):
			JSON.BadRequestWithMessage(writer, fmt.Sprintf("No song matches id %d", data.SongId))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// recordFave handles the POST "/faves" route; identical repeated requests are
// legal and each appends a distinct row.
func recordFave(ls LedgerRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[RecordFaveData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		fave, err := ls.RecordFave(data)
		switch {
		case err == nil:
			JSON.Created(writer, fave)
		case errors.Is(err, ErrUnknownSong):
			JSON.BadRequestWithMessage(writer, fmt.Sprintf("No song matches id %d", data.SongId))
		case errors.Is(err, ErrUnknownNick):
			JSON.BadRequestWithMessage(writer, fmt.Sprintf("No nickname matches id %d", data.NickId))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func getPlays(ls LedgerRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		if plays, err := ls.PlaysFor(id); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Ok(writer, plays)
		}
	}
}

func getFaves(ls LedgerRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		if faves, err := ls.FavesFor(id); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Ok(writer, faves)
		}
	}
}
