package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ferrata/stationdb/pkg/auth"
	JSON "github.com/ferrata/stationdb/pkg/json-utilities"
	"github.com/ferrata/stationdb/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, cs CatalogRepository, ur auth.UserChecker) {
	engine.Get("/songs", resolveSong(cs))
	engine.Get("/songs/:id", getSong(cs))
	engine.Post("/songs", addSong(cs), auth.Auth(ur))
	engine.Put("/songs/:id", updateSong(cs), auth.Auth(ur))
	engine.Delete("/songs/:id", deleteSong(cs), auth.Auth(ur))

	engine.Get("/tracks", resolveOrListTracks(cs))
	engine.Get("/tracks/:id", getTrack(cs))
	engine.Post("/tracks", addTrack(cs), auth.Auth(ur))
	engine.Put("/tracks/:id/usable", updateUsable(cs), auth.Auth(ur))
	engine.Put("/tracks/:id/reupload", updateReupload(cs), auth.Auth(ur))
	engine.Post("/tracks/:id/requests", bumpRequestCount(cs), auth.Auth(ur))
	engine.Delete("/tracks/:id", deleteTrack(cs), auth.Auth(ur))
}

// resolveSong handles the "/songs?meta=..." route, mapping a metadata string to its
// canonical catalog row.
func resolveSong(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var meta = request.URL.Query().Get("meta")
		if !request.URL.Query().Has("meta") {
			JSON.BadRequestWithMessage(writer, "Missing `meta` query parameter")
			return
		}

		song, err := cs.ResolveSong(meta)
		switch {
		case err == nil:
			JSON.Ok(writer, song)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No song matches %q", meta))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func getSong(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		song, err := cs.GetSong(id)
		switch {
		case err == nil:
			JSON.Ok(writer, song)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No song matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addSong(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		// parse and validate the song data
		data, err := JSON.DecodeValidate[AddSongData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		song, err := cs.AddSong(data)
		switch {
		case err == nil:
			JSON.Created(writer, song)
		case errors.Is(err, ErrDigestConflict):
			JSON.Conflict(writer, fmt.Sprintf("A song with the digest of %q is already catalogued", data.Meta))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func updateSong(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[UpdateSongData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		switch err = cs.UpdateSong(id, data); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No song matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func deleteSong(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		switch err = cs.DeleteSong(id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No song matches id %d", id))
		case errors.Is(err, ErrReferenced):
			JSON.Conflict(writer, "The song is referenced by plays, faves or queue entries")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// resolveOrListTracks handles "/tracks?meta=..." resolution and the
// "/tracks?filter=unusable" listing the external picker reviews.
func resolveOrListTracks(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var query = request.URL.Query()

		if query.Has("meta") {
			track, err := cs.ResolveTrack(query.Get("meta"))
			switch {
			case err == nil:
				JSON.Ok(writer, track)
			case errors.Is(err, ErrNotFound):
				JSON.NotFound(writer, fmt.Sprintf("No track matches %q", query.Get("meta")))
			default:
				JSON.InternalServerError(writer, err)
			}
			return
		}

		if query.Get("filter") == "unusable" {
			if tracks, err := cs.GetUnusableTracks(); err != nil {
				JSON.InternalServerError(writer, err)
			} else {
				JSON.Ok(writer, tracks)
			}
			return
		}

		JSON.BadRequestWithMessage(writer, "Specify either `meta` or `filter=unusable`")
	}
}

func getTrack(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		track, err := cs.GetTrack(id)
		switch {
		case err == nil:
			JSON.Ok(writer, track)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No track matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func addTrack(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[AddTrackData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		track, err := cs.AddTrack(data)
		switch {
		case err == nil:
			JSON.Created(writer, track)
		case errors.Is(err, ErrDigestConflict):
			JSON.Conflict(writer, fmt.Sprintf("A track with the digest of %q is already catalogued", data.metadata()))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func updateUsable(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[UpdateUsableData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		respondToMutation(writer, cs.UpdateUsable(id, data.Usable), id)
	}
}

func updateReupload(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[UpdateReuploadData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		respondToMutation(writer, cs.MarkNeedsReupload(id, data.NeedsReupload), id)
	}
}

func bumpRequestCount(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		respondToMutation(writer, cs.BumpRequestCount(id), id)
	}
}

func deleteTrack(cs CatalogRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		switch err = cs.DeleteTrack(id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No track matches id %d", id))
		case errors.Is(err, ErrReferenced):
			JSON.Conflict(writer, "The track is referenced by queue entries")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

func respondToMutation(writer http.ResponseWriter, err error, id int64) {
	switch {
	case err == nil:
		JSON.NoContent(writer)
	case errors.Is(err, ErrNotFound):
		JSON.NotFound(writer, fmt.Sprintf("No track matches id %d", id))
	default:
		JSON.InternalServerError(writer, err)
	}
}
