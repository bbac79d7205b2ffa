package playqueue

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ferrata/stationdb/pkg/auth"
	JSON "github.com/ferrata/stationdb/pkg/json-utilities"
	"github.com/ferrata/stationdb/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, qs QueueRepository, ur auth.UserChecker) {
	engine.Get("/queue", getEntries(qs))
	engine.Post("/queue", enqueue(qs), auth.Auth(ur))
	engine.Delete("/queue/:id", remove(qs), auth.Auth(ur))
}

// enqueue handles the POST "/queue" route issued when a request is accepted.
func enqueue(qs QueueRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[EnqueueData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		entry, err := qs.Enqueue(data)
		switch {
		case err == nil:
			JSON.Created(writer, entry)
		case errors.Is(err, ErrUnknownSong),
			errors.Is(err, ErrUnknownTrack),
			errors.Is(err, ErrUnknownDJ),
			errors.Is(err, ErrUnknownReference):
			JSON.BadRequestWithMessage(writer, err.Error())
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// getEntries handles the "/queue?before=..." route the scheduler polls; the cutoff
// defaults to the current instant.
func getEntries(qs QueueRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var cutoff = time.Now().UTC()

		if before := request.URL.Query().Get("before"); before != "" {
			parsed, err := time.Parse("2006-01-02 15:04:05", before)
			if err != nil {
				JSON.BadRequestWithMessage(writer, fmt.Sprintf("Can't parse cutoff %q", before))
				return
			}
			cutoff = parsed
		}

		if entries, err := qs.EntriesBefore(cutoff); err != nil {
			JSON.InternalServerError(writer, err)
		} else {
			JSON.Ok(writer, entries)
		}
	}
}

// remove handles the DELETE "/queue/:id" route the scheduler calls once an entry
// has been consumed.
func remove(qs QueueRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		switch err = qs.Remove(id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, fmt.Sprintf("No queue entry matches id %d", id))
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}
