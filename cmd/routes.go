package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)

	mux := pat.New()

	// Bot
	mux.Post("/bot/updates", standardMiddleware.ThenFunc(app.botHandler.HandleUpdate))

	// Help requests
	mux.Get("/requests", standardMiddleware.ThenFunc(app.helpRequestHandler.Browse))
	mux.Get("/requests/user/:user_id", standardMiddleware.ThenFunc(app.helpRequestHandler.ListByAuthor))
	mux.Del("/requests/:id", standardMiddleware.ThenFunc(app.helpRequestHandler.Delete))
	mux.Get("/responses/user/:user_id", standardMiddleware.ThenFunc(app.helpRequestHandler.ResponsesByUser))

	// Push tokens, SQL stores only
	if app.fcmHandler != nil {
		mux.Post("/fcm/token", standardMiddleware.ThenFunc(app.fcmHandler.CreateToken))
		mux.Del("/fcm/token/:token", standardMiddleware.ThenFunc(app.fcmHandler.DeleteToken))
	}

	// Notifications
	mux.Get("/ws", alice.New(app.recoverPanic, app.logRequest).ThenFunc(app.hub.ServeWS))

	return mux
}
