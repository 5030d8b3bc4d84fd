// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/scribenet/scribe/app/services/mirror/handlers/v1/articlegrp"
	"github.com/scribenet/scribe/app/services/mirror/handlers/v1/draftgrp"
	"github.com/scribenet/scribe/app/services/mirror/handlers/v1/evtgrp"
	"github.com/scribenet/scribe/app/services/mirror/handlers/v1/profilegrp"
	"github.com/scribenet/scribe/app/services/mirror/handlers/v1/usergrp"
	"github.com/scribenet/scribe/business/core/article"
	"github.com/scribenet/scribe/business/core/user"
	"github.com/scribenet/scribe/foundation/events"
	"github.com/scribenet/scribe/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	User    *user.Core
	Article *article.Core
	Evts    *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	prf := profilegrp.Handlers{
		Log:  cfg.Log,
		User: cfg.User,
	}

	app.Handle(http.MethodGet, version, "/profile/hash/:public_key", prf.Query)
	app.Handle(http.MethodPost, version, "/profile/hash", prf.Store)

	art := articlegrp.Handlers{
		Log:     cfg.Log,
		Article: cfg.Article,
	}

	app.Handle(http.MethodPost, version, "/article/publish", art.Publish)
	app.Handle(http.MethodGet, version, "/article/uri/:uri", art.QueryByURI)
	app.Handle(http.MethodGet, version, "/article/list/:public_key", art.QueryByIdentity)

	drf := draftgrp.Handlers{
		Log:     cfg.Log,
		Article: cfg.Article,
	}

	app.Handle(http.MethodPost, version, "/draft", drf.Save)
	app.Handle(http.MethodGet, version, "/draft/:id", drf.Query)
	app.Handle(http.MethodPost, version, "/draft/delete", drf.Delete)

	usr := usergrp.Handlers{
		Log:  cfg.Log,
		User: cfg.User,
	}

	app.Handle(http.MethodPost, version, "/user", usr.Create)
	app.Handle(http.MethodGet, version, "/user/:public_key", usr.Query)

	evt := evtgrp.Handlers{
		Log:  cfg.Log,
		Evts: cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", evt.Events)
}
