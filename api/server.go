package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stocwatch/api/handlers"
	"stocwatch/config"
	"stocwatch/core/notify"
	"stocwatch/core/store"
	"stocwatch/core/utils"
)

type ServerDeps struct {
	Detections store.DetectionsStore
	History    store.HistoryStore
	Accounts   store.AccountsStore
	Hub        *notify.Hub
}

type Server struct {
	cfg    *config.AppConfig
	logger *utils.Logger

	detections store.DetectionsStore
	history    store.HistoryStore
	accounts   store.AccountsStore
	hub        *notify.Hub
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		detections: deps.Detections,
		history:    deps.History,
		accounts:   deps.Accounts,
		hub:        deps.Hub,
	}
}

type routeHandlers struct {
	accounts   *handlers.AccountsHandler
	detections *handlers.DetectionsHandler
	history    *handlers.HistoryHandler
	events     *handlers.EventsHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	var notifier notify.Notifier = notify.NopNotifier{}
	if s.hub != nil {
		notifier = s.hub
	}
	return routeHandlers{
		accounts:   handlers.NewAccountsHandler(s.accounts, s.logger),
		detections: handlers.NewDetectionsHandler(s.detections, notifier, s.logger),
		history:    handlers.NewHistoryHandler(s.history, s.logger),
		events:     handlers.NewEventsHandler(s.hub),
	}
}

func (s *Server) Router() http.Handler {
	h := s.newRouteHandlers()
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.securityHeadersMiddleware)

	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Route("/auth", func(authRouter chi.Router) {
			authRouter.MethodFunc("POST", "/login/stoc", h.accounts.LoginSTOC)
			authRouter.MethodFunc("POST", "/login/store", h.accounts.LoginStore)
			authRouter.MethodFunc("POST", "/register/store", h.accounts.RegisterStore)
			authRouter.MethodFunc("POST", "/register/stoc", h.accounts.RegisterSTOC)
			authRouter.MethodFunc("POST", "/verify-admin/{party}", h.accounts.VerifyAdmin)
		})

		apiRouter.Route("/accounts", func(accountsRouter chi.Router) {
			accountsRouter.MethodFunc("GET", "/{party}", h.accounts.List)
			accountsRouter.MethodFunc("DELETE", "/{party}/{id:[0-9]+}", h.accounts.Delete)
		})

		apiRouter.MethodFunc("GET", "/stores/{storeID:[0-9]+}/profile", h.accounts.StoreProfile)
		apiRouter.MethodFunc("GET", "/stores/{storeID:[0-9]+}/live-stream", h.accounts.LiveStream)

		apiRouter.Route("/detections", func(detRouter chi.Router) {
			detRouter.MethodFunc("GET", "/stoc", h.detections.ListSTOC)
			detRouter.MethodFunc("GET", "/stoc/count", h.detections.CountSTOC)
			detRouter.MethodFunc("GET", "/stoc/latest", h.detections.LatestSTOC)
			detRouter.MethodFunc("GET", "/store/{storeID:[0-9]+}", h.detections.ListStore)
			detRouter.MethodFunc("GET", "/store/{storeID:[0-9]+}/count", h.detections.CountStore)
			detRouter.MethodFunc("GET", "/store/{storeID:[0-9]+}/latest", h.detections.LatestStore)
			detRouter.MethodFunc("GET", "/store/{storeID:[0-9]+}/cover", h.detections.CoverReports)
			detRouter.MethodFunc("POST", "/{party}", h.detections.Create)
			detRouter.MethodFunc("GET", "/{party}/{id:[0-9]+}", h.detections.Get)
			detRouter.MethodFunc("PUT", "/{party}/{id:[0-9]+}", h.detections.Edit)
			detRouter.MethodFunc("DELETE", "/{party}/{id:[0-9]+}", h.detections.Delete)
		})

		apiRouter.Route("/reports", func(reportsRouter chi.Router) {
			reportsRouter.MethodFunc("GET", "/by-month", h.detections.ReportsByMonth)
			reportsRouter.MethodFunc("GET", "/by-location", h.detections.ReportsByLocation)
			reportsRouter.MethodFunc("GET", "/store/{storeID:[0-9]+}/by-month", h.detections.StoreReportsByMonth)
		})

		apiRouter.Route("/history", func(historyRouter chi.Router) {
			historyRouter.MethodFunc("GET", "/edits/{party}", h.history.ListEdits)
			historyRouter.MethodFunc("GET", "/deletions/{party}", h.history.ListDeletions)
			historyRouter.MethodFunc("DELETE", "/deletions/{party}", h.history.ClearDeletions)
		})

		apiRouter.MethodFunc("GET", "/events", h.events.Stream)
	})
	return r
}
