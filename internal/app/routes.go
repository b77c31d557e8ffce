package app

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/kvstore"
	"github.com/bionotes/bionotes/internal/plugins/biometric"
	"github.com/bionotes/bionotes/internal/plugins/credentials"
	"github.com/bionotes/bionotes/internal/plugins/lockscreen"
	"github.com/bionotes/bionotes/internal/plugins/session"
	"github.com/bionotes/bionotes/internal/widgets/notes"
)

// RegisterRoutes builds every service and wires all application routes.
//
// This is the single place where plugins are constructed and aggregated:
// the credentials store and authenticator bridge feed the lock screen
// orchestrator, which is the only component allowed to unlock the session
// controller guarding the notes widget.
func (a *App) RegisterRoutes(logger *slog.Logger) {
	e := a.Echo

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	// Shared infrastructure.
	store := kvstore.NewRedis(a.Redis, a.Config.Redis.KeyPrefix)
	controller := session.NewController(a.Config.Session.LockTimeout, logger)

	// Credentials plugin: users collection + current-user marker.
	credentialService := credentials.NewService(credentials.NewUserRepository(store))
	credentials.RegisterRoutes(api, credentials.NewHandler(credentialService, controller))

	// Biometric plugin: platform authenticator bridge.
	bridge := biometric.NewBridge(
		a.Config.WebAuthn,
		biometric.NewHandleRepository(store),
		biometric.NewSessionStore(a.Redis, a.Config.Redis.KeyPrefix),
		logger,
	)
	biometric.RegisterRoutes(api, biometric.NewHandler(bridge))

	// Lock screen plugin: the orchestrator is the only unlocker.
	simulated := biometric.NewSimulatedAuthenticator(a.Config.Session.SimulatedDelay, logger)
	orchestrator := lockscreen.NewService(credentialService, bridge, simulated, controller, logger)
	lockscreen.RegisterRoutes(api, lockscreen.NewHandler(orchestrator))

	// Session plugin: lock state, activity, and visibility signals.
	session.RegisterRoutes(api, session.NewHandler(controller))

	// Notes widget: everything behind the session guard.
	noteService := notes.NewNoteService(notes.NewNoteRepository(a.DB))
	notes.RegisterRoutes(api, notes.NewHandler(noteService, credentialService), controller)
}
