package router

import (
	userapp "videotube/internal/application"
	"videotube/internal/container"
	pginfra "videotube/internal/infrastructure/postgres"
	handlers "videotube/internal/interface/http"
	"videotube/internal/router/modules"
	"videotube/pkg/helpers"
)

func buildUserModule() Module {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())
	uploader := helpers.NewGCSUploader(container.GetGCS(), cfg.GCSBucket, "images", cfg.MediaUploadTimeout)

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		uploader,
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
		container.GetRabbitPub(),
		cfg.MailSendEnabled,
	)

	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.CookieSecure,
	)

	return modules.NewUserModule(handler, container.GetJWT())
}

func buildPlaylistModule() Module {
	repo := pginfra.NewPlaylistRepository(container.GetPGPool())
	service := userapp.NewPlaylistService(repo)
	handler := handlers.NewPlaylistHandler(service)
	return modules.NewPlaylistModule(handler, container.GetJWT())
}

// InitModules initializes all application modules and registers them with
// the router registry. Called once during startup.
func InitModules(r *Registry) {
	r.Add(buildUserModule())
	r.Add(buildPlaylistModule())
	r.Add(modules.NewDebugModule())
}
