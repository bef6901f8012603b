package container

import (
	app "leaf-bot/internal/application"
	"leaf-bot/internal/domain/port"
)

type Container struct {
	UserService      *app.UserService
	InferenceService *app.InferenceService
}

// Deps перечисляет инфраструктуру, из которой собираются сервисы.
type Deps struct {
	Users     port.UserRepository
	Loader    port.ImageLoader
	Resolver  port.EndpointResolver
	Client    port.InferenceClient
	Annotator port.Annotator
	Advisor   port.TreatmentAdvisor
}

func New(deps Deps, defaults app.Defaults) *Container {
	userService := app.NewUserService(deps.Users)
	inferenceService := app.NewInferenceService(
		userService,
		deps.Loader,
		deps.Resolver,
		deps.Client,
		deps.Annotator,
		deps.Advisor,
		defaults,
	)

	return &Container{
		UserService:      userService,
		InferenceService: inferenceService,
	}
}
