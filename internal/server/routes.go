package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/taskline/internal/api/v1"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, accessSvc v1.AccessService, taskSvc v1.TaskService) {
	v1.RegisterProjectRoutes(api, accessSvc)
	v1.RegisterTaskRoutes(api, taskSvc)
}
