package endpoints

import "github.com/jackzampolin/folio/internal/api"

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&GetDocumentEndpoint{},
	}
}

// DocumentCommands returns endpoints grouped under "documents".
func DocumentCommands() []api.Endpoint {
	return []api.Endpoint{
		&GetDocumentEndpoint{},
	}
}
