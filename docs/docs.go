// Package docs встраивает описание OpenAPI, которое отдаётся под /swagger.
package docs

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var OpenAPI []byte

// Handler отдаёт openapi.json для swagger UI.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(OpenAPI)
}
