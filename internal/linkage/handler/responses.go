package handler

import (
	"net/http"

	"linkage/internal/linkage/models"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusCode maps a dispatcher response onto an HTTP status. Store failures
// are the only ERROR outcome reported as a server fault.
func StatusCode(req *models.Request, resp models.Response) int {
	switch resp.Status {
	case models.StatusSuccess:
		if req != nil && req.Action != nil && models.NormalizeAction(*req.Action) == models.ActionInsert {
			return http.StatusCreated
		}
		return http.StatusOK
	case models.StatusNotFound:
		return http.StatusNotFound
	default:
		if resp.Reason == models.ReasonStoreFailure {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	}
}
