package server

import (
	"net/http"

	"github.com/go-chi/render"
)

const (
	statusOK    = "ok"
	statusError = "error"

	messageSent   = "Заявка отправлена"
	messageFailed = "Не удалось отправить заявку"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// fieldError describes one rejected input, in the shape browsers' form
// scripts already parse: {"loc": ["body", "name"], "msg": ..., "type": ...}.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type validationResponse struct {
	Detail []fieldError `json:"detail"`
}

func missingField(name string) fieldError {
	return fieldError{Loc: []string{"body", name}, Msg: "field required", Type: "value_error.missing"}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
