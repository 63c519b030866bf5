package server

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	logx "formrelay/pkg/logx"
)

const maxFormBytes = 1 << 20

// Deliverer sends a rendered notification to a chat.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// FormHandler serves POST /send_form.
type FormHandler struct {
	notifier    Deliverer
	destination int64
	log         logx.Logger
}

func NewFormHandler(notifier Deliverer, destination int64, log logx.Logger) *FormHandler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &FormHandler{notifier: notifier, destination: destination, log: log}
}

func (h *FormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	sub, missing, err := parseSubmission(r)
	if err != nil {
		h.log.Debug("form body rejected", logx.Err(err))
		writeJSON(w, r, http.StatusBadRequest, validationResponse{Detail: []fieldError{{
			Loc: []string{"body"}, Msg: "unable to parse form body", Type: "value_error.body",
		}}})
		return
	}
	if len(missing) > 0 {
		writeJSON(w, r, http.StatusUnprocessableEntity, validationResponse{Detail: missing})
		return
	}

	if err := h.notifier.Deliver(r.Context(), h.destination, RenderMessage(sub)); err != nil {
		h.log.Error("form delivery failed",
			logx.Err(err),
			logx.Int64("chat_id", h.destination),
			logx.String("request_id", middleware.GetReqID(r.Context())),
		)
		writeJSON(w, r, http.StatusOK, statusResponse{Status: statusError, Message: messageFailed})
		return
	}

	h.log.Info("form delivered", logx.String("request_id", middleware.GetReqID(r.Context())))
	writeJSON(w, r, http.StatusOK, statusResponse{Status: statusOK, Message: messageSent})
}

// parseSubmission reads a urlencoded or multipart body. It returns one
// fieldError per missing or empty required field. Whitespace counts as a
// value.
func parseSubmission(r *http.Request) (FormSubmission, []fieldError, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mt == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return FormSubmission{}, nil, err
	}

	var missing []fieldError
	required := func(name string) string {
		v := r.PostForm.Get(name)
		if v == "" {
			missing = append(missing, missingField(name))
		}
		return v
	}

	sub := FormSubmission{
		Name:    required("name"),
		Phone:   required("phone"),
		Date:    required("date"),
		Comment: r.PostForm.Get("comment"),
	}
	return sub, missing, nil
}
