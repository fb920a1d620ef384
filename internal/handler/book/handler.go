package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/bookshelf/backend/internal/model/book"
	"github.com/zhouzirui/bookshelf/backend/internal/service/library"
	"github.com/zhouzirui/bookshelf/backend/pkg/utils"
)

const (
	maxBodyBytes = 1 << 20

	msgNotFound       = "Resource not found"
	msgInvalidBody    = "invalid request body"
	msgFieldsRequired = "title and author are required"
	msgEmptyUpdate    = "request body must set title or author"
	msgBlankField     = "title and author must not be empty"
)

// Handler serves the book resource.
type Handler struct {
	svc *library.Service
	log *zap.Logger
}

// New creates the book handler.
func New(svc *library.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, log: logger.Named("books")}
}

// RegisterRoutes mounts the book routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/books", h.handleList)
	r.Post("/books", h.handleCreate)
	r.Get("/books/{id}", h.handleGet)
	r.Put("/books/{id}", h.handleUpdate)
	r.Delete("/books/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := book.Query{
		Title:  r.URL.Query().Get("title"),
		Author: r.URL.Query().Get("author"),
	}
	utils.RespondJSON(w, http.StatusOK, map[string][]book.Book{"books": h.svc.List(r.Context(), q)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}

	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]book.Book{"book": b})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload book.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if payload.Title == nil || payload.Author == nil {
		utils.RespondError(w, http.StatusBadRequest, msgFieldsRequired)
		return
	}

	b, err := h.svc.Create(r.Context(), *payload.Title, *payload.Author)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]book.Book{"book": b})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload, err := decodeUpdate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.svc.Update(r.Context(), id, payload)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]book.Book{"book": b})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondNoContent(w)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, book.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, book.ErrInvalidBook):
		utils.RespondError(w, http.StatusBadRequest, msgBlankField)
	default:
		h.log.Error("book operation failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// bookID parses the {id} URL parameter. Only positive integers name a book.
func bookID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
