package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/service"
	"github.com/velebit-dev/boardsync/internal/transport/http/middleware"
	"github.com/velebit-dev/boardsync/pkg/validator"
)

type ListHandler struct {
	listService *service.ListService
}

func NewListHandler(listService *service.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateListInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validator.ValidateList(input.Title); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	list, err := h.listService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR create list: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, list)
}

func (h *ListHandler) ListByBoard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	boardID, err := uuid.Parse(r.URL.Query().Get("boardId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing boardId")
		return
	}

	lists, err := h.listService.ListByBoard(r.Context(), userID, boardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR list lists: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	if lists == nil {
		lists = []domain.List{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}

	var input service.MoveListInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	list, err := h.listService.Move(r.Context(), userID, listID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrListNotFound):
			writeError(w, http.StatusNotFound, "List not found")
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		case errors.Is(err, service.ErrMoveConflict):
			writeError(w, http.StatusConflict, "Board changed concurrently, please retry")
		default:
			log.Printf("ERROR move list: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, list)
}
