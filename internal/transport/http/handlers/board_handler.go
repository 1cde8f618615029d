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

type BoardHandler struct {
	boardService *service.BoardService
}

func NewBoardHandler(boardService *service.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateBoardInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validator.ValidateBoard(input.Title, input.Visibility); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	board, err := h.boardService.Create(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		} else {
			log.Printf("ERROR create board: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, board)
}

func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	workspaceID, err := uuid.Parse(r.URL.Query().Get("workspaceId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing workspaceId")
		return
	}

	boards, err := h.boardService.ListByWorkspace(r.Context(), userID, workspaceID)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		} else {
			log.Printf("ERROR list boards: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	if boards == nil {
		boards = []domain.Board{}
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	boardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid board ID")
		return
	}

	if err := h.boardService.Delete(r.Context(), userID, boardID); err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR delete board: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Board deleted"})
}

func (h *BoardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	boardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid board ID")
		return
	}

	entries, err := h.boardService.Activity(r.Context(), userID, boardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR board activity: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	if entries == nil {
		entries = []domain.ChangeLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
