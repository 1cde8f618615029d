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

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateCommentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validator.ValidateComment(input.Text); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			writeError(w, http.StatusNotFound, "Card not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR create comment: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) ListByCard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cardID, err := uuid.Parse(r.URL.Query().Get("cardId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing cardId")
		return
	}

	comments, err := h.commentService.ListByCard(r.Context(), userID, cardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			writeError(w, http.StatusNotFound, "Card not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR list comments: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	if comments == nil {
		comments = []domain.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}
