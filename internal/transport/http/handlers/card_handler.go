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

type CardHandler struct {
	cardService *service.CardService
}

func NewCardHandler(cardService *service.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateCardInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validator.ValidateCard(input.Title); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	card, err := h.cardService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		case errors.Is(err, service.ErrMoveConflict):
			writeError(w, http.StatusConflict, "Board changed concurrently, please retry")
		default:
			log.Printf("ERROR create card: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	boardID, err := uuid.Parse(r.URL.Query().Get("boardId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing boardId")
		return
	}

	cards, err := h.cardService.ListByBoard(r.Context(), userID, boardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR list cards: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	if cards == nil {
		cards = []domain.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

// Search finds the board's cards matching the q parameter in title or
// description.
func (h *CardHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	boardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid board ID")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Missing search query")
		return
	}

	cards, err := h.cardService.Search(r.Context(), userID, boardID, query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		default:
			log.Printf("ERROR search cards: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	if cards == nil {
		cards = []domain.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *CardHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid card ID")
		return
	}

	var input service.MoveCardInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	card, err := h.cardService.Move(r.Context(), userID, cardID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			writeError(w, http.StatusNotFound, "Card not found")
		case errors.Is(err, service.ErrBoardNotFound):
			writeError(w, http.StatusNotFound, "Board not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		case errors.Is(err, service.ErrMoveConflict):
			writeError(w, http.StatusConflict, "Board changed concurrently, please retry")
		default:
			log.Printf("ERROR move card: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid card ID")
		return
	}

	if err := h.cardService.Delete(r.Context(), userID, cardID); err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			writeError(w, http.StatusNotFound, "Card not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "You are not a member of this workspace")
		case errors.Is(err, service.ErrMoveConflict):
			writeError(w, http.StatusConflict, "Board changed concurrently, please retry")
		default:
			log.Printf("ERROR delete card: %v", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}
