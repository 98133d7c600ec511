package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
	"github.com/Ananth-NQI/market-analyst-backend/internal/services"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage flattens validator errors into one client facing line.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s is %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// ChatHandler handles the conversational endpoints
type ChatHandler struct {
	chatbot *services.ChatbotService
	log     zerolog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatbot *services.ChatbotService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chatbot: chatbot,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

// Chat runs one conversation turn and returns the model reply
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	reply, err := h.chatbot.Chat(c.UserContext(), &req)
	if err != nil {
		if services.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.log.Error().Err(err).
			Str("user_id", req.UserID).
			Str("id_session", req.SessionID).
			Msg("chat turn failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Chat processing failed",
		})
	}

	return c.JSON(reply)
}

// History returns the stored messages of one session
func (h *ChatHandler) History(c *fiber.Ctx) error {
	key := models.SessionKey{UserID: c.Params("user_id"), SessionID: c.Params("id_session")}

	messages, err := h.chatbot.History(c.UserContext(), key)
	if err != nil {
		return h.readError(c, err, "Failed to load chat history")
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// Sessions lists the conversations of a user
func (h *ChatHandler) Sessions(c *fiber.Ctx) error {
	sessions, err := h.chatbot.Sessions(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return h.readError(c, err, "Failed to list chat sessions")
	}
	if sessions == nil {
		sessions = []models.SessionSummary{}
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (h *ChatHandler) readError(c *fiber.Ctx, err error, msg string) error {
	if services.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.log.Error().Err(err).Msg(msg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}
