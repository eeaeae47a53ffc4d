package userregister

import (
	"context"
	"fmt"
	"strings"

	"advisor-match-workers/internal/common/auth"
	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "user-register"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["name", "identifier", "password", "role"],
	"properties": {
		"name":        {"type": "string", "minLength": 1, "maxLength": 200},
		"identifier":  {"type": "string", "minLength": 3, "maxLength": 255},
		"password":    {"type": "string", "minLength": 1, "maxLength": 72},
		"role":        {"type": "string", "enum": ["student", "advisor"]},
		"maxStudents": {"type": "integer", "minimum": 0, "maximum": 100}
	}
}`)

type Handler struct {
	config    *Config
	store     *store.Store
	sessions  *auth.SessionManager
	processor *camunda.JobProcessor
	logger    logger.Logger
}

func NewHandler(config *Config, st *store.Store, sessions *auth.SessionManager, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     st,
		sessions:  sessions,
		processor: camunda.NewJobProcessor(TaskType, config.Timeout, obs, l).WithSchema(inputSchema),
		logger:    l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.processor.Process(client, job, func(ctx context.Context, vars []byte) (interface{}, error) {
		var input Input
		if err := camunda.DecodeVariables(vars, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, h.config.BcryptCost)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	capacity := input.MaxStudents
	if capacity == 0 {
		capacity = h.config.AdvisorCapacity
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Identifier:   normalizeIdentifier(input.Identifier),
		PasswordHash: hash,
		Role:         models.Role(input.Role),
	}
	profileID, err := h.store.RegisterUser(ctx, user, capacity)
	if err != nil {
		return nil, err
	}

	session, err := h.sessions.Create(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	h.logger.Info("user registered", map[string]interface{}{
		"userId":    user.ID,
		"profileId": profileID,
		"role":      user.Role,
	})

	return &Output{
		UserID:           user.ID,
		ProfileID:        profileID,
		Role:             string(user.Role),
		SessionID:        session.ID,
		SessionExpiresAt: session.ExpiresAt,
		CompletedProfile: false,
	}, nil
}

func (h *Handler) validate(input *Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.NewValidationError("name is required")
	}
	if normalizeIdentifier(input.Identifier) == "" {
		return errors.NewValidationError("identifier is required")
	}
	if len(input.Password) < h.config.MinPasswordLen {
		return errors.NewValidationError(fmt.Sprintf("password must be at least %d characters", h.config.MinPasswordLen))
	}
	if !models.Role(input.Role).Valid() {
		return errors.NewValidationError(fmt.Sprintf("unknown role %q", input.Role))
	}
	return nil
}

// normalizeIdentifier lowercases email addresses; student and staff numbers are kept as typed.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return identifier
}
