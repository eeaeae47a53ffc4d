package userlogin

import (
	"context"
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

const TaskType = "user-login"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["identifier", "password"],
	"properties": {
		"identifier": {"type": "string", "minLength": 1},
		"password":   {"type": "string", "minLength": 1},
		"role":       {"type": "string", "enum": ["", "student", "advisor"]}
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

// Execute checks the credentials and opens a session. Unknown identifiers and wrong
// passwords produce the same INVALID_CREDENTIALS error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := h.store.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, input.Password) {
		h.logger.Warn("login rejected", map[string]interface{}{"identifier": identifier})
		return nil, errors.NewInvalidCredentialsError()
	}
	if input.Role != "" && models.Role(input.Role) != user.Role {
		return nil, errors.NewRoleMismatchError(input.Role, string(user.Role))
	}

	out := &Output{
		UserID: user.ID,
		Name:   user.Name,
		Role:   string(user.Role),
	}

	switch user.Role {
	case models.RoleStudent:
		p, err := h.store.GetStudentByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		out.ProfileID, out.CompletedProfile = p.ID, p.CompletedProfile
	case models.RoleAdvisor:
		p, err := h.store.GetAdvisorByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		out.ProfileID, out.CompletedProfile = p.ID, p.CompletedProfile
	}

	session, err := h.sessions.Create(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	out.SessionID = session.ID
	out.SessionExpiresAt = session.ExpiresAt

	h.logger.Info("user logged in", map[string]interface{}{"userId": user.ID, "role": user.Role})
	return out, nil
}
