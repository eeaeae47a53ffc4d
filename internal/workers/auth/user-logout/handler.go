package userlogout

import (
	"context"
	"time"

	"advisor-match-workers/internal/common/auth"
	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "user-logout"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId":    {"type": "string", "minLength": 1, "maxLength": 255},
		"sessionId": {"type": "string", "maxLength": 255},
		"logoutAll": {"type": "boolean"}
	}
}`)

type Handler struct {
	config    *Config
	sessions  *auth.SessionManager
	processor *camunda.JobProcessor
	logger    logger.Logger
}

func NewHandler(config *Config, sessions *auth.SessionManager, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
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

// Execute deletes one session, or all of the user's sessions when LogoutAll is set.
// Logging out of an already expired session succeeds with zero invalidated.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, errors.NewValidationError("userId is required")
	}
	if !input.LogoutAll && input.SessionID == "" {
		return nil, errors.NewValidationError("sessionId is required unless logoutAll is set")
	}

	var (
		n   int
		err error
	)
	if input.LogoutAll {
		n, err = h.sessions.DeleteAll(ctx, input.UserID)
	} else {
		n, err = h.sessions.Delete(ctx, input.UserID, input.SessionID)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("user logged out", map[string]interface{}{
		"userId":              input.UserID,
		"logoutAll":           input.LogoutAll,
		"sessionsInvalidated": n,
	})

	return &Output{
		Success:             true,
		Message:             "Logout successful",
		SessionsInvalidated: n,
		LogoutAt:            time.Now().UTC(),
	}, nil
}
