package sendmatchnotification

import (
	"context"
	stderrors "errors"
	"time"

	"advisor-match-workers/internal/common/aws"
	"advisor-match-workers/internal/common/camunda"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "send-match-notification"

var inputSchema = validation.MustCompile(TaskType, `{
	"type": "object",
	"required": ["matchId"],
	"properties": {
		"matchId":      {"type": "string", "minLength": 1},
		"studentPhone": {"type": "string", "pattern": "^\\+[1-9][0-9]{6,14}$"}
	}
}`)

type EmailSender interface {
	SendEmail(ctx context.Context, email aws.Email) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) (string, error)
}

type Handler struct {
	config    *Config
	store     *store.Store
	email     EmailSender
	sms       SMSSender
	processor *camunda.JobProcessor
	logger    logger.Logger
	now       func() time.Time
}

// NewHandler builds the handler. A nil sender disables its channel.
func NewHandler(config *Config, st *store.Store, email EmailSender, sms SMSSender, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     st,
		email:     email,
		sms:       sms,
		processor: camunda.NewJobProcessor(TaskType, config.Timeout, obs, l).WithSchema(inputSchema),
		logger:    l,
		now:       time.Now,
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
	if input.MatchID == "" {
		return nil, errors.NewValidationError("matchId is required")
	}

	match, err := h.store.GetMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	student, err := h.store.GetStudent(ctx, match.StudentID)
	if err != nil {
		return nil, err
	}
	advisor, err := h.store.GetAdvisor(ctx, match.AdvisorID)
	if err != nil {
		return nil, err
	}
	studentUser, err := h.store.FindUserByID(ctx, student.UserID)
	if err != nil {
		return nil, err
	}

	mc := matchContext{
		Match:       match,
		StudentName: student.Name,
		AdvisorName: advisor.Name,
		PortalURL:   h.config.PortalURL,
	}

	out := &Output{MatchID: match.ID, Notifications: []models.Notification{}}

	studentAddr := ""
	if studentUser != nil && isValidEmail(studentUser.Identifier) {
		studentAddr = studentUser.Identifier
	}
	out.add(h.sendEmail(ctx, student.ID, studentAddr, studentEmail(studentAddr, mc)))

	if h.config.NotifyAdvisor {
		addr := ""
		if isValidEmail(advisor.Email) {
			addr = advisor.Email
		}
		out.add(h.sendEmail(ctx, advisor.ID, addr, advisorEmail(addr, mc)))
	}

	if input.StudentPhone != "" {
		out.add(h.sendSMS(ctx, student.ID, input.StudentPhone, smsText(mc)))
	}

	h.logger.Info("match notifications processed", map[string]interface{}{
		"matchId": match.ID,
		"sent":    out.Sent,
		"failed":  out.Failed,
	})

	if out.Sent == 0 && out.Failed > 0 {
		failed := out.lastFailure()
		return nil, errors.NewNotificationSendFailedError(failed.Channel, stderrors.New(failed.Error)).
			WithMetadata("matchId", match.ID)
	}
	return out, nil
}

func (h *Handler) sendEmail(ctx context.Context, recipientID, addr string, email aws.Email) models.Notification {
	n := models.Notification{ID: uuid.New().String(), RecipientID: recipientID, Channel: ChannelEmail}
	switch {
	case h.email == nil:
		n.Status = StatusDisabled
	case addr == "":
		n.Status = StatusSkipped
		n.Error = "no email address on file"
	default:
		id, err := h.email.SendEmail(ctx, email)
		h.finish(&n, id, err)
	}
	return n
}

func (h *Handler) sendSMS(ctx context.Context, recipientID, phone, text string) models.Notification {
	n := models.Notification{ID: uuid.New().String(), RecipientID: recipientID, Channel: ChannelSMS}
	if h.sms == nil {
		n.Status = StatusDisabled
		return n
	}
	id, err := h.sms.SendSMS(ctx, phone, text)
	h.finish(&n, id, err)
	return n
}

func (h *Handler) finish(n *models.Notification, messageID string, err error) {
	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		h.logger.Warn("notification failed", map[string]interface{}{
			"channel":     n.Channel,
			"recipientId": n.RecipientID,
			"error":       err.Error(),
		})
		return
	}
	n.Status = StatusSent
	n.MessageID = messageID
	n.SentAt = h.now().UTC().Format(time.RFC3339)
}

func (o *Output) add(n models.Notification) {
	o.Notifications = append(o.Notifications, n)
	switch n.Status {
	case StatusSent:
		o.Sent++
	case StatusFailed:
		o.Failed++
	}
}

func (o *Output) lastFailure() models.Notification {
	var last models.Notification
	for _, n := range o.Notifications {
		if n.Status == StatusFailed {
			last = n
		}
	}
	return last
}
