package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/messagequeue"
)

// Requester is the subset of *nats.Conn used to ask a remote approver.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// ConfirmationProvider asks a remote approver over core NATS request-reply.
// The request blocks until an approver replies or ctx is done.
type ConfirmationProvider struct {
	nc      Requester
	subject string
}

// NewConfirmationProvider creates a provider that sends requests to subject.
func NewConfirmationProvider(nc Requester, subject string) *ConfirmationProvider {
	if subject == "" {
		subject = messagequeue.SubjectConfirmationRequest
	}
	return &ConfirmationProvider{nc: nc, subject: subject}
}

// Name returns "nats".
func (p *ConfirmationProvider) Name() string { return string(cf.ChannelNATS) }

// RequestConfirmation publishes req and waits for the approver's reply.
func (p *ConfirmationProvider) RequestConfirmation(ctx context.Context, req cf.Request) (cf.Response, error) {
	data, err := json.Marshal(messagequeue.ConfirmationRequestPayload{
		ID:      req.ID,
		Tool:    req.Tool,
		Args:    req.Args,
		Summary: req.Summary,
		Token:   req.Token,
	})
	if err != nil {
		return cf.Response{}, fmt.Errorf("marshal confirmation request: %w", err)
	}

	msg, err := p.nc.RequestWithContext(ctx, p.subject, data)
	if err != nil {
		return cf.Response{}, fmt.Errorf("nats confirmation request: %w", err)
	}

	var reply messagequeue.ConfirmationReplyPayload
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return cf.Response{}, fmt.Errorf("decode confirmation reply: %w", err)
	}
	if reply.ID != req.ID {
		return cf.Response{}, fmt.Errorf("confirmation reply for %q, want %q", reply.ID, req.ID)
	}
	return cf.Response{Input: reply.Input, Responder: reply.Responder, Channel: cf.ChannelNATS}, nil
}

// DecideFunc collects a human answer for a remote request.
type DecideFunc func(ctx context.Context, req cf.Request) (cf.Response, error)

// ServeApprovals answers confirmation requests on subject with decide until
// ctx is done. Requests are handled one at a time through a queue group so
// several approvers can share the subject.
func ServeApprovals(ctx context.Context, nc *nats.Conn, subject string, decide DecideFunc) error {
	if subject == "" {
		subject = messagequeue.SubjectConfirmationRequest
	}
	msgs := make(chan *nats.Msg, 16)
	sub, err := nc.ChanQueueSubscribe(subject, "approvers", msgs)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	slog.Info("approver listening", "subject", subject)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			if err := answer(ctx, msg, decide); err != nil {
				slog.Warn("approval request failed", "error", err)
			}
		}
	}
}

func answer(ctx context.Context, msg *nats.Msg, decide DecideFunc) error {
	var in messagequeue.ConfirmationRequestPayload
	if err := json.Unmarshal(msg.Data, &in); err != nil {
		return fmt.Errorf("decode confirmation request: %w", err)
	}
	if msg.Reply == "" {
		return errors.New("confirmation request without reply subject")
	}

	resp, err := decide(ctx, cf.Request{
		ID:      in.ID,
		Tool:    in.Tool,
		Args:    in.Args,
		Summary: in.Summary,
		Token:   in.Token,
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(messagequeue.ConfirmationReplyPayload{
		ID:        in.ID,
		Input:     resp.Input,
		Responder: resp.Responder,
	})
	if err != nil {
		return err
	}
	return msg.Respond(data)
}
