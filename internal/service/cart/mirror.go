package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/devicestore"
)

// WarningKind classifies a non-fatal cart problem.
type WarningKind string

const (
	CartLoadDegraded  WarningKind = "CartLoadDegraded"
	MirrorWriteFailed WarningKind = "MirrorWriteFailed"
)

// Warning is a problem the visitor may want to know about. The local cart is still
// correct when one is raised.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	LineID  string      `json:"lineId,omitempty"`
	Message string      `json:"message"`
}

type opKind string

const (
	opSetQuantity opKind = "set_quantity"
	opDelete      opKind = "delete"
)

// mirrorOp is one backend cart write. Failed ops are queued under PendingKey, at most
// one per line and owner.
type mirrorOp struct {
	ID       string `json:"id"`
	Op       opKind `json:"op"`
	Quantity int    `json:"quantity,omitempty"`
	UserID   string `json:"userId"`
}

func (s *Store) send(ctx context.Context, op mirrorOp) error {
	switch op.Op {
	case opDelete:
		return s.api.DeleteCartLine(ctx, op.ID)
	default:
		return s.api.SetCartLineQuantity(ctx, op.ID, op.Quantity)
	}
}

// mirror pushes op to the backend for signed-in visitors. A failure is recorded as a
// warning and queued; only a failure to read or write the queue is returned.
func (s *Store) mirror(ctx context.Context, op mirrorOp) error {
	if !s.session.Authenticated {
		return nil
	}
	op.UserID = s.session.UserID()

	pending, readErr := s.readPending(ctx)
	if readErr != nil {
		s.logger.Warn("read pending cart writes", zap.Error(readErr))
	}

	sendErr := s.send(ctx, op)
	if sendErr == nil {
		if readErr != nil {
			return nil
		}
		if remaining, removed := without(pending, op); removed {
			return s.writePending(ctx, remaining)
		}
		return nil
	}

	s.recorder.MirrorFailed(string(op.Op))
	s.logger.Warn("MirrorWriteFailed",
		zap.String("line_id", op.ID),
		zap.String("op", string(op.Op)),
		zap.Error(sendErr),
	)
	s.warn(Warning{
		Kind:    MirrorWriteFailed,
		LineID:  op.ID,
		Message: "Your cart change was saved on this device and will sync when the connection recovers.",
	})
	if readErr != nil {
		// Rewriting an unread queue would drop the writes already in it.
		return fmt.Errorf("queue pending cart write: %w", readErr)
	}
	remaining, _ := without(pending, op)
	return s.writePending(ctx, append(remaining, op))
}

// replayPending resends queued writes of the current user in order. Writes that fail
// again stay queued; writes queued by another account are dropped.
func (s *Store) replayPending(ctx context.Context) {
	pending, err := s.readPending(ctx)
	if err != nil {
		s.logger.Warn("read pending cart writes", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	userID := s.session.UserID()
	var failed []mirrorOp
	for _, op := range pending {
		if op.UserID != userID {
			continue
		}
		if err := s.send(ctx, op); err != nil {
			s.recorder.MirrorFailed(string(op.Op))
			s.logger.Warn("replay pending cart write", zap.String("line_id", op.ID), zap.Error(err))
			failed = append(failed, op)
		}
	}
	if len(failed) > 0 {
		s.warn(Warning{
			Kind:    MirrorWriteFailed,
			Message: "Some cart changes are still waiting to sync.",
		})
	}
	if err := s.writePending(ctx, failed); err != nil {
		s.logger.Warn("write pending cart writes", zap.Error(err))
	}
}

func (s *Store) readPending(ctx context.Context) ([]mirrorOp, error) {
	raw, err := s.device.Get(ctx, PendingKey)
	if errors.Is(err, devicestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ops []mirrorOp
	if err := json.Unmarshal(raw, &ops); err != nil {
		s.logger.Warn("discard malformed pending cart writes", zap.Error(err))
		return nil, nil
	}
	return ops, nil
}

func (s *Store) writePending(ctx context.Context, ops []mirrorOp) error {
	if len(ops) == 0 {
		if err := s.device.Delete(ctx, PendingKey); err != nil {
			return fmt.Errorf("clear pending cart writes: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("encode pending cart writes: %w", err)
	}
	if err := s.device.Put(ctx, PendingKey, raw); err != nil {
		return fmt.Errorf("persist pending cart writes: %w", err)
	}
	return nil
}

func without(ops []mirrorOp, op mirrorOp) ([]mirrorOp, bool) {
	out := make([]mirrorOp, 0, len(ops))
	removed := false
	for _, o := range ops {
		if o.ID == op.ID && o.UserID == op.UserID {
			removed = true
			continue
		}
		out = append(out, o)
	}
	return out, removed
}
