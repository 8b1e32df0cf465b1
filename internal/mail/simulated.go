package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/sales-automator/internal/pkg/logger"
)

// SimulatedTransport logs the message instead of sending it. Used in demo
// mode and whenever no real transport is configured.
type SimulatedTransport struct {
	log *logger.Logger
}

// NewSimulatedTransport creates the no-network transport.
func NewSimulatedTransport(log *logger.Logger) *SimulatedTransport {
	return &SimulatedTransport{log: log}
}

func (t *SimulatedTransport) Name() string { return "simulated" }

// Send never fails and never touches the network.
func (t *SimulatedTransport) Send(_ context.Context, msg *Message) (*Result, error) {
	id := fmt.Sprintf("simulated-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	t.log.Info("simulated email send", map[string]interface{}{
		"to":         msg.To,
		"subject":    msg.Subject,
		"message_id": id,
	})
	return &Result{MessageID: id, Transport: t.Name(), Simulated: true}, nil
}
