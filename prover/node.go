package prover

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"zk-sampler/shared"
)

var nodeUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // prover nodes sit behind the API, not browsers
	},
}

// NodeHandler serves prove requests over a websocket. Requests on one
// connection are proved concurrently; replies are matched by job ID.
type NodeHandler struct {
	host         Host
	logger       *shared.Logger
	proveTimeout time.Duration
}

// NewNodeHandler serves host. proveTimeout <= 0 disables the per-job bound.
func NewNodeHandler(host Host, logger *shared.Logger, proveTimeout time.Duration) *NodeHandler {
	return &NodeHandler{host: host, logger: logger, proveTimeout: proveTimeout}
}

// ServeHTTP upgrades the connection and runs the message loop
func (n *NodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := nodeUpgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Error("Failed to upgrade prover websocket",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}
	defer conn.Close()

	logger := n.logger.WithConnection(r.RemoteAddr)
	logger.Debug("Prover connection established")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	send := func(msg Message) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil && !isNetworkShutdownError(err) {
			logger.Error("Failed to send message", zap.String("type", msg.Type), zap.Error(err))
		}
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || isNetworkShutdownError(err) {
				logger.Debug("Prover connection closed", zap.Error(err))
			} else {
				logger.Warn("Prover connection read failed", zap.Error(err))
			}
			break
		}

		if msg.Type != MsgProveRequest {
			send(ErrorMessage(msg.JobID, shared.NewValidationError("type", msg.Type, "unsupported message type")))
			continue
		}

		wg.Add(1)
		go func(req Message) {
			defer wg.Done()
			send(n.prove(ctx, req, logger))
		}(msg)
	}

	cancel()
	wg.Wait()
}

func (n *NodeHandler) prove(ctx context.Context, req Message, logger *zap.Logger) Message {
	logger = logger.With(zap.String("job_id", req.JobID))
	if n.proveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.proveTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := n.host.Prove(ctx, req.Input)
	if err != nil {
		logger.Warn("Prove request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return ErrorMessage(req.JobID, err)
	}

	bundle := result.Bundle()
	bundle.JobID = req.JobID
	logger.Info("Prove request served", zap.Duration("elapsed", time.Since(start)))
	return Message{Type: MsgProveResponse, JobID: req.JobID, Bundle: &bundle}
}

func isNetworkShutdownError(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection reset by peer")
}
