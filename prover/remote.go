package prover

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"zk-sampler/shared"
)

// DefaultHandshakeTimeout bounds the websocket upgrade with a prover node
const DefaultHandshakeTimeout = 10 * time.Second

// RemoteHost sends input records to a prover node over a websocket. Each
// Prove call uses its own connection; failures are not retried.
type RemoteHost struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *zap.Logger
}

// NewRemoteHost creates a host for the prover node at url (ws:// or wss://).
// authToken, when set, is sent as a bearer token on the upgrade request.
func NewRemoteHost(url, authToken string, logger *zap.Logger) (*RemoteHost, error) {
	if url == "" {
		return nil, shared.NewConfigurationError("PROVER_URL", "prover node URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	header := http.Header{}
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}
	return &RemoteHost{
		url:    url,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		logger: logger,
	}, nil
}

// Name implements Host
func (h *RemoteHost) Name() string {
	return "remote"
}

// Prove implements Host. Cancelling ctx closes the connection.
func (h *RemoteHost) Prove(ctx context.Context, input []byte) (*ProofResult, error) {
	jobID := uuid.New().String()
	logger := h.logger.With(zap.String("job_id", jobID), zap.String("prover_url", h.url))

	conn, _, err := h.dialer.DialContext(ctx, h.url, h.header)
	if err != nil {
		return nil, shared.NewProverError(h.Name(), "failed to connect to prover node", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	if err := conn.WriteJSON(Message{Type: MsgProveRequest, JobID: jobID, Input: input}); err != nil {
		return nil, h.connError(ctx, "failed to send prove request", err)
	}
	logger.Debug("Prove request sent", zap.Int("input_bytes", len(input)))

	var resp Message
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, h.connError(ctx, "failed to read prove response", err)
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	switch resp.Type {
	case MsgProveResponse:
	case MsgError:
		if resp.ErrorType == shared.ErrTypeValidation || resp.ErrorType == shared.ErrTypeDecoding {
			return nil, shared.NewValidationError("input", nil, resp.Error)
		}
		return nil, shared.NewProverError(h.Name(), resp.Error, nil)
	default:
		return nil, shared.NewProverError(h.Name(), fmt.Sprintf("unexpected message type %q", resp.Type), nil)
	}
	if resp.JobID != jobID {
		return nil, shared.NewProverError(h.Name(), fmt.Sprintf("response for job %s, expected %s", resp.JobID, jobID), nil)
	}
	if resp.Bundle == nil {
		return nil, shared.NewProverError(h.Name(), "response carries no proof bundle", nil)
	}

	result, err := resp.Bundle.Result()
	if err != nil {
		return nil, shared.NewProverError(h.Name(), "malformed proof bundle", err)
	}
	result.JobID = jobID
	if _, err := VerifyProof(result, result.ProverAddress); err != nil {
		return nil, shared.NewProverError(h.Name(), "prover node returned an invalid proof", err)
	}

	logger.Info("Remote proof received", zap.String("prover", result.ProverAddress.Hex()))
	return result, nil
}

func (h *RemoteHost) connError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return shared.NewProverError(h.Name(), msg, ctxErr)
	}
	return shared.NewProverError(h.Name(), msg, err)
}
