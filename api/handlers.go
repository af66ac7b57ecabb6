package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"zk-sampler/attestation"
	"zk-sampler/dsp"
	"zk-sampler/prover"
	"zk-sampler/shared"
	"zk-sampler/wavio"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// handleProve proves a multipart upload: audio, transformations and an
// optional signature_data field.
func (a *API) handleProve(w http.ResponseWriter, r *http.Request) {
	in, err := a.parseUpload(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.prove(w, r, in)
}

// handleProveLocal proves the configured sample files
func (a *API) handleProveLocal(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)
	logger.Info("Running /prove-local with configured fixtures",
		zap.String("wav", a.config.SampleWAV),
		zap.String("transforms", a.config.TransformJSON))

	in, err := a.loadFixtures()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.prove(w, r, in)
}

// handlePreview runs the same transform-and-commit core without proving and
// returns the transformed audio.
func (a *API) handlePreview(w http.ResponseWriter, r *http.Request) {
	in, err := a.parseUpload(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out, err := a.program.Execute(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	audio, err := wavio.EncodeBytes(out.Transformed)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	view := out.Record.Hex()
	writeJSON(w, http.StatusOK, PreviewResponse{
		Success:              true,
		Message:              "Preview generated successfully",
		OriginalAudioHash:    view.OriginalAudioHash,
		TransformedAudioHash: view.TransformedAudioHash,
		SignerPublicKey:      view.SignerPublicKey,
		HasSignature:         view.HasSignature,
		PublicValues:         shared.EncodeHex(out.PublicValues),
		SampleRate:           out.Transformed.SampleRate,
		SampleCount:          len(out.Transformed.Samples),
		TransformedAudio:     audio,
	})
}

// handleVerify checks a proof bundle and decodes its public record
func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyResponse{Message: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	result, err := req.Bundle.Result()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyResponse{Message: err.Error()})
		return
	}
	var expected common.Address
	if req.ExpectedProver != "" {
		if !common.IsHexAddress(req.ExpectedProver) {
			writeJSON(w, http.StatusBadRequest, VerifyResponse{Message: "expected_prover is not a hex address"})
			return
		}
		expected = common.HexToAddress(req.ExpectedProver)
	}

	view := result.Record.Hex()
	signer, err := prover.VerifyProof(result, expected)
	if err != nil {
		writeJSON(w, http.StatusOK, VerifyResponse{Valid: false, Message: err.Error(), Record: &view})
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{
		Valid:         true,
		Message:       "Proof verified",
		ProverAddress: signer.Hex(),
		Record:        &view,
	})
}

func (a *API) prove(w http.ResponseWriter, r *http.Request, in *shared.InputRecord) {
	logger := requestLogger(r)
	if err := dsp.ValidateTransforms(in.Transforms); err != nil {
		a.writeError(w, r, err)
		return
	}
	raw, err := shared.MarshalInputRecord(in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if a.config.ProveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.ProveTimeout)
		defer cancel()
	}

	logger.Info("Proving",
		zap.String("host", a.host.Name()),
		zap.Int("samples", len(in.Samples)),
		zap.Uint32("sample_rate", in.SampleRate),
		zap.Stringer("transforms", in.Transforms),
		zap.Bool("attested", in.Attestation != nil))

	result, err := a.host.Prove(ctx, raw)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proofSuccess(result))
}

func (a *API) parseUpload(w http.ResponseWriter, r *http.Request) (*shared.InputRecord, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.config.MaxUploadBytes); err != nil {
		return nil, shared.WrapValidationError("body", nil, "expected a multipart form", err)
	}

	var (
		in       shared.InputRecord
		haveWAV  bool
		haveList bool
	)
	logger := requestLogger(r)
	for name := range r.MultipartForm.File {
		if name != "audio" {
			logger.Warn("Unexpected file field", zap.String("field", name))
		}
	}
	for name := range r.MultipartForm.Value {
		if name != "transformations" && name != "signature_data" && name != "audio" {
			logger.Warn("Unexpected field", zap.String("field", name))
		}
	}

	if files := r.MultipartForm.File["audio"]; len(files) > 0 {
		buf, err := decodeUploadedWAV(files[0])
		if err != nil {
			return nil, err
		}
		in.Samples, in.SampleRate = buf.Samples, buf.SampleRate
		haveWAV = true
	}

	if list := r.MultipartForm.Value["transformations"]; len(list) > 0 {
		ops, err := shared.ParseTransformList([]byte(list[0]))
		if err != nil {
			return nil, err
		}
		in.Transforms = ops
		haveList = true
	}

	if !haveWAV || !haveList {
		return nil, shared.NewValidationError("body", nil, "missing required fields: `audio` and `transformations`")
	}

	if sig := r.MultipartForm.Value["signature_data"]; len(sig) > 0 && strings.TrimSpace(sig[0]) != "" {
		att, err := shared.ParseSignatureData([]byte(sig[0]))
		if err != nil {
			return nil, err
		}
		in.Attestation = att
	}
	return &in, nil
}

func decodeUploadedWAV(fh *multipart.FileHeader) (shared.SampleBuffer, error) {
	f, err := fh.Open()
	if err != nil {
		return shared.SampleBuffer{}, shared.WrapValidationError("audio", fh.Filename, "unreadable upload", err)
	}
	defer f.Close()
	buf, err := wavio.Decode(f)
	if err != nil {
		if shared.IsValidationError(err) {
			return shared.SampleBuffer{}, err
		}
		return shared.SampleBuffer{}, shared.WrapValidationError("audio", fh.Filename, "not a readable WAV file", err)
	}
	return buf, nil
}

func (a *API) loadFixtures() (*shared.InputRecord, error) {
	buf, err := wavio.ReadFile(a.config.SampleWAV)
	if err != nil {
		return nil, shared.WrapValidationError("SAMPLE_WAV", a.config.SampleWAV, "cannot load sample audio", err)
	}
	raw, err := os.ReadFile(a.config.TransformJSON)
	if err != nil {
		return nil, shared.WrapValidationError("TRANSFORM_JSON", a.config.TransformJSON, "cannot load transformations", err)
	}
	ops, err := shared.ParseTransformList(raw)
	if err != nil {
		return nil, err
	}

	in := &shared.InputRecord{Samples: buf.Samples, SampleRate: buf.SampleRate, Transforms: ops}

	// signature and key files are optional; both must be present and non-empty
	sig, err := readOptionalFixture("SAMPLE_SIG", a.config.SampleSig)
	if err != nil {
		return nil, err
	}
	pub, err := readOptionalFixture("SAMPLE_PUB", a.config.SamplePub)
	if err != nil {
		return nil, err
	}
	if sig != "" && pub != "" {
		att, err := attestation.ParseHexAttestation(sig, pub)
		if err != nil {
			return nil, err
		}
		in.Attestation = att
	}
	return in, nil
}

// readOptionalFixture returns the trimmed file contents, or "" when the file
// does not exist.
func readOptionalFixture(field, path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", shared.NewConfigurationError(field, fmt.Sprintf("cannot read %s: %v", path, err))
	}
	return strings.TrimSpace(string(data)), nil
}

// writeError maps the error taxonomy onto HTTP: validation 400, prover 502,
// timeouts 504, everything else 500.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := requestLogger(r)

	var ve *shared.ValidationError
	var de *shared.DecodingError
	var pe *shared.ProverError
	switch {
	case errors.As(err, &ve):
		logger.Info("Rejected invalid request", zap.String("field", ve.Field), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, proofFailure(ve.Message, shared.ErrTypeValidation, ve.Field))
	case errors.As(err, &de):
		logger.Info("Rejected undecodable request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, proofFailure(de.Message, shared.ErrTypeDecoding, ""))
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Prover timed out", zap.Error(err))
		writeJSON(w, http.StatusGatewayTimeout, proofFailure("Prover failed: timed out", shared.ErrTypeProver, ""))
	case errors.As(err, &pe):
		logger.Error("Prover failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, proofFailure(fmt.Sprintf("Prover failed: %v", err), shared.ErrTypeProver, ""))
	default:
		logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, proofFailure(err.Error(), "", ""))
	}
}
