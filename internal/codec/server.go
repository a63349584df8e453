package codec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/bolt/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/logging"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
)

// #region server
// Server answers Evaluate calls with one shared gate. When db is non-nil
// every decision is written to provenance_log.
type Server struct {
	gate   *gate.Gate
	db     *sql.DB
	logger *bolt.Logger
}

var _ AdmissibilityServer = (*Server)(nil)

// NewServer creates a gRPC service implementation. db and logger may be nil.
func NewServer(g *gate.Gate, db *sql.DB, logger *bolt.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{gate: g, db: db, logger: logger}
}

// Evaluate runs one record through the pipeline. Malformed records are a
// normal ABSTAIN response, not an RPC error.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rec, err := recordFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ev := pipeline.Evaluate(rec, s.gate)
	out := logging.NewEvaluationRecord("", ev, s.gate.Config())

	if s.db != nil {
		if err := logging.LogEvaluation(s.db, "", "grpc", out); err != nil {
			s.logger.Error().Err(err).Msg("provenance write failed")
		}
	}
	s.logger.Debug().Str("posture", out.Posture).Str("reason", out.Reason).Msg("grpc evaluate")

	resp, err := toStruct(out)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// #endregion server

// #region conversion
func recordFromStruct(req *structpb.Struct) (canon.Record, error) {
	var rec canon.Record
	for key, dst := range map[string]*string{"r": &rec.R, "c": &rec.C, "p": &rec.P} {
		v, ok := req.GetFields()[key]
		if !ok {
			continue
		}
		sv, isString := v.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return canon.Record{}, fmt.Errorf("field %q must be a string", key)
		}
		*dst = sv.StringValue
	}
	return rec, nil
}

func toStruct(rec logging.EvaluationRecord) (*structpb.Struct, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal evaluation: %w", err)
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct) (logging.EvaluationRecord, error) {
	var rec logging.EvaluationRecord
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return rec, fmt.Errorf("marshal response: %w", err)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode response: %w", err)
	}
	return rec, nil
}

// #endregion conversion
