package estimator

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopyrpc"
)

// GrpcHandler implementa CanopyService sulle formule di pkg/canopy.
type GrpcHandler struct {
	canopyrpc.UnimplementedCanopyServiceServer

	log     *logrus.Entry
	metrics *Metrics
}

// Verifica a compile-time
var _ canopyrpc.CanopyServiceServer = (*GrpcHandler)(nil)

func NewGrpcHandler(log *logrus.Entry, m *Metrics) *GrpcHandler {
	if log == nil {
		log = logrus.WithField("service", "estimator")
	}
	return &GrpcHandler{log: log.WithField("api", "grpc"), metrics: m}
}

// ============== RPC: ComputeFapar ==============

func (h *GrpcHandler) ComputeFapar(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := canopyrpc.DecodeFaparRequest(in)
	if err != nil {
		return nil, h.fail("ComputeFapar", status.Error(codes.InvalidArgument, err.Error()))
	}

	var r canopy.Interception
	if req.Strict {
		if r, err = canopy.SafeFapar(req.Input, req.BandRule); err != nil {
			return nil, h.fail("ComputeFapar", domainStatus(err))
		}
	} else {
		r = canopy.ComputeFaparWith(req.Input, req.BandRule)
	}

	h.ok("ComputeFapar")
	h.log.WithFields(logrus.Fields{"doy": req.Input.DOY, "band": r.Band.String(), "fapar": r.Fapar}).Debug("fapar computed")
	return canopyrpc.EncodeInterception(r), nil
}

// ============== RPC: ComputeTranspiration ==============

func (h *GrpcHandler) ComputeTranspiration(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := canopyrpc.DecodeTranspirationRequest(in)
	if err != nil {
		return nil, h.fail("ComputeTranspiration", status.Error(codes.InvalidArgument, err.Error()))
	}

	var t canopy.Transpiration
	if req.Strict {
		if t, err = canopy.SafeTranspiration(req.Input); err != nil {
			return nil, h.fail("ComputeTranspiration", domainStatus(err))
		}
	} else {
		t = canopy.EvaluateTranspiration(req.Input)
	}

	h.ok("ComputeTranspiration")
	h.log.WithFields(logrus.Fields{"doy": req.Input.DOY, "transpiration_mm": t.MM}).Debug("transpiration computed")
	return canopyrpc.EncodeTranspiration(t), nil
}

// domainStatus maps validation failures to InvalidArgument.
func domainStatus(err error) error {
	var de *canopy.DomainError
	if errors.As(err, &de) {
		return status.Error(codes.InvalidArgument, de.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func (h *GrpcHandler) ok(method string) {
	if h.metrics != nil {
		h.metrics.RPCs.WithLabelValues(method, codes.OK.String()).Inc()
	}
}

func (h *GrpcHandler) fail(method string, err error) error {
	if h.metrics != nil {
		h.metrics.RPCs.WithLabelValues(method, status.Code(err).String()).Inc()
	}
	h.log.WithField("method", method).WithError(err).Info("request rejected")
	return err
}
