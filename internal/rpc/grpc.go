package rpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
	"github.com/xtding233/pokeslots-stats/internal/logger"
	"github.com/xtding233/pokeslots-stats/internal/metrics"
	"github.com/xtding233/pokeslots-stats/internal/results"
	"github.com/xtding233/pokeslots-stats/internal/scenario"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "pokeslots.v1.SlotsService"

const (
	rollMethod     = "/" + ServiceName + "/Roll"
	simulateMethod = "/" + ServiceName + "/Simulate"
)

// SlotsServer is the server API. Messages are google.protobuf.Struct so the
// service needs no generated code.
type SlotsServer interface {
	Roll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Simulate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SlotsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Roll", Handler: rollHandler},
		{MethodName: "Simulate", Handler: simulateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pokeslots/v1/slots.proto",
}

func rollHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SlotsServer).Roll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rollMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SlotsServer).Roll(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func simulateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SlotsServer).Simulate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: simulateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SlotsServer).Simulate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Register attaches the slots service and a health service to s.
func Register(s *grpc.Server, e *Engine) *health.Server {
	s.RegisterService(&serviceDesc, &slotsServer{engine: e})
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return hs
}

// NewServer builds a grpc.Server with the metrics and logging interceptor.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(observe))
	return grpc.NewServer(opts...)
}

// observe records every unary call in metrics and the log.
func observe(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	d := time.Since(start)
	code := status.Code(err)
	metrics.RecordRPC(methodName(info.FullMethod), code.String(), d)
	entry := logger.WithFields(logger.Fields{"method": info.FullMethod, "code": code.String(), "duration": d})
	if err != nil {
		entry.WithError(err).Warn("rpc failed")
	} else {
		entry.Debug("rpc done")
	}
	return resp, err
}

func methodName(full string) string {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '/' {
			return full[i+1:]
		}
	}
	return full
}

type slotsServer struct {
	engine *Engine
}

// Roll expects {"count": n}; count defaults to 1.
func (s *slotsServer) Roll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n, _, err := intField(in, "count")
	if err != nil {
		return nil, toStatus(err)
	}
	if n == 0 {
		n = 1
	}
	outcomes, err := s.engine.Roll(n)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"outcomes": outcomesValue(outcomes)})
}

// Simulate expects optional "scenario", "cases", "rolls", "autorelease" and
// "seed" (number or decimal string) fields.
func (s *slotsServer) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := simulateRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := s.engine.Simulate(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(simulateResultMap(res))
}

func simulateRequest(in *structpb.Struct) (SimulateRequest, error) {
	var req SimulateRequest
	fields := in.GetFields()
	if v, ok := fields["scenario"]; ok {
		req.Scenario = v.GetStringValue()
	}
	if n, ok, err := intField(in, "cases"); err != nil {
		return req, err
	} else if ok {
		req.Overrides.Cases = &n
	}
	if n, ok, err := intField(in, "rolls"); err != nil {
		return req, err
	} else if ok {
		req.Overrides.Rolls = &n
	}
	if v, ok := fields["autorelease"]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return req, fmt.Errorf("%w: autorelease must be a bool", ErrBadRequest)
		}
		req.Overrides.Autorelease = &b.BoolValue
	}
	if v, ok := fields["seed"]; ok {
		seed, err := seedValue(v)
		if err != nil {
			return req, err
		}
		req.Overrides.Seed = &seed
	}
	return req, nil
}

func intField(in *structpb.Struct, key string) (int, bool, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, false, nil
	}
	f, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || f.NumberValue != math.Trunc(f.NumberValue) || math.Abs(f.NumberValue) > math.MaxInt32 {
		return 0, false, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, key)
	}
	return int(f.NumberValue), true, nil
}

func seedValue(v *structpb.Value) (uint64, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f < 0 || f != math.Trunc(f) || f >= 1<<53 {
			return 0, fmt.Errorf("%w: seed must be a non-negative integer below 2^53, or a string", ErrBadRequest)
		}
		return uint64(f), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseUint(k.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: seed: %v", ErrBadRequest, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: seed must be a number or string", ErrBadRequest)
	}
}

func outcomesValue(outcomes []gacha.Outcome) []any {
	out := make([]any, len(outcomes))
	for i, o := range outcomes {
		wins := make([]any, len(o))
		for j, w := range o {
			wins[j] = map[string]any{"tier": w.Tier.Key(), "name": w.Name}
		}
		out[i] = map[string]any{"wins": wins}
	}
	return out
}

func simulateResultMap(res *SimulateResult) map[string]any {
	probs := make(map[string]any, gacha.NumTiers)
	for _, t := range gacha.Tiers {
		probs[t.Key()] = res.Probabilities[t]
	}
	m := map[string]any{
		"scenario":               res.Run.Name,
		"cases":                  res.Run.Cases,
		"rolls":                  res.Run.Rolls,
		"autorelease":            res.Run.Autorelease,
		"seed":                   strconv.FormatUint(res.Run.Seed, 10),
		"probabilities":          probs,
		"final_unique_mean":      res.Summary.FinalUnique.Mean,
		"draws_mean":             res.Summary.Draws.Mean,
		"completed_cases":        res.Summary.CompletedCases,
		"rolls_to_complete_mean": res.Summary.RollsToComplete.Mean,
	}
	if res.RunID != "" {
		m["run_id"] = res.RunID
	}
	return m
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBadRequest), errors.Is(err, gacha.ErrInvalidProb), errors.Is(err, scenario.ErrInvalidName):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, gacha.ErrConfiguration), errors.Is(err, ErrScenarioDisabled):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, os.ErrNotExist), errors.Is(err, results.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Client calls a remote SlotsService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Roll asks the server for count rolls and decodes the outcomes.
func (c *Client) Roll(ctx context.Context, count int) ([]gacha.Outcome, error) {
	in, err := structpb.NewStruct(map[string]any{"count": count})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, rollMethod, in, out); err != nil {
		return nil, err
	}
	return decodeOutcomes(out)
}

// Simulate runs a remote simulation; the raw response fields are returned.
func (c *Client) Simulate(ctx context.Context, req SimulateRequest) (map[string]any, error) {
	m := map[string]any{}
	if req.Scenario != "" {
		m["scenario"] = req.Scenario
	}
	o := req.Overrides
	if o.Cases != nil {
		m["cases"] = *o.Cases
	}
	if o.Rolls != nil {
		m["rolls"] = *o.Rolls
	}
	if o.Autorelease != nil {
		m["autorelease"] = *o.Autorelease
	}
	if o.Seed != nil {
		m["seed"] = strconv.FormatUint(*o.Seed, 10)
	}
	in, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, simulateMethod, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func decodeOutcomes(s *structpb.Struct) ([]gacha.Outcome, error) {
	list := s.GetFields()["outcomes"].GetListValue().GetValues()
	out := make([]gacha.Outcome, 0, len(list))
	for _, v := range list {
		var o gacha.Outcome
		for _, w := range v.GetStructValue().GetFields()["wins"].GetListValue().GetValues() {
			f := w.GetStructValue().GetFields()
			t, ok := gacha.TierFromKey(f["tier"].GetStringValue())
			if !ok {
				return nil, fmt.Errorf("unknown tier %q in response", f["tier"].GetStringValue())
			}
			o = append(o, gacha.Win{Tier: t, Name: f["name"].GetStringValue()})
		}
		out = append(out, o)
	}
	return out, nil
}

var _ SlotsServer = (*slotsServer)(nil)
