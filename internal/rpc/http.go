package rpc

import (
	"encoding/json"
	"net/http"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
	"github.com/xtding233/pokeslots-stats/internal/metrics"
)

type winResp struct {
	Tier string `json:"tier"`
	Name string `json:"name"`
}

type rollResp struct {
	Rolls [][]winResp `json:"rolls,omitempty"`
	Err   string      `json:"err,omitempty"`
}

type simulateResp struct {
	Result map[string]any `json:"result,omitempty"`
	Err    string         `json:"err,omitempty"`
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return int(v), true, ""
}

func parseBool(r *http.Request, key string) (bool, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return false, false, ""
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false, "invalid " + key
	}
	return v, true, ""
}

func parseUint(r *http.Request, key string) (uint64, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// httpCode maps domain errors the same way toStatus does.
func httpCode(err error) int {
	switch status.Code(toStatus(err)) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func toWins(outcomes []gacha.Outcome) [][]winResp {
	out := make([][]winResp, len(outcomes))
	for i, o := range outcomes {
		out[i] = make([]winResp, len(o))
		for j, w := range o {
			out[i][j] = winResp{Tier: w.Tier.Key(), Name: w.Name}
		}
	}
	return out
}

// HTTPHandler serves the JSON endpoints and /metrics:
//
//	GET /roll?count=N
//	GET /ten_roll
//	GET /simulate?cases=&rolls=&autorelease=&seed=&scenario=
func HTTPHandler(e *Engine) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/roll", func(w http.ResponseWriter, r *http.Request) {
		n, ok, msg := parseInt(r, "count")
		if msg != "" {
			writeJSON(w, http.StatusBadRequest, rollResp{Err: msg})
			return
		}
		if !ok {
			n = 1
		}
		handleRoll(w, e, n)
	})
	mux.HandleFunc("/ten_roll", func(w http.ResponseWriter, r *http.Request) {
		handleRoll(w, e, 10)
	})
	mux.HandleFunc("/simulate", func(w http.ResponseWriter, r *http.Request) {
		req := SimulateRequest{Scenario: r.URL.Query().Get("scenario")}
		cases, ok, msg := parseInt(r, "cases")
		if ok {
			req.Overrides.Cases = &cases
		}
		rolls, ok, msg2 := parseInt(r, "rolls")
		if ok {
			req.Overrides.Rolls = &rolls
		}
		autorelease, ok, msg3 := parseBool(r, "autorelease")
		if ok {
			req.Overrides.Autorelease = &autorelease
		}
		seed, ok, msg4 := parseUint(r, "seed")
		if ok {
			req.Overrides.Seed = &seed
		}
		for _, m := range []string{msg, msg2, msg3, msg4} {
			if m != "" {
				writeJSON(w, http.StatusBadRequest, simulateResp{Err: m})
				return
			}
		}
		res, err := e.Simulate(r.Context(), req)
		if err != nil {
			writeJSON(w, httpCode(err), simulateResp{Err: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, simulateResp{Result: simulateResultMap(res)})
	})
	return mux
}

func handleRoll(w http.ResponseWriter, e *Engine, n int) {
	outcomes, err := e.Roll(n)
	if err != nil {
		writeJSON(w, httpCode(err), rollResp{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rollResp{Rolls: toWins(outcomes)})
}
