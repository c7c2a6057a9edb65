package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/spf13/cast"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopyrpc"
)

// Routes returns the gateway's HTTP handler.
func (g *Gateway) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /v1/fapar", g.instrument("fapar", g.HandleFapar))
	mux.Handle("GET /v1/transpiration", g.instrument("transpiration", g.HandleTranspiration))
	mux.Handle("GET /v1/estimate", g.instrument("estimate", g.HandleEstimate))
	mux.HandleFunc("GET /healthz", g.HandleHealth)
	if g.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (g *Gateway) HandleFapar(w http.ResponseWriter, r *http.Request) {
	req, err := g.faparRequest(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, err)
		return
	}
	res, err := g.estim.Fapar(r.Context(), req)
	if err != nil {
		g.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFaparResponse(res, req.BandRule))
}

func (g *Gateway) HandleTranspiration(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params{q: q}
	req := canopyrpc.TranspirationRequest{
		Input: canopy.TranspirationInput{
			Fpar: p.float("fpar"),
			Rs:   p.float("rs"),
			Td:   p.float("td"),
			VPD:  p.float("vpd"),
			Lat:  p.float("lat"),
			DOY:  p.int("doy"),
		},
		Strict: g.strict(q),
	}
	if p.err != nil {
		writeJSON(w, http.StatusBadRequest, p.err)
		return
	}
	res, err := g.estim.Transpiration(r.Context(), req)
	if err != nil {
		g.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTranspirationResponse(res))
}

// HandleEstimate chains the two models: the fAPAR returned by the first call
// is the fPAR of the second.
func (g *Gateway) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	freq, err := g.faparRequest(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, err)
		return
	}
	p := params{q: q}
	rs, td, vpd := p.float("rs"), p.float("td"), p.float("vpd")
	if p.err != nil {
		writeJSON(w, http.StatusBadRequest, p.err)
		return
	}

	fres, err := g.estim.Fapar(r.Context(), freq)
	if err != nil {
		g.upstreamError(w, r, err)
		return
	}
	treq := canopyrpc.TranspirationRequest{
		Input: canopy.TranspirationInput{
			Fpar: fres.Fapar, Rs: rs, Td: td, VPD: vpd,
			Lat: freq.Input.Lat, DOY: freq.Input.DOY,
		},
		Strict: freq.Strict,
	}
	tres, err := g.estim.Transpiration(r.Context(), treq)
	if err != nil {
		g.upstreamError(w, r, err)
		return
	}

	out := EstimateResponse{
		Fapar:         newFaparResponse(fres, freq.BandRule),
		Transpiration: newTranspirationResponse(tres),
	}
	out.Finite = out.Fapar.Finite && out.Transpiration.Finite
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	st := g.estim.State()
	body := map[string]string{"status": "ok", "estimator_breaker": st.String()}
	if st == gobreaker.StateOpen {
		body["status"] = "degraded"
	}
	writeJSON(w, http.StatusOK, body)
}

func (g *Gateway) faparRequest(q url.Values) (canopyrpc.FaparRequest, error) {
	p := params{q: q}
	req := canopyrpc.FaparRequest{
		Input: canopy.InterceptionInput{
			LAD: p.float("lad"),
			Vc:  p.float("vc"),
			Pd:  p.float("pd"),
			DOY: p.int("doy"),
			Lat: p.float("lat"),
		},
		BandRule: g.cfg.BandRule,
		Strict:   g.strict(q),
	}
	if p.err != nil {
		return req, p.err
	}
	if b := q.Get("bands"); b != "" {
		rule, err := canopy.ParseBandRule(b)
		if err != nil {
			return req, &paramError{Param: "bands", Err: err}
		}
		req.BandRule = rule
	}
	return req, nil
}

func (g *Gateway) strict(q url.Values) bool {
	if v := q.Get("strict"); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return g.cfg.Strict
}

// ---------- errori ----------

func (g *Gateway) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusBadGateway
	switch {
	case breakerOpen(err):
		code = http.StatusServiceUnavailable
	case status.Code(err) == codes.InvalidArgument:
		// input fuori dominio: il messaggio arriva da canopy.DomainError
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: status.Convert(err).Message()})
		return
	case status.Code(err) == codes.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	g.log.WithFields(logrus.Fields{"path": r.URL.Path, "code": code}).WithError(err).Warn("estimator call failed")
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

type paramError struct {
	Param string
	Err   error
}

func (e *paramError) Error() string { return fmt.Sprintf("parameter %s: %v", e.Param, e.Err) }
func (e *paramError) Unwrap() error { return e.Err }

// params reads required numeric query parameters, keeping the first error.
type params struct {
	q   url.Values
	err *paramError
}

func (p *params) raw(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := p.q.Get(key)
	if v == "" {
		p.err = &paramError{Param: key, Err: errors.New("missing")}
		return "", false
	}
	return v, true
}

func (p *params) float(key string) float64 {
	v, ok := p.raw(key)
	if !ok {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		p.err = &paramError{Param: key, Err: err}
	}
	return f
}

func (p *params) int(key string) int {
	v, ok := p.raw(key)
	if !ok {
		return 0
	}
	// decimale: "032" è il giorno 32, non ottale
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.err = &paramError{Param: key, Err: err}
	}
	return n
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, code int, v any) {
	if pe, ok := v.(*paramError); ok {
		v = ErrorResponse{Error: pe.Error(), Param: pe.Param}
	} else if err, ok := v.(error); ok {
		v = ErrorResponse{Error: err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (g *Gateway) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		g.metrics.Requests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		g.metrics.Latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		g.log.WithFields(logrus.Fields{
			"route": route, "code": rec.code, "ms": time.Since(start).Milliseconds(),
			"breaker": g.estim.State().String(),
		}).Debug("request")
	})
}
