package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/godtiergamers/dlconfig/internal/webhook"
	"github.com/hashicorp/go-retryablehttp"
)

func (s *Server) relayHandler(w http.ResponseWriter, r *http.Request) {
	var req webhook.RelayRequest
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		recordRejection(r.Context(), "json")
		s.writeJSONError(w, r, http.StatusBadRequest, err, "Invalid JSON")
		return
	}
	if !webhook.IsValidURL(req.URL) {
		recordRejection(r.Context(), "url")
		s.writeJSONError(w, r, http.StatusBadRequest, fmt.Errorf("invalid webhook URL"), "Invalid webhook URL")
		return
	}
	payload := []byte(req.Payload)
	if len(payload) == 0 {
		payload = []byte("null")
	}

	if err := s.forwards.Acquire(r.Context(), 1); err != nil {
		recordRejection(r.Context(), "busy")
		s.writeJSONError(w, r, http.StatusTooManyRequests, err, "could not acquire semaphore")
		return
	}
	defer s.forwards.Release(1)

	upstreamReq, err := retryablehttp.NewRequestWithContext(r.Context(), http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		s.writeJSONError(w, r, http.StatusBadRequest, err, "Invalid webhook URL")
		return
	}
	upstreamReq.Header.Set("Content-Type", "application/json")
	res, err := s.upstream.Do(upstreamReq)
	if err != nil {
		recordForward(r.Context(), http.StatusBadGateway)
		s.writeJSONError(w, r, http.StatusBadGateway, err, "Upstream request failed")
		return
	}
	defer res.Body.Close()

	recordForward(r.Context(), res.StatusCode)
	s.requestLogger(r).Infof("forwarded webhook test, discord answered %d", res.StatusCode)

	s.setContentTypeJSON(w)
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		s.requestLogger(r).WithError(err).Warn("could not copy upstream response")
	}
}
