package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"where-money-moves/internal/catalog"
	"where-money-moves/internal/contract"
	"where-money-moves/internal/evm"
	"where-money-moves/internal/mint"
	"where-money-moves/internal/network"
	"where-money-moves/internal/storage"
	"where-money-moves/internal/wallet"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Printf("ERROR: %v", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// badRequest is an error caused by the request itself.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

// statusFor maps package sentinels to HTTP status codes.
func statusFor(err error) int {
	var (
		br         badRequest
		transition *mint.TransitionError
		rpcErr     *evm.RPCError
		provider   *contract.ProviderError
	)

	switch {
	case errors.As(err, &br),
		errors.Is(err, mint.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, mint.ErrNotConnected),
		errors.Is(err, network.ErrNotConnected),
		errors.Is(err, wallet.ErrNotConnected),
		errors.Is(err, contract.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, mint.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrUnknownEdition),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mint.ErrAttemptInFlight),
		errors.Is(err, mint.ErrWrongNetwork),
		errors.Is(err, mint.ErrSwitchRejected),
		errors.Is(err, mint.ErrSuperseded),
		errors.Is(err, network.ErrSwitchRejected),
		errors.As(err, &transition):
		return http.StatusConflict
	case errors.Is(err, mint.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &provider),
		errors.As(err, &rpcErr),
		errors.Is(err, wallet.ErrNoAccounts),
		errors.Is(err, wallet.ErrUnknownChain):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
