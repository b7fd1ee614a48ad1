package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"where-money-moves/internal/catalog"
	"where-money-moves/internal/domain"
)

const maxBodyBytes = 1 << 16

type editionsResponse struct {
	Editions []domain.EditionRecord `json:"editions"`
	Fallback bool                   `json:"fallback"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleEditions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, editionsResponse{
		Editions: nonNil(s.opts.Catalog.Editions()),
		Fallback: s.opts.Catalog.IsFallback(),
	})
}

func (s *Server) handleAvailableEditions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, editionsResponse{
		Editions: nonNil(s.opts.Catalog.Available()),
		Fallback: s.opts.Catalog.IsFallback(),
	})
}

func (s *Server) handleEdition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, badRequest{msg: "edition id must be an integer"})
		return
	}
	e, err := s.opts.Catalog.Edition(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

// handleProgress summarizes ?owned=1,2,3.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var ids []int
	for _, part := range strings.Split(r.URL.Query().Get("owned"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			s.writeError(w, badRequest{msg: fmt.Sprintf("owned id %q is not an integer", part)})
			return
		}
		ids = append(ids, id)
	}
	s.writeJSON(w, http.StatusOK, catalog.ProgressFor(ids))
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	var account *common.Address
	if raw := r.URL.Query().Get("account"); raw != "" {
		if !common.IsHexAddress(raw) {
			s.writeError(w, badRequest{msg: "account is not a hex address"})
			return
		}
		a := common.HexToAddress(raw)
		account = &a
	} else if sess := s.opts.Wallet.Session(); sess.IsConnected() {
		account = sess.Account
	}

	view, err := s.opts.Supply.Supply(r.Context(), account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

type snapshotResponse struct {
	TimestampMs int64  `json:"timestamp_ms"`
	BlockNumber uint64 `json:"block_number"`
	TotalMinted uint64 `json:"total_minted"`
	MaxSupply   uint64 `json:"max_supply"`
}

// handleSupplyHistory serves ?from=&to= (unix ms). Defaults to the last 24h.
func (s *Server) handleSupplyHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.Snapshots == nil {
		s.writeJSON(w, http.StatusOK, []snapshotResponse{})
		return
	}

	now := time.Now().UnixMilli()
	to, err := queryInt64(r, "to", now)
	if err != nil {
		s.writeError(w, err)
		return
	}
	from, err := queryInt64(r, "from", to-int64(24*time.Hour/time.Millisecond))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if from > to {
		s.writeError(w, badRequest{msg: "from must not be after to"})
		return
	}

	snaps, err := s.opts.Snapshots.GetByTimeRange(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]snapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotResponse{
			TimestampMs: snap.TimestampMs,
			BlockNumber: snap.BlockNumber,
			TotalMinted: snap.TotalMinted,
			MaxSupply:   snap.MaxSupply,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWallet(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.opts.Wallet.Session())
}

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	sess, err := s.opts.Wallet.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// handleWalletDisconnect also dismisses any open mint dialog.
func (s *Server) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Wallet.Disconnect(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.opts.Mint.Close()
	s.writeJSON(w, http.StatusOK, s.opts.Wallet.Session())
}

func (s *Server) handleNetwork(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.opts.Guard.Status())
}

func (s *Server) handleNetworkSwitch(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Guard.SwitchToTargetNetwork(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.opts.Guard.Status())
}

func (s *Server) handleMintStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.opts.Mint.Status())
}

type mintRequest struct {
	Quantity int `json:"quantity"`
}

// handleMint starts an attempt. A started attempt continues in the
// background; follow it with GET /mint or the /ws stream.
func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, badRequest{msg: fmt.Sprintf("decode mint request: %v", err)})
		return
	}

	attempt, err := s.opts.Mint.Mint(r.Context(), domain.MintRequest{Quantity: req.Quantity})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, attempt)
}

func (s *Server) handleMintQuote(w http.ResponseWriter, r *http.Request) {
	q, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		s.writeError(w, badRequest{msg: "quantity must be an integer"})
		return
	}
	quote, err := s.opts.Mint.Quote(q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleMintOpen(w http.ResponseWriter, _ *http.Request) {
	if err := s.opts.Mint.Open(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.opts.Mint.Status())
}

func (s *Server) handleMintCancel(w http.ResponseWriter, _ *http.Request) {
	if err := s.opts.Mint.Cancel(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.opts.Mint.Status())
}

func (s *Server) handleMintClose(w http.ResponseWriter, _ *http.Request) {
	s.opts.Mint.Close()
	s.writeJSON(w, http.StatusOK, s.opts.Mint.Status())
}

type eventResponse struct {
	AttemptID string           `json:"attempt_id"`
	Seq       int              `json:"seq"`
	Account   string           `json:"account,omitempty"`
	State     domain.MintState `json:"state"`
	Quantity  int              `json:"quantity"`
	TxHash    *string          `json:"tx_hash,omitempty"`
	Message   string           `json:"message,omitempty"`
	CreatedAt int64            `json:"created_at"`
}

func toEventResponses(events []*domain.AttemptEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			AttemptID: e.AttemptID,
			Seq:       e.Seq,
			Account:   e.Account,
			State:     e.State,
			Quantity:  e.Quantity,
			TxHash:    e.TxHash,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func (s *Server) handleAttemptEvents(w http.ResponseWriter, r *http.Request) {
	if s.opts.Events == nil {
		s.writeJSON(w, http.StatusOK, []eventResponse{})
		return
	}
	events, err := s.opts.Events.GetByAttemptID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toEventResponses(events))
}

func (s *Server) handleAccountEvents(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		s.writeError(w, badRequest{msg: "address is not a hex address"})
		return
	}
	if s.opts.Events == nil {
		s.writeJSON(w, http.StatusOK, []eventResponse{})
		return
	}
	events, err := s.opts.Events.GetByAccount(r.Context(), common.HexToAddress(raw).Hex())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toEventResponses(events))
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	if s.opts.History == nil {
		s.writeJSON(w, http.StatusOK, []domain.Notification{})
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(s.opts.History.All()))
}

func queryInt64(r *http.Request, key string, def int64) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest{msg: fmt.Sprintf("%s must be unix milliseconds", key)}
	}
	return v, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
