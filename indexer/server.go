package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"gapnode/attestation"
	"gapnode/crypto"
	"gapnode/messages"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

/*
Server is the development indexer. It plays the relay that accepts signed transactions and
the read side that serves them back once indexed, so a submission can be exercised end to end
without a chain.
*/
type Server struct {
	service.BaseService
	store    *Store
	addr     string
	http     *http.Server
	listener net.Listener
}

func NewServer(store *Store, addr string, logger log.Logger) *Server {
	server := &Server{store: store, addr: addr}
	server.BaseService = *service.NewBaseService(logger.With("module", "indexer"), "Indexer", server)
	server.http = &http.Server{Handler: server.Router()}
	return server
}

func (server *Server) OnStart() error {
	listener, err := net.Listen("tcp", server.addr)
	if err != nil {
		return err
	}
	server.listener = listener
	server.Logger.Info("Listening", "addr", listener.Addr().String())
	go func() {
		if err := server.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Logger.Error("Serving failed", "err", err)
		}
	}()
	return nil
}

func (server *Server) OnStop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.http.Shutdown(ctx); err != nil {
		server.Logger.Error("Shutdown failed", "err", err)
	}
}

// Addr is the bound address once started.
func (server *Server) Addr() string {
	if server.listener == nil {
		return server.addr
	}
	return server.listener.Addr().String()
}

func (server *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(server.Logger))
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/communities", server.listCommunities)
		r.Get("/communities/{communityId}/programs", server.listPrograms)
		r.Get("/projects/{projectId}/records", server.projectRecords)
		r.Post("/projects/{projectId}/tracks", server.assignTracks)
		r.Post("/transactions", server.receiveTransaction)
		r.Post("/transactions/notify", server.notifyTransaction)
	})
	return r
}

// ------------------------------------------------------------------------------------------------------------------- //
// HANDLERS

// listCommunities serves summaries, programs are fetched per community.
func (server *Server) listCommunities(w http.ResponseWriter, r *http.Request) {
	communities, err := server.store.Communities()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summaries := make([]messages.Community, 0, len(communities))
	for _, community := range communities {
		community.Programs = nil
		summaries = append(summaries, community)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (server *Server) listPrograms(w http.ResponseWriter, r *http.Request) {
	community, err := server.store.Community(chi.URLParam(r, "communityId"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown community")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	programs := community.Programs
	if programs == nil {
		programs = []messages.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (server *Server) projectRecords(w http.ResponseWriter, r *http.Request) {
	records, err := server.store.Records(chi.URLParam(r, "projectId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (server *Server) receiveTransaction(w http.ResponseWriter, r *http.Request) {
	var tx messages.SignedTransaction
	if err := readJSON(r, &tx); err != nil || tx.Bundle == nil {
		badRequest(w, err, "invalid transaction")
		return
	}
	if err := attestation.Verify(tx.Bundle); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	encoded, err := tx.Bundle.Encode()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !crypto.Verify(tx.Bundle.Attester, encoded, tx.Signature) {
		writeError(w, http.StatusUnauthorized, "signature does not match the attester")
		return
	}
	if tx.Bundle.Grant != nil {
		if status, err := server.checkCommunity(tx.Bundle); err != nil {
			writeError(w, status, err.Error())
			return
		}
	}

	receipt, err := server.store.Receive(&tx)
	if errors.Is(err, ErrKnownTransaction) {
		writeError(w, http.StatusConflict, err.Error())
		return
	} else if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.Logger.Info("Received transaction", "tx", receipt.TxHash.Hex(), "type", tx.Bundle.TxType, "project", tx.Bundle.ProjectID)
	writeJSON(w, http.StatusCreated, receipt)
}

// checkCommunity requires a new grant to be attested on its community's network.
func (server *Server) checkCommunity(bundle *messages.Bundle) (int, error) {
	var data messages.GrantData
	if err := json.Unmarshal(bundle.Grant.Data, &data); err != nil {
		return http.StatusBadRequest, err
	}
	community, err := server.store.Community(data.CommunityID)
	if errors.Is(err, ErrNotFound) {
		return http.StatusUnprocessableEntity, errors.New("unknown community " + data.CommunityID)
	} else if err != nil {
		return http.StatusInternalServerError, err
	}
	if community.NetworkID != bundle.NetworkID {
		return http.StatusUnprocessableEntity, errors.New("community " + community.ID + " lives on " + messages.NetworkName(community.NetworkID))
	}
	if _, ok := community.Program(data.ProgramID); data.ProgramID != "" && !ok {
		return http.StatusUnprocessableEntity, errors.New("unknown program " + data.ProgramID)
	}
	return http.StatusOK, nil
}

func (server *Server) notifyTransaction(w http.ResponseWriter, r *http.Request) {
	var notification messages.Notification
	if err := readJSON(r, &notification); err != nil {
		badRequest(w, err, "invalid notification")
		return
	}
	if err := server.store.Notify(notification.TxHash); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (server *Server) assignTracks(w http.ResponseWriter, r *http.Request) {
	var assignment messages.TrackAssignment
	if err := readJSON(r, &assignment); err != nil || assignment.ProgramID == "" {
		badRequest(w, err, "invalid track assignment")
		return
	}
	program, err := server.findProgram(assignment.ProgramID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	for _, trackID := range assignment.TrackIDs {
		if _, ok := program.Track(trackID); !ok {
			writeError(w, http.StatusUnprocessableEntity, "unknown track "+trackID)
			return
		}
	}
	if err := server.store.AssignTracks(chi.URLParam(r, "projectId"), assignment); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (server *Server) findProgram(programID string) (messages.Program, error) {
	communities, err := server.store.Communities()
	if err != nil {
		return messages.Program{}, err
	}
	for _, community := range communities {
		if program, ok := community.Program(programID); ok {
			return program, nil
		}
	}
	return messages.Program{}, errors.New("unknown program " + programID)
}

// ------------------------------------------------------------------------------------------------------------------- //
// HTTP HELPERS

func readJSON(r *http.Request, value interface{}) error {
	return json.NewDecoder(r.Body).Decode(value)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// badRequest answers an undecodable body, 413 when it went past maxBodyBytes.
func badRequest(w http.ResponseWriter, err error, message string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, message)
}

func requestLogger(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Millisecond),
				"request", middleware.GetReqID(r.Context()))
		})
	}
}
