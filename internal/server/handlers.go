package server

import (
	"context"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/db"
	"github.com/jonathan/talent-scout/internal/events"
	"github.com/jonathan/talent-scout/internal/ingestion"
	"github.com/jonathan/talent-scout/internal/types"
)

// UploadField is the multipart field carrying the company CSV.
const UploadField = "csvfile"

// UploadResponse is returned once a run completes.
type UploadResponse struct {
	Success     bool                  `json:"success"`
	Data        []types.CompanyResult `json:"data"`
	DownloadURL string                `json:"downloadUrl"`
}

// handleUpload reads the company list and runs the pipeline synchronously.
// Only one run may be active at a time.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.running.TryLock() {
		s.errorResponse(w, ErrRunInProgress)
		return
	}
	defer s.running.Unlock()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile(UploadField)
	if err != nil {
		s.errorResponse(w, &ErrBadUpload{Message: "missing " + UploadField + " file", Cause: err})
		return
	}
	defer file.Close()

	companies, err := ingestion.ReadCompanies(file)
	if err != nil {
		s.errorResponse(w, &ErrBadUpload{Message: "unreadable company list", Cause: err})
		return
	}
	if len(companies) == 0 {
		s.errorResponse(w, &ErrBadUpload{Message: "no companies found in " + header.Filename})
		return
	}
	meta := ingestion.NewMetadata(companies, header.Filename)

	logger := zap.L().With(zap.String("source", header.Filename))
	logger.Info("upload accepted", zap.Int("companies", meta.Companies), zap.String("hash", meta.Hash))

	// The run outlives the request so a dropped client does not abandon it.
	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()

	out, err := s.run(ctx, companies)
	if err != nil {
		logger.Error("run failed to start", zap.Error(err))
		s.broker.Publish(events.Error("Run failed: %v", err))
		s.errorResponse(w, err)
		return
	}

	name, err := s.results.Write(out)
	if err != nil {
		logger.Error("failed to write results", zap.Error(err))
		s.errorResponse(w, err)
		return
	}

	s.save(ctx, logger, meta, out)

	s.jsonResponse(w, http.StatusOK, UploadResponse{
		Success:     true,
		Data:        out,
		DownloadURL: path.Join("/download", name),
	})
}

// save records the run in the database when one is configured. Failures are
// logged only; the CSV is the primary output.
func (s *Server) save(ctx context.Context, logger *zap.Logger, meta *ingestion.Metadata, out []types.CompanyResult) {
	if s.sink == nil {
		return
	}
	run := db.Run{
		ID:        uuid.New(),
		Source:    meta.Source,
		InputHash: meta.Hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sink.SaveRun(context.WithoutCancel(ctx), run, out); err != nil {
		logger.Warn("failed to save run to database", zap.Error(err))
	}
}

// handleStatus streams progress events until the client disconnects.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sub := s.broker.Subscribe()
	defer s.broker.Unsubscribe(sub)
	zap.L().Debug("status subscriber connected", zap.Int("subscribers", s.broker.Len()))

	var keepAlive <-chan time.Time
	if s.cfg.KeepAlive > 0 {
		ticker := time.NewTicker(s.cfg.KeepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := sse.WriteData(ev); err != nil {
				zap.L().Debug("status subscriber write failed", zap.Error(err))
				return
			}
		case <-keepAlive:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}

// handleDownload serves a stored result file as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	p, err := s.results.Path(name)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, p)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.broker.Len(),
	})
}
