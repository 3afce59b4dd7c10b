// Package httpadapter serves health, metrics and the map control API.
package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/hitindex"
	"github.com/couchcryptid/storm-alert-map/internal/playback"
	"github.com/couchcryptid/storm-alert-map/internal/selection"
)

// Player is the playback surface driven by the API.
type Player interface {
	Frame() playback.Frame
	Snapshot() domain.Snapshot
	PlayPauseReset() playback.Frame
	StepForward() playback.Frame
	StepBackward() playback.Frame
	CycleSpeed() playback.Frame
	Rewind() playback.Frame
	Seek(pos int) playback.Frame
}

// Selector receives pointer input.
type Selector interface {
	OnHover(domain.RegionID)
	OnHoverEnd()
	OnClick(domain.RegionID)
	Inspection() selection.Inspection
}

// DatasetLoader swaps the playing dataset.
type DatasetLoader interface {
	LoadDataset(buf []byte) (playback.Frame, error)
}

// MapAPI is what the /api routes need. Hits may be nil, in which case
// pointer routes answer 404. Datasets and Reload are optional too.
type MapAPI struct {
	Player   Player
	Selector Selector
	Hits     *hitindex.Index
	Alerts   selection.AlertNamer
	Regions  selection.RegionNamer
	Datasets DatasetLoader
	// Reload re-reads the configured dataset source.
	Reload func(ctx context.Context) ([]byte, error)
}

// maxUploadBytes bounds a dataset upload.
const maxUploadBytes = 256 << 20

// Server exposes health, readiness, metrics and map control endpoints.
type Server struct {
	httpServer *http.Server
	api        MapAPI
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, api MapAPI, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("POST /api/playback/{action}", s.handlePlayback)
	mux.HandleFunc("POST /api/seek", s.handleSeek)
	mux.HandleFunc("GET /api/regions/{id}", s.handleRegion)
	mux.HandleFunc("GET /api/selection", s.handleSelection)
	mux.HandleFunc("POST /api/pointer/{event}", s.handlePointer)
	mux.HandleFunc("PUT /api/dataset", s.handleDatasetUpload)
	mux.HandleFunc("POST /api/dataset/reload", s.handleDatasetReload)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type frameResponse struct {
	Seq            uint64 `json:"seq"`
	TimeMs         int64  `json:"time_ms"`
	TimeText       string `json:"time_text"`
	Mode           string `json:"mode"`
	SliderPosition int    `json:"slider_position"`
	PlayButton     string `json:"play_button"`
	SpeedButton    string `json:"speed_button"`
	SpeedLevel     int    `json:"speed_level"`
	ActiveRegions  int    `json:"active_regions"`
}

func toFrameResponse(f playback.Frame) frameResponse {
	return frameResponse{
		Seq:            f.Seq,
		TimeMs:         f.State.CurrentTime,
		TimeText:       f.TimeText,
		Mode:           f.Mode.String(),
		SliderPosition: f.SliderPosition,
		PlayButton:     f.PlayButton,
		SpeedButton:    f.SpeedButton,
		SpeedLevel:     f.State.SpeedLevel,
		ActiveRegions:  f.ActiveRegions,
	}
}

type legendItem struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type legendResponse struct {
	Region uint16       `json:"region"`
	Pinned bool         `json:"pinned"`
	Title  string       `json:"title"`
	Items  []legendItem `json:"items"`
	Note   string       `json:"note,omitempty"`
}

func (s *Server) legend(in selection.Inspection, compact bool) legendResponse {
	lg := selection.Describe(in, s.api.Alerts, s.api.Regions, compact)
	resp := legendResponse{
		Region: uint16(in.Region),
		Pinned: in.Pinned,
		Title:  lg.Title,
		Items:  make([]legendItem, 0, len(lg.Items)),
		Note:   lg.Note,
	}
	for _, it := range lg.Items {
		resp.Items = append(resp.Items, legendItem{Name: it.Name, Color: it.Color.Hex()})
	}
	return resp
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toFrameResponse(s.api.Player.Frame()))
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	var f playback.Frame
	switch action := r.PathValue("action"); action {
	case "play":
		f = s.api.Player.PlayPauseReset()
	case "forward":
		f = s.api.Player.StepForward()
	case "backward":
		f = s.api.Player.StepBackward()
	case "rewind":
		f = s.api.Player.Rewind()
	case "speed":
		f = s.api.Player.CycleSpeed()
	default:
		writeError(w, http.StatusNotFound, "unknown playback action "+strconv.Quote(action))
		return
	}
	writeJSON(w, http.StatusOK, toFrameResponse(f))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(r.URL.Query().Get("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "position must be an integer")
		return
	}
	writeJSON(w, http.StatusOK, toFrameResponse(s.api.Player.Seek(pos)))
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "region id must be a 16-bit integer")
		return
	}
	region := domain.RegionID(id)
	in := selection.Inspection{
		Region: region,
		Alerts: s.api.Player.Snapshot().Alerts(region),
	}
	writeJSON(w, http.StatusOK, s.legend(in, compact(r)))
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.legend(s.api.Selector.Inspection(), compact(r)))
}

// handlePointer maps surface coordinates through the hit index. x and y are
// surface pixels; scale is surface width over the hit map's width.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	event := r.PathValue("event")
	if event == "leave" {
		s.api.Selector.OnHoverEnd()
		writeJSON(w, http.StatusOK, s.legend(s.api.Selector.Inspection(), compact(r)))
		return
	}
	if event != "hover" && event != "click" {
		writeError(w, http.StatusNotFound, "unknown pointer event "+strconv.Quote(event))
		return
	}
	if s.api.Hits == nil {
		writeError(w, http.StatusNotFound, "no hit map loaded")
		return
	}

	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}
	scale := 1.0
	if raw := q.Get("scale"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "scale must be a positive number")
			return
		}
		scale = v
	}

	region := s.api.Hits.RegionAtScaled(x, y, scale)
	if event == "click" {
		s.api.Selector.OnClick(region)
	} else {
		s.api.Selector.OnHover(region)
	}
	writeJSON(w, http.StatusOK, s.legend(s.api.Selector.Inspection(), compact(r)))
}

func (s *Server) handleDatasetUpload(w http.ResponseWriter, r *http.Request) {
	if s.api.Datasets == nil {
		writeError(w, http.StatusNotFound, "dataset swapping disabled")
		return
	}
	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	s.loadDataset(w, buf, "upload")
}

func (s *Server) handleDatasetReload(w http.ResponseWriter, r *http.Request) {
	if s.api.Datasets == nil || s.api.Reload == nil {
		writeError(w, http.StatusNotFound, "dataset reload disabled")
		return
	}
	buf, err := s.api.Reload(r.Context())
	if err != nil {
		s.logger.Warn("dataset reload failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.loadDataset(w, buf, "reload")
}

// loadDataset installs buf. A rejected dataset leaves the current one playing.
func (s *Server) loadDataset(w http.ResponseWriter, buf []byte, source string) {
	f, err := s.api.Datasets.LoadDataset(buf)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.logger.Info("dataset swapped", "source", source, "bytes", len(buf))
	writeJSON(w, http.StatusOK, toFrameResponse(f))
}

func compact(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("compact"))
	return v
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
