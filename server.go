package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"photoPreProcessor/gallery"
	"photoPreProcessor/handle"
	"photoPreProcessor/selection"
	"photoPreProcessor/session"
)

const version = "0.2.0"

type apiError struct {
	Error string `json:"error"`
}

type healthResp struct {
	Ok        bool      `json:"ok"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type directoryReq struct {
	Path string `json:"path"`
}

type directoryResp struct {
	Directory string `json:"directory"`
	Count     int    `json:"count"`
}

type itemsResp struct {
	Directory    string         `json:"directory"`
	Sort         string         `json:"sort"`
	ApplyEnabled bool           `json:"applyEnabled"`
	Items        []gallery.View `json:"items"`
}

type itemResp struct {
	gallery.View
	Summary string `json:"summary"`
}

type selectReq struct {
	Names   []string          `json:"names"`
	Answers map[string]string `json:"answers"`
}

type selectionResp struct {
	Names  []string         `json:"names"`
	Result selection.Result `json:"result"`
}

type locationReq struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

type timezonesReq struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type keywordReq struct {
	Keyword string `json:"keyword"`
}

type copyrightReq struct {
	Notice string `json:"notice"`
}

type descriptionReq struct {
	Description string `json:"description"`
}

type previewResp struct {
	ApplyEnabled bool             `json:"applyEnabled"`
	Changes      []session.Change `json:"changes"`
	Renames      []renamePlan     `json:"renames"`
}

type applyResp struct {
	ID string `json:"id"`
}

type applyStatusResp struct {
	ApplyStatus
	Files []AppliedRow `json:"files,omitempty"`
}

// server is the HTTP face of one session. It owns no edit state itself.
type server struct {
	cfg      Config
	sess     *session.Session
	db       *DB
	reader   metadataReader
	apply    *applier
	thumbDir string
	launch   func(editor string, paths []string) error
	log      *logrus.Entry
}

func newServer(cfg Config, sess *session.Session, db *DB, reader metadataReader, writer metadataWriter, thumbDir string) *server {
	s := &server{
		cfg:      cfg,
		sess:     sess,
		db:       db,
		reader:   reader,
		thumbDir: thumbDir,
		launch:   launchEditor,
		log:      logrus.WithField("component", "server"),
	}
	s.apply = newApplier(writer, db, cfg, func() error {
		_, err := s.loadDirectory(s.sess.Directory())
		return err
	})
	return s
}

// loadDirectory imports dir and makes it the session's view.
func (s *server) loadDirectory(dir string) (int, error) {
	records, err := importDirectory(dir, s.reader)
	if err != nil {
		return 0, err
	}
	return s.sess.Load(dir, records), nil
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	handle.InitializeRoutes(r, logrus.StandardLogger())

	r.HandleFunc("/api/health", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/directory", s.handleDirectory).Methods(http.MethodPost)
	r.HandleFunc("/api/items", s.handleListItems).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{name}", s.handleGetItem).Methods(http.MethodGet)
	r.HandleFunc("/api/thumbnails/{name}", s.handleThumbnail).Methods(http.MethodGet)

	r.HandleFunc("/api/selection", s.handleSelect).Methods(http.MethodPut)
	r.HandleFunc("/api/selection", s.handleGetSelection).Methods(http.MethodGet)
	r.HandleFunc("/api/selection/rotate/{dir}", s.handleRotate).Methods(http.MethodPost)
	r.HandleFunc("/api/selection/reset/{field}", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/api/selection/location", s.handleLocation).Methods(http.MethodPut)
	r.HandleFunc("/api/selection/timezones", s.handleTimezones).Methods(http.MethodPut)
	r.HandleFunc("/api/selection/keywords", s.handleAddKeyword).Methods(http.MethodPost)
	r.HandleFunc("/api/selection/keywords/{keyword}", s.handleRemoveKeyword).Methods(http.MethodDelete)
	r.HandleFunc("/api/selection/copyright", s.handleCopyright).Methods(http.MethodPut)
	r.HandleFunc("/api/selection/description", s.handleDescription).Methods(http.MethodPut)
	r.HandleFunc("/api/selection/editor", s.handleEditor).Methods(http.MethodPost)

	r.HandleFunc("/api/apply/preview", s.handleApplyPreview).Methods(http.MethodGet)
	r.HandleFunc("/api/apply", s.handleApply).Methods(http.MethodPost)
	r.HandleFunc("/api/apply/{id}", s.handleApplyStatus).Methods(http.MethodGet)

	r.HandleFunc("/api/history/keywords", s.handleHistory(s.listKeywords)).Methods(http.MethodGet)
	r.HandleFunc("/api/history/copyright", s.handleHistory(s.listCopyrights)).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type", "Accept"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"}),
	)
	return cors(r)
}

func StartServer(addr string, h http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logrus.WithField("addr", addr).Info("Serving HTTP API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server error")
		}
	}()
	return srv
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResp{Ok: true, Version: version, Timestamp: time.Now()})
}

func (s *server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	var req directoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "path required"})
		return
	}
	n, err := s.loadDirectory(req.Path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, directoryResp{Directory: req.Path, Count: n})
}

func (s *server) handleListItems(w http.ResponseWriter, r *http.Request) {
	if sort := r.URL.Query().Get("sort"); sort != "" {
		order, err := gallery.ParseSortOrder(sort)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		s.sess.SetSortOrder(order)
	}
	writeJSON(w, http.StatusOK, itemsResp{
		Directory:    s.sess.Directory(),
		Sort:         s.sess.SortOrder().String(),
		ApplyEnabled: s.sess.AnyEdited(),
		Items:        s.sess.Views(),
	})
}

func (s *server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	view, err := s.sess.Item(name)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, _ := s.sess.String(name)
	writeJSON(w, http.StatusOK, itemResp{View: view, Summary: summary})
}

func (s *server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	src, err := s.sess.Thumbnail(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := processThumbnail(src, s.thumbDir, s.cfg.ThumbnailSize)
	if err != nil {
		s.log.WithError(err).Warn("thumbnail failed")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// chooserFromAnswers turns {"keywords": "union"} style answers into a preset
// chooser. Unanswered conflicts are cancelled.
func chooserFromAnswers(answers map[string]string) (selection.Preset, error) {
	preset := selection.Preset{}
	for name, key := range answers {
		field, ok := selection.ParseField(name)
		if !ok {
			return nil, errors.New("unknown field " + strconv.Quote(name))
		}
		preset[field] = key
	}
	return preset, nil
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	chooser, err := chooserFromAnswers(req.Answers)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	result, err := s.sess.Select(req.Names, chooser)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResp{Names: s.sess.SelectedNames(), Result: result})
}

func (s *server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, selectionResp{Names: s.sess.SelectedNames(), Result: s.sess.Selection()})
}

func (s *server) respond(w http.ResponseWriter, result selection.Result, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResp{Names: s.sess.SelectedNames(), Result: result})
}

func (s *server) handleRotate(w http.ResponseWriter, r *http.Request) {
	switch mux.Vars(r)["dir"] {
	case "left":
		result, err := s.sess.RotateLeft()
		s.respond(w, result, err)
	case "right":
		result, err := s.sess.RotateRight()
		s.respond(w, result, err)
	default:
		writeJSON(w, http.StatusBadRequest, apiError{Error: "direction must be left or right"})
	}
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	result, err := s.sess.Reset(mux.Vars(r)["field"])
	s.respond(w, result, err)
}

func (s *server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var req *locationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	var loc *gallery.Location
	if req != nil && req.Latitude != nil && req.Longitude != nil {
		loc = &gallery.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if req.Elevation != nil {
			loc.Elevation = *req.Elevation
		}
	}
	result, err := s.sess.SetLocation(loc)
	s.respond(w, result, err)
}

func (s *server) handleTimezones(w http.ResponseWriter, r *http.Request) {
	var req timezonesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	result, err := s.sess.SetTimezones(req.From, req.To)
	s.respond(w, result, err)
}

func (s *server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var req keywordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Keyword == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "keyword required"})
		return
	}
	result, err := s.sess.AddKeyword(req.Keyword)
	if err == nil && s.db != nil {
		if herr := s.db.recordKeyword(req.Keyword); herr != nil {
			s.log.WithError(herr).Warn("failed to record keyword history")
		}
	}
	s.respond(w, result, err)
}

func (s *server) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	result, err := s.sess.RemoveKeyword(mux.Vars(r)["keyword"])
	s.respond(w, result, err)
}

func (s *server) handleCopyright(w http.ResponseWriter, r *http.Request) {
	var req copyrightReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	result, err := s.sess.SetCopyright(req.Notice)
	if err == nil && s.db != nil {
		if herr := s.db.recordCopyright(req.Notice); herr != nil {
			s.log.WithError(herr).Warn("failed to record copyright history")
		}
	}
	s.respond(w, result, err)
}

func (s *server) handleDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	result, err := s.sess.SetDescription(req.Description)
	s.respond(w, result, err)
}

func (s *server) handleEditor(w http.ResponseWriter, r *http.Request) {
	paths, err := s.sess.SelectedPaths()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.launch(s.cfg.Editor, paths); err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"ok": true, "files": len(paths)})
}

func (s *server) renamePreview() ([]renamePlan, error) {
	if !s.cfg.Rename {
		return []renamePlan{}, nil
	}
	feed := s.sess.RenameFeed()
	occupied, err := occupiedNames(s.sess.Directory(), feed)
	if err != nil {
		return nil, err
	}
	plans := planRenames(feed, occupied)
	if plans == nil {
		plans = []renamePlan{}
	}
	return plans, nil
}

func (s *server) handleApplyPreview(w http.ResponseWriter, r *http.Request) {
	renames, err := s.renamePreview()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	changes := s.sess.Pending()
	if changes == nil {
		changes = []session.Change{}
	}
	writeJSON(w, http.StatusOK, previewResp{ApplyEnabled: s.sess.AnyEdited(), Changes: changes, Renames: renames})
}

func (s *server) handleApply(w http.ResponseWriter, r *http.Request) {
	if !s.sess.AnyEdited() {
		writeJSON(w, http.StatusConflict, apiError{Error: "no pending changes"})
		return
	}
	id, err := s.apply.Start(s.sess.Directory(), s.sess.Pending(), s.sess.RenameFeed())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, applyResp{ID: id})
}

func (s *server) handleApplyStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, ok := s.apply.Status(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "not found"})
		return
	}
	resp := applyStatusResp{ApplyStatus: st}
	if s.db != nil && st.Status != "running" {
		files, err := s.db.listApplied(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
			return
		}
		resp.Files = files
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) listKeywords(offset, limit int64) ([]HistoryRow, error) {
	return s.db.listKeywords(offset, limit)
}

func (s *server) listCopyrights(offset, limit int64) ([]HistoryRow, error) {
	return s.db.listCopyrights(offset, limit)
}

func (s *server) handleHistory(list func(offset, limit int64) ([]HistoryRow, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.db == nil {
			writeJSON(w, http.StatusOK, []HistoryRow{})
			return
		}
		offset, limit := parsePage(r)
		rows, err := list(offset, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrUnknownItem):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrEmptySelection),
		errors.Is(err, session.ErrPanelDisabled),
		errors.Is(err, errApplyRunning):
		status = http.StatusConflict
	case errors.Is(err, session.ErrUnknownField),
		errors.Is(err, gallery.ErrInvalidTimestamp),
		errors.Is(err, gallery.ErrUnknownTimezone),
		errors.Is(err, gallery.ErrInvalidLocation):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, apiError{Error: err.Error()})
}

func parsePage(r *http.Request) (int64, int64) {
	q := r.URL.Query()
	var (
		offset int64 = 0
		limit  int64 = 50
	)
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
			offset = v
		}
	}
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	return offset, limit
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
