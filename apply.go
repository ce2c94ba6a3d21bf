package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"photoPreProcessor/session"
)

const idAlphabet string = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var errApplyRunning = errors.New("an apply job is already running")

func newJobID() string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		id = strconv.FormatInt(time.Now().UnixMicro(), 10)
	}
	return "apply_" + id
}

// ApplyStatus is the progress of one apply job. Clients poll it.
type ApplyStatus struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"` // running, completed, error
	DryRun      bool      `json:"dryRun"`
	Total       int64     `json:"total"`   // files with pending edits
	Written     int64     `json:"written"` // files written successfully
	Failed      int64     `json:"failed"`  // files that failed to write or rename
	Renamed     int64     `json:"renamed"` // files renamed
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	CurrentFile string    `json:"currentFile"`
	Error       string    `json:"error"`
}

// applier writes pending edits back to the files and renames them. One job
// runs at a time.
type applier struct {
	writer metadataWriter
	db     *DB
	rename bool
	dryRun bool
	log    logrus.FieldLogger
	// reload re-imports the directory after a job without failures.
	reload func() error

	mu      sync.Mutex
	jobs    map[string]*ApplyStatus
	running bool
	wg      sync.WaitGroup
}

func newApplier(writer metadataWriter, db *DB, cfg Config, reload func() error) *applier {
	return &applier{
		writer: writer,
		db:     db,
		rename: cfg.Rename,
		dryRun: cfg.DryRun,
		log:    logrus.WithField("component", "apply"),
		reload: reload,
		jobs:   map[string]*ApplyStatus{},
	}
}

// Status returns a copy of the job's status.
func (a *applier) Status(id string) (ApplyStatus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.jobs[id]
	if !ok {
		return ApplyStatus{}, false
	}
	return *st, true
}

func (a *applier) update(id string, fn func(*ApplyStatus)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.jobs[id])
}

// Start launches a job for changes and, when renaming is on, for every file
// of feed. It returns at once with the job id.
func (a *applier) Start(dir string, changes []session.Change, feed []session.RenameEntry) (string, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return "", errApplyRunning
	}
	id := newJobID()
	a.jobs[id] = &ApplyStatus{
		ID:        id,
		Status:    "running",
		DryRun:    a.dryRun,
		Total:     int64(len(changes)),
		StartTime: time.Now(),
	}
	a.running = true
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.run(id, dir, changes, feed)
	}()
	return id, nil
}

// Wait blocks until the running job, if any, has finished.
func (a *applier) Wait() {
	a.wg.Wait()
}

func (a *applier) run(id, dir string, changes []session.Change, feed []session.RenameEntry) {
	log := a.log.WithField("job", id)
	var failures []string

	for _, c := range changes {
		a.update(id, func(st *ApplyStatus) { st.CurrentFile = c.Filename })
		err := a.writer.Write(c.Path, c.Params)
		row := AppliedRow{JobID: id, Path: c.Path, Params: c.Params}
		if err != nil {
			log.WithFields(logrus.Fields{"file": c.Path, "error": err}).Error("write failed")
			failures = append(failures, c.Filename)
			row.Error = err.Error()
			a.update(id, func(st *ApplyStatus) { st.Failed++ })
		} else {
			log.WithField("file", c.Path).Info("metadata written")
			a.update(id, func(st *ApplyStatus) { st.Written++ })
		}
		a.recordApplied(row)
	}

	if a.rename {
		failures = append(failures, a.renameAll(id, dir, feed, log)...)
	}

	if len(failures) == 0 && !a.dryRun && a.reload != nil {
		if err := a.reload(); err != nil {
			log.WithError(err).Error("reload after apply failed")
			failures = append(failures, "reload")
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.jobs[id]
	st.EndTime = time.Now()
	st.CurrentFile = ""
	st.Status = "completed"
	if len(failures) > 0 {
		st.Status = "error"
		st.Error = "failed: " + strings.Join(failures, ", ")
	}
	a.running = false
	log.WithFields(logrus.Fields{"written": st.Written, "failed": st.Failed, "renamed": st.Renamed}).Info("apply finished")
}

func (a *applier) recordApplied(row AppliedRow) {
	if a.db == nil || a.dryRun {
		return
	}
	if err := a.db.insertApplied(row); err != nil {
		a.log.WithError(err).Warn("failed to record applied change")
	}
}

func (a *applier) renameAll(id, dir string, feed []session.RenameEntry, log logrus.FieldLogger) []string {
	occupied, err := occupiedNames(dir, feed)
	if err != nil {
		log.WithError(err).Error("rename skipped")
		return []string{"rename"}
	}
	plans := planRenames(feed, occupied)
	if a.dryRun {
		for _, p := range plans {
			log.Infof("dry run: rename %s -> %s", p.From, p.To)
		}
		return nil
	}
	var failures []string
	for _, res := range executeRenames(plans, id) {
		if res.err != nil {
			log.WithFields(logrus.Fields{"file": res.plan.From, "error": res.err}).Error("rename failed")
			failures = append(failures, filepath.Base(res.plan.From))
			a.update(id, func(st *ApplyStatus) { st.Failed++ })
			continue
		}
		a.update(id, func(st *ApplyStatus) { st.Renamed++ })
		a.recordApplied(AppliedRow{JobID: id, Path: res.plan.From, RenamedTo: res.plan.To})
	}
	return failures
}

// renamePlan moves one file within its directory.
type renamePlan struct {
	From string `json:"from"`
	To   string `json:"to"`
}

const renameLayout = "20060102-150405"

// renameTarget builds "YYYYMMDD-HHMMSS[-NN]-<model>.<ext>". The counter is
// left out for n == 0, the model part when the model is unknown.
func renameTarget(ts time.Time, model, ext string, n int) string {
	name := ts.Format(renameLayout)
	if n > 0 {
		name += fmt.Sprintf("-%02d", n)
	}
	if m := sanitizeModel(model); m != "" {
		name += "-" + m
	}
	return name + strings.ToLower(ext)
}

// sanitizeModel makes a camera model usable in a file name: runs of spaces
// become one underscore and anything but letters, digits, '-', '_' and '.'
// is dropped.
func sanitizeModel(model string) string {
	joined := strings.Join(strings.Fields(model), "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return -1
	}, joined)
}

// occupiedNames lists the names in dir that the rename must not take: files
// that are not part of feed.
func occupiedNames(dir string, feed []session.RenameEntry) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	inFeed := make(map[string]bool, len(feed))
	for _, e := range feed {
		inFeed[e.Filename] = true
	}
	occupied := map[string]bool{}
	for _, e := range entries {
		if !inFeed[e.Name()] {
			occupied[e.Name()] = true
		}
	}
	return occupied, nil
}

// planRenames assigns every file with a timestamp its target name, counting
// up on collisions in feed order. Files without a timestamp keep their name.
func planRenames(feed []session.RenameEntry, occupied map[string]bool) []renamePlan {
	taken := make(map[string]bool, len(occupied)+len(feed))
	for name := range occupied {
		taken[name] = true
	}
	for _, e := range feed {
		if e.Timestamp == nil {
			taken[e.Filename] = true
		}
	}

	var plans []renamePlan
	for _, e := range feed {
		if e.Timestamp == nil {
			continue
		}
		ext := filepath.Ext(e.Filename)
		var name string
		for n := 0; ; n++ {
			name = renameTarget(*e.Timestamp, e.Model, ext, n)
			if !taken[name] {
				break
			}
		}
		taken[name] = true
		if name == e.Filename {
			continue
		}
		dir := filepath.Dir(e.Path)
		plans = append(plans, renamePlan{From: e.Path, To: filepath.Join(dir, name)})
	}
	return plans
}

type renameResult struct {
	plan renamePlan
	err  error
}

// executeRenames moves every file to a temporary name first so that files
// trading names do not overwrite each other.
func executeRenames(plans []renamePlan, tag string) []renameResult {
	results := make([]renameResult, len(plans))
	temps := make([]string, len(plans))
	for i, p := range plans {
		results[i].plan = p
		temps[i] = p.From + ".rename-" + tag
		if err := os.Rename(p.From, temps[i]); err != nil {
			results[i].err = err
		}
	}
	for i, p := range plans {
		if results[i].err != nil {
			continue
		}
		if _, err := os.Stat(p.To); err == nil {
			results[i].err = fmt.Errorf("target %s already exists", p.To)
			_ = os.Rename(temps[i], p.From)
			continue
		}
		if err := os.Rename(temps[i], p.To); err != nil {
			results[i].err = err
			_ = os.Rename(temps[i], p.From)
		}
	}
	return results
}
