package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"podfleet/engine"
	"podfleet/grid"
	"podfleet/hostapi"
	"podfleet/nav"
	"podfleet/pods"
	"podfleet/store"
)

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, map[string]any{
		"status":      "ok",
		"tick":        h.engine.TickCount(),
		"queue":       h.engine.QueueLen(),
		"database":    h.engine.DB() != nil,
		"messaging":   h.msg != nil && h.msg.IsConnected(),
		"sse_clients": h.eventHub.ClientCount(),
	})
}

func (h *Handlers) apiLayout(w http.ResponseWriter, r *http.Request) {
	l := h.engine.Layout()
	h.jsonOK(w, map[string]any{
		"layout":   l,
		"pods":     l.PodPool(),
		"stations": h.engine.Stations(),
		"rules":    nav.Rules(),
	})
}

func (h *Handlers) apiRobots(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Snapshot())
}

func (h *Handlers) apiQueue(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.QueueTasks())
}

func (h *Handlers) apiListTasks(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	if db == nil {
		h.jsonError(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	tasks, err := db.ListTasks(r.URL.Query().Get("status"), queryLimit(r, 100))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, tasks)
}

type taskDetail struct {
	*store.TaskRecord
	History []*store.AuditEntry `json:"history"`
}

// apiGetTask returns one task with its audit trail, newest first.
func (h *Handlers) apiGetTask(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	if db == nil {
		h.jsonError(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	task, err := db.GetTaskByUUID(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.jsonError(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	history, err := db.ListEntityAudit("task", id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, taskDetail{TaskRecord: task, History: history})
}

func (h *Handlers) apiTaskCounts(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	if db == nil {
		h.jsonError(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	counts, err := db.CountTasksByStatus()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, counts)
}

func (h *Handlers) apiAuditLog(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	if db == nil {
		h.jsonError(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	entries, err := db.ListAuditLog(queryLimit(r, 100))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}

type movesRequest struct {
	Pos      grid.Pos `json:"pos"`
	Target   grid.Pos `json:"target"`
	Carrying bool     `json:"carrying"`
}

// apiComputeMoves evaluates the movement policy for one robot state.
func (h *Handlers) apiComputeMoves(w http.ResponseWriter, r *http.Request) {
	var req movesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	l := h.engine.Layout()
	d := nav.Decide(l, req.Pos, req.Target, req.Carrying)
	h.jsonOK(w, map[string]any{
		"rule":  d.Rule,
		"moves": hostapi.ComputeMoves(l, req.Pos, req.Target, req.Carrying),
	})
}

type pickRequest struct {
	RobotTasks []grid.Pos `json:"robot_tasks"`
	Queue      []grid.Pos `json:"queue"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
}

// apiPickPod selects a pod against caller-supplied claims, leaving the
// engine's own queue alone. robot_tasks needs one entry per engine robot.
func (h *Handlers) apiPickPod(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	pod, err := hostapi.PickRandomPod(h.engine.Layout(), len(h.engine.Snapshot()), req.RobotTasks, req.Queue, req.Start, req.End)
	switch {
	case errors.Is(err, hostapi.ErrInvalidBuffer):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pods.ErrNoPodsAvailable):
		h.jsonError(w, err.Error(), http.StatusConflict)
	case err != nil:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	default:
		h.jsonOK(w, map[string]any{"pod": pod})
	}
}

type createTaskRequest struct {
	Pod *grid.Pos `json:"pod"`
}

func (h *Handlers) apiCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	task, err := h.engine.RequestTask(req.Pod, "api")
	switch {
	case errors.Is(err, engine.ErrNotPodCell):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrPodClaimed), errors.Is(err, pods.ErrNoPodsAvailable):
		h.jsonError(w, err.Error(), http.StatusConflict)
	case err != nil:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	default:
		if db := h.engine.DB(); db != nil {
			db.AppendAudit("task", task.ID, "requested", "", h.getUsername(r))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(task)
	}
}

// apiSimTick advances the simulation by n ticks (default 1, max 1000).
func (h *Handlers) apiSimTick(w http.ResponseWriter, r *http.Request) {
	n := 1
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 1000 {
			h.jsonError(w, "n must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		n = v
	}
	var tick int64
	for i := 0; i < n; i++ {
		tick = h.engine.Tick()
	}
	h.jsonOK(w, map[string]any{"tick": tick, "robots": h.engine.Snapshot()})
}

func queryLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
