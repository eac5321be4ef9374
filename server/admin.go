package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const adminTimeout = 5 * time.Second

// NewRouter 组装 HTTP 路由：WebSocket 接入、健康检查、指标与管理接口
func NewRouter(m *RoomManager, ws http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Handle("/ws", ws)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", HandleMetrics(m))
	r.Route("/admin", func(r chi.Router) {
		r.Get("/rooms", HandleListRooms(m))
		r.Post("/rooms/{code}/dissolve", HandleDissolveRoom(m))
	})
	return r
}

// requestLogger 用 zap 记录每个请求
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		Log.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleMetrics 输出管理器与各房间的运行指标
// GET /metrics
func HandleMetrics(m *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, m.Metrics())
	}
}

// HandleListRooms 列出房间
// GET /admin/rooms
func HandleListRooms(m *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
		defer cancel()
		writeJSON(w, http.StatusOK, map[string]any{"rooms": m.List(ctx)})
	}
}

// HandleDissolveRoom 主动解散房间，可选 JSON 载荷 {"reason": "..."}
// POST /admin/rooms/{code}/dissolve
func HandleDissolveRoom(m *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		var body struct {
			Reason string `json:"reason"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}
		if body.Reason == "" {
			body.Reason = "Room was dissolved."
		}

		ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
		defer cancel()
		found, err := m.Dissolve(ctx, code, body.Reason)
		switch {
		case !found:
			http.Error(w, "room not found", http.StatusNotFound)
		case err != nil:
			Log.Warnf("dissolve %s: %v", code, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			Log.Infof("room %s dissolved by admin: %s", code, body.Reason)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		}
	}
}
