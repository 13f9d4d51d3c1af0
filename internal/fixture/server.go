// Package fixture serves a stand-in for the TerraMuse home page: a "Watch the
// Film" button that opens a modal with an embedded video frame. Its state can be
// changed over HTTP so every failure mode of the check can be reproduced.
package fixture

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
)

const (
	DefaultVideoID    = "pOe5M0GtYZo"
	DefaultButtonText = "Watch the Film"
	DefaultFrameTitle = "TerraMuse Brand Film"
)

// State is the mutable part of the page.
type State struct {
	VideoID    string `json:"video_id"`
	HideButton bool   `json:"hide_button"`
	OmitSrc    bool   `json:"omit_src"`
	// NeverOpen keeps the modal hidden after the click.
	NeverOpen bool `json:"never_open"`
}

// DefaultState renders the page the check expects.
func DefaultState() State {
	return State{VideoID: DefaultVideoID}
}

// Server implements the fixture HTTP app
type Server struct {
	mu     sync.RWMutex
	state  State
	logger *slog.Logger
}

// NewServer creates a new fixture server in the default state
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{state: DefaultState(), logger: logger}
}

// State returns a copy of the current state.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState replaces the current state.
func (s *Server) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

	switch {
	case r.URL.Path == "/_reset" && r.Method == http.MethodPost:
		s.SetState(DefaultState())
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/_state" && r.Method == http.MethodGet:
		s.writeJSON(w, s.State())
	case r.URL.Path == "/_state" && r.Method == http.MethodPost:
		s.handleSetState(w, r)
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		s.handleHome(w)
	case r.URL.Path == "/" || r.URL.Path == "/_state" || r.URL.Path == "/_reset":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	state := DefaultState()
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		http.Error(w, "invalid state: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.SetState(state)
	s.logger.Info("fixture state updated",
		"video_id", state.VideoID,
		"hide_button", state.HideButton,
		"omit_src", state.OmitSrc,
		"never_open", state.NeverOpen,
	)
	s.writeJSON(w, state)
}

func (s *Server) handleHome(w http.ResponseWriter) {
	state := s.State()
	data := homeData{
		ButtonText: DefaultButtonText,
		FrameTitle: DefaultFrameTitle,
		State:      state,
	}
	if !state.OmitSrc {
		data.Src = EmbedURL(state.VideoID)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render home page", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// EmbedURL is the frame src the real page uses for a video id.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID + "?autoplay=1&mute=1&controls=1&modestbranding=1&rel=0&showinfo=0"
}

type homeData struct {
	State
	ButtonText string
	FrameTitle string
	Src        string
}

// The frame stays in the DOM while the modal is closed, hidden by display:none.
var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>TerraMuse</title>
<style>
  body { font-family: sans-serif; margin: 0; min-height: 100vh; }
  #video-modal { position: fixed; inset: 0; display: none; align-items: center; justify-content: center; background: rgba(0,0,0,.9); }
  #video-modal.open { display: flex; }
  #video-modal iframe { width: 80vw; aspect-ratio: 16 / 9; border: none; background: #000; }
</style>
</head>
<body>
<main>
  <h1>Rooted in nature</h1>
  {{if not .HideButton}}
  <button id="watch-film" type="button">
    <span class="material-symbols-outlined">play_arrow</span>
    <span>{{.ButtonText}}</span>
  </button>
  {{end}}
</main>
<div id="video-modal" role="dialog" aria-modal="true">
  <button id="close-film" type="button" aria-label="Close">close</button>
  <iframe title="{{.FrameTitle}}"{{if .Src}} src="{{.Src}}"{{end}} allow="autoplay; encrypted-media" allowfullscreen></iframe>
</div>
<script>
  (function () {
    var modal = document.getElementById('video-modal');
    var open = document.getElementById('watch-film');
    var neverOpen = {{.NeverOpen}};
    if (open) {
      open.addEventListener('click', function () {
        if (!neverOpen) { modal.classList.add('open'); }
      });
    }
    document.getElementById('close-film').addEventListener('click', function () {
      modal.classList.remove('open');
    });
    document.addEventListener('keydown', function (e) {
      if (e.key === 'Escape') { modal.classList.remove('open'); }
    });
  })();
</script>
</body>
</html>
`))
