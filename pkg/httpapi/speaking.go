package httpapi

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ndthanh/engmate/pkg/agent"
	"github.com/ndthanh/engmate/pkg/metrics"
	"github.com/ndthanh/engmate/pkg/store"
)

// maxAudioBytes bounds one uploaded recording.
const maxAudioBytes = 10 << 20

// sessionRegistry maps session ids to their speaking agents. Each
// agent serializes its own turns; the registry only guards the map.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*agent.SpeakingAgent
	factory  func() *agent.SpeakingAgent
}

func newSessionRegistry(factory func() *agent.SpeakingAgent) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*agent.SpeakingAgent),
		factory:  factory,
	}
}

// get returns the session's agent, creating the session when the id
// is blank or unknown.
func (r *sessionRegistry) get(id string) (string, *agent.SpeakingAgent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if ag, ok := r.sessions[id]; ok {
			return id, ag, false
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	ag := r.factory()
	r.sessions[id] = ag
	metrics.SpeakingSessionsActive.Set(float64(len(r.sessions)))
	return id, ag, true
}

func (s *Server) handleSpeaking(c *gin.Context) {
	var req struct {
		UserID    string `json:"user_id"`
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sessionID, ag, created := s.sessions.get(req.SessionID)

	start := time.Now()
	var reply agent.SpeakingReply
	if strings.TrimSpace(req.Message) == "" {
		if !created {
			badRequest(c, "message is required")
			return
		}
		reply = ag.Greet(c.Request.Context())
	} else {
		reply = ag.RespondText(c.Request.Context(), req.Message)
	}

	s.logSpeaking(req.UserID, "text", req.Message, reply, time.Since(start), sessionID)
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "reply": reply})
}

func (s *Server) handleSpeakingAudio(c *gin.Context) {
	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		badRequest(c, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		badRequest(c, "could not read audio file")
		return
	}

	userID := c.PostForm("user_id")
	sessionID, ag, _ := s.sessions.get(c.PostForm("session_id"))

	start := time.Now()
	reply := ag.RespondAudio(c.Request.Context(), audio)

	s.logSpeaking(userID, "audio", reply.Heard, reply, time.Since(start), sessionID)
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "reply": reply})
}

func (s *Server) logSpeaking(userID, inputType, input string, reply agent.SpeakingReply, latency time.Duration, sessionID string) {
	metrics.RequestsTotal.WithLabelValues("speaking", string(agent.OpSpeak), "success").Inc()
	metrics.RequestLatency.WithLabelValues("speaking", string(agent.OpSpeak), "none").Observe(latency.Seconds())

	if s.store == nil || userID == "" {
		return
	}
	s.store.LogAsync(store.Interaction{
		UserID:            userID,
		AgentName:         "speaking",
		UserInputType:     inputType,
		UserInputContent:  input,
		AIResponseType:    "text",
		AIResponseContent: reply.Text,
		DurationMS:        latency.Milliseconds(),
		Metadata:          map[string]any{"session_id": sessionID},
	})
}
