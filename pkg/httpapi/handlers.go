package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ndthanh/engmate/pkg/agent"
)

func badRequest(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "details": details})
}

func (s *Server) handleVocabularyExplain(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
		Word   string `json:"word"`
		Level  string `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{"word": req.Word, "level": req.Level}
	s.execute(c, s.vocabulary, agent.OpExplainWord, params, req.UserID, true)
}

func (s *Server) handleVocabularyTopics(c *gin.Context) {
	var req struct {
		UserID     string `json:"user_id"`
		Topic      string `json:"topic"`
		Difficulty string `json:"difficulty"`
		Count      int    `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{
		"topic":      req.Topic,
		"difficulty": req.Difficulty,
		"count":      strconv.Itoa(req.Count),
	}
	s.execute(c, s.vocabulary, agent.OpWordsByTopic, params, req.UserID, false)
}

func (s *Server) handleGrammarExplain(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id"`
		RuleName string `json:"rule_name"`
		Level    string `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{"rule_name": req.RuleName, "level": req.Level}
	s.execute(c, s.grammar, agent.OpExplainRule, params, req.UserID, true)
}

func (s *Server) handleGrammarCorrect(c *gin.Context) {
	var req struct {
		UserID        string `json:"user_id"`
		Text          string `json:"text"`
		ExplainErrors *bool  `json:"explain_errors"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	explain := true
	if req.ExplainErrors != nil {
		explain = *req.ExplainErrors
	}
	params := agent.Params{"text": req.Text, "explain_errors": strconv.FormatBool(explain)}
	s.execute(c, s.grammar, agent.OpCorrectText, params, req.UserID, false)
}

func (s *Server) handleGrammarExamples(c *gin.Context) {
	var req struct {
		UserID       string `json:"user_id"`
		GrammarPoint string `json:"grammar_point"`
		Count        int    `json:"count"`
		Context      string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{
		"grammar_point": req.GrammarPoint,
		"count":         strconv.Itoa(req.Count),
		"context":       req.Context,
	}
	s.execute(c, s.grammar, agent.OpProvideExamples, params, req.UserID, false)
}

func (s *Server) handleReadingPassage(c *gin.Context) {
	var req struct {
		UserID     string `json:"user_id"`
		Topic      string `json:"topic"`
		Difficulty string `json:"difficulty"`
		Length     string `json:"length"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{
		"topic":      req.Topic,
		"difficulty": req.Difficulty,
		"length":     req.Length,
	}
	s.execute(c, s.reading, agent.OpGeneratePassage, params, req.UserID, true)
}

func (s *Server) handleReadingQuestions(c *gin.Context) {
	var req struct {
		UserID        string `json:"user_id"`
		Passage       string `json:"passage"`
		NumQuestions  int    `json:"num_questions"`
		QuestionTypes string `json:"question_types"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{
		"passage":        req.Passage,
		"num_questions":  strconv.Itoa(req.NumQuestions),
		"question_types": req.QuestionTypes,
	}
	s.execute(c, s.reading, agent.OpComprehensionQuestions, params, req.UserID, false)
}

func (s *Server) handleReadingSummary(c *gin.Context) {
	var req struct {
		UserID  string `json:"user_id"`
		Passage string `json:"passage"`
		Length  string `json:"length"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{"passage": req.Passage, "length": req.Length}
	s.execute(c, s.reading, agent.OpSummarizePassage, params, req.UserID, false)
}

func (s *Server) handleStudyPlan(c *gin.Context) {
	var req struct {
		UserID       string `json:"user_id"`
		Goal         string `json:"goal"`
		Timeframe    string `json:"timeframe"`
		CurrentLevel string `json:"current_level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := agent.Params{
		"goal":          req.Goal,
		"timeframe":     req.Timeframe,
		"current_level": req.CurrentLevel,
	}
	s.execute(c, s.studyPlan, agent.OpGeneratePlan, params, req.UserID, false)
}

func (s *Server) handleTeacherAnalyze(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
		Text   string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.execute(c, s.teacher, agent.OpAnalyzeText, agent.Params{"text": req.Text}, req.UserID, false)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable", "details": "history storage not configured"})
		return
	}
	userID := c.Param("user_id")
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := s.store.UserHistory(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "interactions": history})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
