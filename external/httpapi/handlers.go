package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relaylabs/relay/internal/store"
)

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func success(data any) response {
	return response{Status: "success", Data: data}
}

func failure(message string) response {
	return response{Status: "error", Message: message}
}

type caseView struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	CoreInfoComplete  bool      `json:"core_info_complete"`
	NEMSISData        any       `json:"nemsis_data"`
	GPResponse        *string   `json:"gp_response"`
	MedicalDBResponse *string   `json:"medical_db_response"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func viewCase(c *store.Case) caseView {
	return caseView{
		ID:                c.ID,
		Status:            string(c.Status),
		CoreInfoComplete:  c.CoreInfoComplete,
		NEMSISData:        c.Record,
		GPResponse:        c.GPResponse,
		MedicalDBResponse: c.MedicalDBResponse,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

type transcriptView struct {
	Content      string    `json:"content"`
	SegmentIndex int       `json:"segment_index"`
	SpokenAt     time.Time `json:"spoken_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, success(gin.H{"status": "healthy"}))
}

func (s *Server) handleCreateCase(c *gin.Context) {
	created, err := s.cases.CreateCase(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure("failed to create case"))
		return
	}
	c.JSON(http.StatusCreated, success(viewCase(created)))
}

func (s *Server) handleListCases(c *gin.Context) {
	list, err := s.cases.ListActiveCases(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure("failed to list cases"))
		return
	}
	views := make([]caseView, 0, len(list))
	for i := range list {
		views = append(views, viewCase(&list[i]))
	}
	c.JSON(http.StatusOK, success(views))
}

func (s *Server) handleGetCase(c *gin.Context) {
	found, err := s.cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure("failed to load case"))
		return
	}
	if found == nil {
		c.JSON(http.StatusNotFound, failure("case not found"))
		return
	}
	c.JSON(http.StatusOK, success(viewCase(found)))
}

func (s *Server) handleGetRecord(c *gin.Context) {
	found, err := s.cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure("failed to load case"))
		return
	}
	if found == nil {
		c.JSON(http.StatusNotFound, failure("case not found"))
		return
	}
	c.JSON(http.StatusOK, success(gin.H{
		"record":             found.Record,
		"core_info_complete": found.CoreInfoComplete,
	}))
}

func (s *Server) handleListTranscripts(c *gin.Context) {
	found, err := s.cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure("failed to load case"))
		return
	}
	if found == nil {
		c.JSON(http.StatusNotFound, failure("case not found"))
		return
	}
	segments, err := s.cases.ListTranscripts(c.Request.Context(), found.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure("failed to list transcripts"))
		return
	}
	views := make([]transcriptView, 0, len(segments))
	for _, seg := range segments {
		views = append(views, transcriptView{
			Content:      seg.Content,
			SegmentIndex: seg.SegmentIndex,
			SpokenAt:     seg.SpokenAt,
		})
	}
	c.JSON(http.StatusOK, success(views))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure("status is required"))
		return
	}
	if req.Status != string(store.CaseStatusCompleted) {
		c.JSON(http.StatusBadRequest, failure("only the completed status can be set"))
		return
	}
	if err := s.cases.CompleteCase(c.Request.Context(), c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		message := "failed to complete case"
		if isNotFound(err) {
			status = http.StatusNotFound
			message = "case not found"
		}
		c.JSON(status, failure(message))
		return
	}
	c.JSON(http.StatusOK, success(gin.H{"status": store.CaseStatusCompleted}))
}
