package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/services"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessionService   services.SessionService
	responseService  services.ResponseService
	violationService services.ViolationService
	recoveryService  services.RecoveryService
	validator        *utils.Validator
}

func NewSessionHandler(
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:      NewBaseHandler(logger),
		sessionService:   serviceManager.Session(),
		responseService:  serviceManager.Response(),
		violationService: serviceManager.Violation(),
		recoveryService:  serviceManager.Recovery(),
		validator:        validator,
	}
}

// FinalizeSessionRequest carries the finalize cause from the caller.
type FinalizeSessionRequest struct {
	Cause string `json:"cause" validate:"required,finalize_cause"`
}

// BulkSaveRequest carries a batch of responses flushed after reconnect.
type BulkSaveRequest struct {
	Responses []services.SaveResponseRequest `json:"responses" validate:"required,min=1,max=500"`
}

// StartSession starts a new exam session or resumes the active one
// @Summary Start or resume session
// @Description Starts a session for the authenticated student, or returns the existing in-progress session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.StartSessionRequest true "Session data"
// @Success 200 {object} services.SessionResult
// @Success 201 {object} services.SessionResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID := StudentIDFromContext(c)
	if studentID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Student not authenticated",
		})
		return
	}

	h.LogRequest(c, "Starting session", "exam_id", req.ExamID)

	result, err := h.sessionService.StartOrResume(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// GetSession retrieves a session by ID
// @Summary Get session
// @Description Retrieves a session with its current server-side state
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} models.ExamSession
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// FinalizeSession finalizes a session with the given cause
// @Summary Finalize session
// @Description Finalizes the session exactly once; repeated calls return the stored outcome
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param finalize body FinalizeSessionRequest true "Finalize cause"
// @Success 200 {object} services.FinalizeResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/finalize [post]
func (h *SessionHandler) FinalizeSession(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req FinalizeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Finalizing session", "session_id", id, "cause", req.Cause)

	result, err := h.sessionService.Finalize(c.Request.Context(), id, models.SubmissionType(req.Cause))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SaveResponse upserts a single question response
// @Summary Save response
// @Description Saves or overwrites the student's answer for one question
// @Tags responses
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param response body services.SaveResponseRequest true "Response data"
// @Success 200 {object} models.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/responses [put]
func (h *SessionHandler) SaveResponse(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SaveResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	response, err := h.responseService.SaveResponse(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// BulkSaveResponses saves a batch of responses
// @Summary Bulk save responses
// @Description Saves queued responses after a reconnect; items are applied independently
// @Tags responses
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param batch body BulkSaveRequest true "Batched responses"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/responses/bulk [post]
func (h *SessionHandler) BulkSaveResponses(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req BulkSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	saved, err := h.responseService.BulkSaveResponses(c.Request.Context(), id, req.Responses)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Responses saved",
		Data: gin.H{
			"saved":     saved,
			"submitted": len(req.Responses),
		},
	})
}

// LogViolation records a proctoring violation
// @Summary Log violation
// @Description Appends a violation to the session ledger and reports whether the termination threshold is reached
// @Tags violations
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param violation body services.LogViolationRequest true "Violation data"
// @Success 200 {object} services.ViolationResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/violations [post]
func (h *SessionHandler) LogViolation(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.LogViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.violationService.LogViolation(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SaveSnapshot stores a periodic client state snapshot
// @Summary Save snapshot
// @Description Appends a session state snapshot used for crash recovery
// @Tags recovery
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param snapshot body services.SnapshotRequest true "Snapshot data"
// @Success 201 {object} models.SessionSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/snapshots [post]
func (h *SessionHandler) SaveSnapshot(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	snapshot, err := h.recoveryService.SaveSnapshot(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snapshot)
}

// GetRecoveryData returns everything a client needs to rebuild its state
// @Summary Get recovery data
// @Description Returns the latest snapshot plus server-computed remaining time
// @Tags recovery
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} services.RecoveryData
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/recovery [get]
func (h *SessionHandler) GetRecoveryData(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Fetching recovery data", "session_id", id)

	data, err := h.recoveryService.GetRecoveryData(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// handleServiceError maps service errors to HTTP responses
func (h *SessionHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var causeError *services.FinalizeCauseError
	if errors.As(err, &causeError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: causeError.Error(),
			Code:    "INVALID_FINALIZE_CAUSE",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Session not found",
			Code:    "SESSION_NOT_FOUND",
		})
	case errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exam not found",
			Code:    "EXAM_NOT_FOUND",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found for this exam",
			Code:    "QUESTION_NOT_FOUND",
		})
	case errors.Is(err, services.ErrNoRecoveryData):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No recovery data available",
			Code:    "NO_RECOVERY_DATA",
		})
	case errors.Is(err, services.ErrSessionNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Session is no longer in progress",
			Code:    "SESSION_NOT_ACTIVE",
		})
	case errors.Is(err, services.ErrExamNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exam is not open for sessions",
			Code:    "EXAM_NOT_ACTIVE",
		})
	case errors.Is(err, services.ErrPolicyMissing):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Exam policy is incomplete",
			Code:    "POLICY_MISSING",
		})
	case errors.Is(err, services.ErrValidationFailed), errors.Is(err, services.ErrAnswerShape):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: err.Error(),
		})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
