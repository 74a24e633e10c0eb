package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/service"
	"library-backend/internal/shared/response"
)

// Handler is the HTTP layer for loans.
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// callerScope reads the authenticated identity set by the auth
// middleware.
func callerScope(c *gin.Context) (uuid.UUID, bool) {
	userID, _ := c.MustGet("userID").(uuid.UUID)
	return userID, c.GetString("role") == "admin"
}

func parseListRequest(c *gin.Context) model.ListLoansRequest {
	req := model.ListLoansRequest{
		Search:  c.Query("search"),
		Sort:    c.DefaultQuery("sort", "newest"),
		Status:  c.Query("status"),
		Page:    1,
		PerPage: 20,
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			req.Page = p
		}
	}
	if perPageStr := c.Query("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 && pp <= 100 {
			req.PerPage = pp
		}
	}

	return req
}

// ListLoans - GET /v1/loans
// Query params: page, per_page, search, sort, status, user_id.
// Non-admin callers only ever see their own loans.
func (h *Handler) ListLoans(c *gin.Context) {
	callerID, isAdmin := callerScope(c)
	req := parseListRequest(c)

	if isAdmin {
		if userIDStr := c.Query("user_id"); userIDStr != "" {
			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				response.BadRequest(c, "invalid user_id")
				return
			}
			req.UserID = &userID
		}
	} else {
		req.UserID = &callerID
	}

	result, err := h.service.ListLoans(c.Request.Context(), req)
	if model.HandleLoanError(c, err) {
		return
	}

	meta := response.NewMeta(req.Page, req.PerPage, result.Total, req.Search)
	if req.UserID != nil {
		meta = meta.WithGrandTotal(result.GrandTotal)
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Loans, meta)
}

// GetLoan - GET /v1/loans/:id
func (h *Handler) GetLoan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid loan id")
		return
	}

	loan, err := h.service.GetLoan(c.Request.Context(), id)
	if model.HandleLoanError(c, err) {
		return
	}

	callerID, isAdmin := callerScope(c)
	if !isAdmin && loan.UserID != callerID {
		response.Forbidden(c, "you can only view your own loans")
		return
	}

	response.Success(c, http.StatusOK, loan)
}

// CreateLoan - POST /v1/loans
// Non-admin callers can only borrow for themselves.
func (h *Handler) CreateLoan(c *gin.Context) {
	var req model.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	callerID, isAdmin := callerScope(c)
	if req.UserID == uuid.Nil {
		req.UserID = callerID
	}
	if !isAdmin && req.UserID != callerID {
		response.Forbidden(c, "you can only borrow for yourself")
		return
	}

	loan, err := h.service.CreateLoan(c.Request.Context(), req)
	if model.HandleLoanError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, loan)
}

// UpdateLoan - PUT /v1/loans/:id (admin)
func (h *Handler) UpdateLoan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid loan id")
		return
	}

	var req model.UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	loan, err := h.service.UpdateLoan(c.Request.Context(), id, req)
	if model.HandleLoanError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, loan)
}

// ReturnLoan - POST /v1/loans/:id/return
// Borrowers can return their own loans; admins can return any.
func (h *Handler) ReturnLoan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid loan id")
		return
	}

	existing, err := h.service.GetLoan(c.Request.Context(), id)
	if model.HandleLoanError(c, err) {
		return
	}

	callerID, isAdmin := callerScope(c)
	if !isAdmin && existing.UserID != callerID {
		response.Forbidden(c, "you can only return your own loans")
		return
	}

	loan, err := h.service.ReturnLoan(c.Request.Context(), id)
	if model.HandleLoanError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, loan)
}

// DeleteLoan - DELETE /v1/loans/:id (admin)
func (h *Handler) DeleteLoan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid loan id")
		return
	}

	result, err := h.service.DeleteLoan(c.Request.Context(), id)
	if model.HandleLoanError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ExportLoans - GET /v1/loans/export (admin)
// Streams the filtered loan set as an xlsx attachment.
func (h *Handler) ExportLoans(c *gin.Context) {
	req := parseListRequest(c)

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		req.UserID = &userID
	}

	data, err := h.service.ExportLoans(c.Request.Context(), req)
	if model.HandleLoanError(c, err) {
		return
	}

	filename := fmt.Sprintf("loans-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
