package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/service"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/models"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RoleResolver maps verified claims to a local user with an application role.
type RoleResolver interface {
	EnsureRole(ctx context.Context, claims map[string]interface{}) (*models.User, error)
}

type Handler struct {
	svc   *service.Service
	roles RoleResolver
}

// New returns a Handler. With a nil resolver the role is read from the "role"
// claim of the access token.
func New(svc *service.Service, roles RoleResolver) *Handler {
	return &Handler{svc: svc, roles: roles}
}

// Register mounts the contract API on rg. Authentication is applied by the caller.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/contracts", h.listContracts)
	rg.POST("/contracts", h.withActor(h.createContract))
	rg.GET("/contracts/:id", h.getContract)
	rg.PATCH("/contracts/:id", h.withActor(h.updateContract))
	rg.DELETE("/contracts/:id", h.withActor(h.deleteContract))
	rg.GET("/contracts/:id/transitions", h.transitions)
	rg.POST("/contracts/:id/status", h.withActor(h.changeStatus))
	rg.GET("/contracts/:id/history", h.withActor(h.history))

	rg.GET("/contracts/:id/obligations", h.listContractObligations)
	rg.POST("/contracts/:id/obligations", h.createObligation)
	rg.GET("/obligations", h.listObligations)
	rg.POST("/obligations/:id/complete", h.completeObligation)
	rg.DELETE("/obligations/:id", h.withActor(h.deleteObligation))

	rg.GET("/contracts/:id/files", h.listFiles)
	rg.POST("/contracts/:id/files", h.withActor(h.uploadFile))
	rg.GET("/files/:id/download", h.downloadFile)
	rg.GET("/files/:id/url", h.fileURL)
	rg.DELETE("/files/:id", h.withActor(h.deleteFile))

	rg.GET("/categories", h.listCategories)
	rg.POST("/categories", h.withActor(h.createCategory))
	rg.DELETE("/categories/:id", h.withActor(h.deleteCategory))

	rg.GET("/dashboard", h.dashboard)
	rg.GET("/export/contracts.xlsx", h.export)
}

// actor resolves the caller. The first request of a new user creates the
// local user record with its role.
func (h *Handler) actor(c *gin.Context) (service.Actor, error) {
	claims := middleware.Claims(c)
	a := service.Actor{
		UserID: middleware.ClaimString(c, "sub"),
		Email:  middleware.ClaimString(c, "email"),
		Name:   middleware.ClaimString(c, "name"),
	}
	if claims == nil || a.UserID == "" {
		return a, nil
	}
	if h.roles == nil {
		a.Admin = middleware.ClaimString(c, "role") == string(models.RoleAdmin)
		return a, nil
	}
	u, err := h.roles.EnsureRole(c.Request.Context(), claims)
	if err != nil {
		return a, fmt.Errorf("resolve role: %w", err)
	}
	if u != nil {
		if u.Name != "" {
			a.Name = u.Name
		}
		if u.Email != "" {
			a.Email = u.Email
		}
		a.Admin = u.IsAdmin()
	}
	return a, nil
}

// withActor wraps handlers that need the caller identity.
func (h *Handler) withActor(fn func(*gin.Context, service.Actor)) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := h.actor(c)
		if err != nil {
			respondError(c, err)
			return
		}
		fn(c, a)
	}
}

func respondError(c *gin.Context, err error) {
	var ve *contract.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": ve.Fields})
	case errors.Is(err, contract.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, contract.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, contract.ErrConflict), errors.Is(err, contract.ErrTerminalStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.FromContext(c.Request.Context()).Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func contractFilter(c *gin.Context) contract.ContractFilter {
	return contract.ContractFilter{
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		CategoryID: c.Query("category"),
	}
}

func (h *Handler) listContracts(c *gin.Context) {
	list, err := h.svc.ListContracts(c.Request.Context(), contractFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractViews(list, h.svc.Now()))
}

func (h *Handler) createContract(c *gin.Context, a service.Actor) {
	var req contractRequest
	var attachments []service.Attachment
	defer func() { closeAttachments(attachments) }()
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := json.Unmarshal([]byte(c.PostForm("contract")), &req); err != nil {
			badRequest(c, fmt.Errorf("contract field: %w", err))
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			badRequest(c, err)
			return
		}
		for _, fh := range form.File["attachments"] {
			att, err := openAttachment(fh, false)
			if err != nil {
				badRequest(c, err)
				return
			}
			attachments = append(attachments, att)
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	created, failed, err := h.svc.CreateContractRequest(c.Request.Context(), a, req.input(), attachments...)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"contract": newContractView(created, h.svc.Now())}
	if len(failed) > 0 {
		errs := make([]gin.H, 0, len(failed))
		for _, f := range failed {
			errs = append(errs, gin.H{"fileName": f.FileName, "error": f.Err.Error()})
		}
		resp["attachmentErrors"] = errs
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) getContract(c *gin.Context) {
	ct, err := h.svc.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	v := newContractView(ct, h.svc.Now())
	v.Transitions = contract.TransitionTargets(ct.Status)
	c.JSON(http.StatusOK, v)
}

func (h *Handler) updateContract(c *gin.Context, a service.Actor) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Status != nil {
		badRequest(c, errors.New("status is changed through POST /contracts/:id/status"))
		return
	}
	ct, err := h.svc.UpdateContract(c.Request.Context(), a, c.Param("id"), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContractView(ct, h.svc.Now()))
}

func (h *Handler) deleteContract(c *gin.Context, a service.Actor) {
	if err := h.svc.DeleteContract(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) transitions(c *gin.Context) {
	targets, err := h.svc.Transitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]contract.Badge, 0, len(targets))
	for _, s := range targets {
		out = append(out, contract.StatusBadge(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) changeStatus(c *gin.Context, a service.Actor) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ct, err := h.svc.ChangeStatus(c.Request.Context(), a, c.Param("id"), contract.Status(req.Status), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContractView(ct, h.svc.Now()))
}

func (h *Handler) history(c *gin.Context, a service.Actor) {
	hs, err := h.svc.StatusHistory(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyViews(hs))
}

func (h *Handler) listContractObligations(c *gin.Context) {
	es, err := h.svc.ListContractObligations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obligationViews(es))
}

func (h *Handler) createObligation(c *gin.Context) {
	var req obligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.svc.CreateObligation(c.Request.Context(), c.Param("id"), service.ObligationInput{
		Type:        contract.ObligationType(req.Type),
		Description: req.Description,
		DueDate:     req.DueDate.ptr(),
		Amount:      req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) listObligations(c *gin.Context) {
	es, err := h.svc.ListObligations(c.Request.Context(), contract.ObligationFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obligationViews(es))
}

func (h *Handler) completeObligation(c *gin.Context) {
	o, err := h.svc.MarkObligationCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) deleteObligation(c *gin.Context, a service.Actor) {
	if err := h.svc.DeleteObligation(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// closeAttachments releases the uploaded parts opened so far.
func closeAttachments(atts []service.Attachment) {
	for _, att := range atts {
		if cl, ok := att.Body.(io.Closer); ok {
			cl.Close()
		}
	}
}

func openAttachment(fh *multipart.FileHeader, liquidation bool) (service.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Attachment{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	return service.Attachment{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
		Liquidation: liquidation,
	}, nil
}

func (h *Handler) listFiles(c *gin.Context) {
	files, err := h.svc.ListFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) uploadFile(c *gin.Context, a service.Actor) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file: %w", err))
		return
	}
	liquidation := false
	if v := c.PostForm("isLiquidation"); v != "" {
		if liquidation, err = strconv.ParseBool(v); err != nil {
			badRequest(c, fmt.Errorf("isLiquidation: %w", err))
			return
		}
	}
	att, err := openAttachment(fh, liquidation)
	if err != nil {
		badRequest(c, err)
		return
	}
	defer closeAttachments([]service.Attachment{att})

	f, err := h.svc.UploadFile(c.Request.Context(), a, c.Param("id"), att)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) downloadFile(c *gin.Context) {
	f, rc, err := h.svc.OpenFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, f.FileType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", f.FileName),
	})
}

func (h *Handler) fileURL(c *gin.Context) {
	url, err := h.svc.FileURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) deleteFile(c *gin.Context, a service.Actor) {
	if err := h.svc.DeleteFile(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *Handler) createCategory(c *gin.Context, a service.Actor) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), a, req.Name, req.Icon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) deleteCategory(c *gin.Context, a service.Actor) {
	if err := h.svc.DeleteCategory(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) dashboard(c *gin.Context) {
	s, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDashboardView(s))
}

func (h *Handler) export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportContracts(c.Request.Context(), contractFilter(c), &buf); err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("contracts_%s.xlsx", h.svc.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, service.ExportContentType, buf.Bytes())
}
