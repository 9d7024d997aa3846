package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"receiptbook/api/internal/middleware"
	"receiptbook/api/internal/models"
	"receiptbook/api/internal/repository"
)

// receiptOwner resolves the target receipt to its creator for the
// ownership check on mutating routes.
func (h HandlerSet) receiptOwner(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, middleware.ErrResourceNotFound
	}

	receipt, err := h.receipts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			return 0, middleware.ErrResourceNotFound
		}
		return 0, err
	}
	return receipt.CreatedBy, nil
}

type receiptResponse struct {
	ID          int64     `json:"id"`
	ReceiptNo   string    `json:"receipt_no"`
	ReceiptDate time.Time `json:"receipt_date"`
	DonorName   string    `json:"donor_name"`
	Village     string    `json:"village"`
	Mobile      string    `json:"mobile"`
	PaymentMode string    `json:"payment_mode"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toReceiptResponse(rc models.Receipt) receiptResponse {
	return receiptResponse{
		ID:          rc.ID,
		ReceiptNo:   rc.ReceiptNo,
		ReceiptDate: rc.ReceiptDate,
		DonorName:   rc.DonorName,
		Village:     rc.Village,
		Mobile:      rc.Mobile,
		PaymentMode: string(rc.PaymentMode),
		TotalAmount: rc.TotalAmount,
		Status:      string(rc.Status),
		CreatedBy:   rc.CreatedBy,
		CreatedAt:   rc.CreatedAt,
		UpdatedAt:   rc.UpdatedAt,
	}
}

func (h HandlerSet) ListReceipts(c *gin.Context) {
	limit := 50
	offset := 0
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	var createdBy int64
	if creator := c.Query("createdBy"); creator != "" {
		if v, err := strconv.ParseInt(creator, 10, 64); err == nil {
			createdBy = v
		}
	}

	receipts, err := h.receipts.List(c.Request.Context(), createdBy, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list receipts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]receiptResponse, 0, len(receipts))
	for _, rc := range receipts {
		items = append(items, toReceiptResponse(rc))
	}
	c.JSON(http.StatusOK, gin.H{"receipts": items})
}

func (h HandlerSet) GetReceipt(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt id"})
		return
	}

	receipt, err := h.receipts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get receipt failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"receipt": toReceiptResponse(receipt)})
}

type receiptRequest struct {
	ReceiptNo   string    `json:"receipt_no" binding:"required,max=50"`
	ReceiptDate time.Time `json:"receipt_date" binding:"required"`
	DonorName   string    `json:"donor_name" binding:"required,max=255"`
	Village     string    `json:"village"`
	Mobile      string    `json:"mobile" binding:"max=15"`
	PaymentMode string    `json:"payment_mode" binding:"required"`
	TotalAmount float64   `json:"total_amount" binding:"required,gt=0"`
	Status      string    `json:"status"`
}

func (h HandlerSet) CreateReceipt(c *gin.Context) {
	user, _, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidPaymentMode(models.PaymentMode(req.PaymentMode)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_mode must be Cash, Check, or Online"})
		return
	}

	status := models.ReceiptStatus(req.Status)
	if status == "" {
		status = models.ReceiptStatusCompleted
	}

	receipt := models.Receipt{
		ReceiptNo:   req.ReceiptNo,
		ReceiptDate: req.ReceiptDate,
		DonorName:   req.DonorName,
		Village:     req.Village,
		Mobile:      req.Mobile,
		PaymentMode: models.PaymentMode(req.PaymentMode),
		TotalAmount: req.TotalAmount,
		Status:      status,
		CreatedBy:   user.ID,
	}

	id, err := h.receipts.Create(c.Request.Context(), receipt)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNoTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "receipt_no_taken"})
			return
		}
		h.log.Error().Err(err).Msg("create receipt failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	receipt.ID = id

	c.JSON(http.StatusCreated, gin.H{"receipt": toReceiptResponse(receipt)})
}

func (h HandlerSet) UpdateReceipt(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt id"})
		return
	}

	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidPaymentMode(models.PaymentMode(req.PaymentMode)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_mode must be Cash, Check, or Online"})
		return
	}

	receipt, err := h.receipts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get receipt failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	receipt.ReceiptDate = req.ReceiptDate
	receipt.DonorName = req.DonorName
	receipt.Village = req.Village
	receipt.Mobile = req.Mobile
	receipt.PaymentMode = models.PaymentMode(req.PaymentMode)
	receipt.TotalAmount = req.TotalAmount
	if req.Status != "" {
		receipt.Status = models.ReceiptStatus(req.Status)
	}

	if err := h.receipts.Update(c.Request.Context(), receipt); err != nil {
		h.log.Error().Err(err).Msg("update receipt failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"receipt": toReceiptResponse(receipt)})
}

func (h HandlerSet) DeleteReceipt(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt id"})
		return
	}

	if err := h.receipts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("delete receipt failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ExportReceipts(c *gin.Context) {
	result, err := h.exportService.ExportReceiptsCSV(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("export receipts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"export": result})
}
