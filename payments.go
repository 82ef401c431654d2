package main

import (
	"net/http"
	"sync"

	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/paygate"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"bitbucket.org/mmdatafocus/condopal_backend/workflow"
	"github.com/gin-gonic/gin"
)

var (
	gatewayOnce   sync.Once
	gatewayClient workflow.GatewayClient
	gatewayErr    error
)

func getGatewayClient() (workflow.GatewayClient, error) {
	gatewayOnce.Do(func() {
		gatewayClient, gatewayErr = paygate.NewClient()
	})
	return gatewayClient, gatewayErr
}

// canAccessPayment allows the condo owner and the paying tenant.
func canAccessPayment(userId string, payment *models.CondoPayment) bool {
	if payment.TenantId == userId {
		return true
	}
	return payment.Condo != nil && payment.Condo.OwnerId == userId
}

// getBillHandler previews the next charge before any payment is created:
// billing month, due date and the cost breakdown.
func getBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		role, _ := utils.GetUserRoleFromContext(c.Request.Context())

		var condoId string
		if role == string(models.UserRoleLandlord) {
			condoId = c.Query("condoId")
			if condoId == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "condoId is required"})
				return
			}
			if _, err := models.GetOwnedCondo(c.Request.Context(), userId, condoId); err != nil {
				respondError(c, err)
				return
			}
		} else {
			condo, err := models.GetTenantCondo(c.Request.Context(), userId)
			if err != nil {
				respondError(c, err)
				return
			}
			condoId = condo.ID
		}

		charge, err := models.ComputeCharge(c.Request.Context(), condoId, userId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, charge)
	}
}

type createManualPaymentRequest struct {
	CondoId string `json:"condoId" binding:"required"`
}

func createManualPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createManualPaymentRequest
		if !bindJSON(c, &req) {
			return
		}

		payment, err := workflow.CreateManualPayment(c.Request.Context(), req.CondoId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

type createReceiptPaymentRequest struct {
	ReceiptImageUrl string `json:"receiptImageUrl" binding:"required"`
}

func createReceiptPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createReceiptPaymentRequest
		if !bindJSON(c, &req) {
			return
		}

		payment, err := workflow.CreateReceiptPayment(c.Request.Context(), req.ReceiptImageUrl)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func createGatewayPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gateway, err := getGatewayClient()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway is not configured"})
			return
		}

		checkout, err := workflow.CreateGatewayPayment(c.Request.Context(), gateway)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, checkout)
	}
}

type verifyReceiptRequest struct {
	Decision string `json:"decision" binding:"required"`
}

func verifyReceiptPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyReceiptRequest
		if !bindJSON(c, &req) {
			return
		}

		payment, err := workflow.VerifyReceiptPayment(c.Request.Context(), c.Param("id"), models.ReceiptVerificationStatus(req.Decision))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func verifyGatewayPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())

		payment, err := models.GetCondoPayment(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !canAccessPayment(userId, payment) {
			respondError(c, utils.ErrorRecordNotFound)
			return
		}

		gateway, err := getGatewayClient()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway is not configured"})
			return
		}

		verification, err := workflow.VerifyGatewayPayment(c.Request.Context(), gateway, payment.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, verification)
	}
}

func getPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())

		payment, err := models.GetCondoPayment(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !canAccessPayment(userId, payment) {
			respondError(c, utils.ErrorRecordNotFound)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func paymentFilterFromQuery(c *gin.Context) models.CondoPaymentFilter {
	return models.CondoPaymentFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		Channel: c.Query("channel"),
		CondoId: c.Query("condoId"),
		Page:    pageQuery(c),
	}
}

func listLandlordPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		page, err := models.PaginateLandlordPayments(c.Request.Context(), ownerId, paymentFilterFromQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func listTenantPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, _ := utils.GetUserIdFromContext(c.Request.Context())

		page, err := models.PaginateTenantPayments(c.Request.Context(), tenantId, pageQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
