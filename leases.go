package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func createLeaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.NewLeaseAgreement
		if !bindJSON(c, &input) {
			return
		}

		lease, err := models.CreateLeaseAgreement(c.Request.Context(), ownerId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lease)
	}
}

func getLeaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())

		lease, err := models.GetLeaseAgreement(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		// Only the two parties to the lease may read it.
		if lease.TenantId != userId && (lease.Condo == nil || lease.Condo.OwnerId != userId) {
			respondError(c, utils.ErrorRecordNotFound)
			return
		}
		c.JSON(http.StatusOK, lease)
	}
}

func endLeaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		lease, err := models.EndLeaseAgreement(c.Request.Context(), ownerId, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lease)
	}
}

func createMaintenanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.NewMaintenance
		if !bindJSON(c, &input) {
			return
		}

		maintenance, err := models.CreateMaintenance(c.Request.Context(), ownerId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, maintenance)
	}
}

type completeMaintenanceRequest struct {
	TotalCost *decimal.Decimal `json:"totalCost"`
}

func completeMaintenanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		var req completeMaintenanceRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}

		maintenance, err := models.CompleteMaintenance(c.Request.Context(), ownerId, c.Param("id"), req.TotalCost)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, maintenance)
	}
}
