package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/models/reports"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/gin-gonic/gin"
)

func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 1
	}
	return page
}

func createCondoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.NewCondo
		if !bindJSON(c, &input) {
			return
		}

		condo, err := models.CreateCondo(c.Request.Context(), ownerId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, condo)
	}
}

func listCondosHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		page, err := models.PaginateMyCondos(c.Request.Context(), ownerId, pageQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// getCondoHandler serves both sides: the landlord sees any condo they
// own, the tenant only the condo they occupy.
func getCondoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		role, _ := utils.GetUserRoleFromContext(c.Request.Context())

		var condo *models.Condo
		var err error
		if role == string(models.UserRoleLandlord) {
			condo, err = models.GetOwnedCondo(c.Request.Context(), userId, c.Param("id"))
		} else {
			condo, err = models.GetTenantCondo(c.Request.Context(), userId)
			if err == nil && condo.ID != c.Param("id") {
				respondError(c, utils.ErrorRecordNotFound)
				return
			}
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, condo)
	}
}

func updateCondoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.UpdateCondoInput
		if !bindJSON(c, &input) {
			return
		}

		condo, err := models.UpdateCondo(c.Request.Context(), ownerId, c.Param("id"), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, condo)
	}
}

func deleteCondoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		if err := models.DeleteCondo(c.Request.Context(), ownerId, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func condoStatisticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())
		condoId := c.Param("id")

		if _, err := models.GetOwnedCondo(c.Request.Context(), ownerId, condoId); err != nil {
			respondError(c, err)
			return
		}

		stats, err := reports.GetCondoPaymentStatistics(c.Request.Context(), condoId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func condoIncomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())
		condoId := c.Param("id")

		if _, err := models.GetOwnedCondo(c.Request.Context(), ownerId, condoId); err != nil {
			respondError(c, err)
			return
		}

		income, err := reports.GetCondoIncomeSummary(c.Request.Context(), condoId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, income)
	}
}
