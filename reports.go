package main

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/models/reports"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/gin-gonic/gin"
)

func paymentsSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		summary, err := reports.GetLandlordPaymentsSummary(c.Request.Context(), ownerId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// exportPaymentsHandler streams the filtered payment list as an xlsx
// download.
func exportPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, _ := utils.GetUserIdFromContext(c.Request.Context())
		filter := paymentFilterFromQuery(c)

		file, err := reports.ExportPaymentsExcel(c.Request.Context(), ownerId, filter)
		if err != nil {
			respondError(c, err)
			return
		}

		filename := fmt.Sprintf("payments-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		if err := file.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "reports.go", "exportPaymentsHandler", "write xlsx", ownerId, err)
		}
	}
}
