package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lifeos/internal/services"
)

// JobHandler exposes the scheduled jobs to an external cron trigger.
type JobHandler struct {
	jobs services.RenewalJobServicer
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs services.RenewalJobServicer) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// jobDay is the "date" query parameter, or today in the default timezone.
func jobDay(c *gin.Context) (time.Time, error) {
	d, err := queryDate(c, "date")
	if err != nil {
		return time.Time{}, err
	}
	if d != nil {
		return *d, nil
	}
	return today(c)
}

// RunRenewalReminders triggers the renewal reminder job.
// @Summary     Run renewal reminders
// @Description Sends the reminders due on the given day. Safe to call repeatedly.
// @Tags        jobs
// @Produce     json
// @Param       date query string false "Reference day (YYYY-MM-DD), defaults to today"
// @Success     200 {object} services.JobReport "Job report"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Invalid or missing API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/renewal-reminders [post]
// @Security    JobKey
func (h *JobHandler) RunRenewalReminders(c *gin.Context) {
	day, err := jobDay(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.jobs.RunRenewalReminders(c.Request.Context(), day)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// RunAutoRenewals triggers the auto-renewal expense job.
// @Summary     Run auto-renewals
// @Description Records the renewal expense of every due auto-renewing subscription and advances its billing date
// @Tags        jobs
// @Produce     json
// @Param       date query string false "Reference day (YYYY-MM-DD), defaults to today"
// @Success     200 {object} services.JobReport "Job report"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Invalid or missing API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/auto-renewals [post]
// @Security    JobKey
func (h *JobHandler) RunAutoRenewals(c *gin.Context) {
	day, err := jobDay(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.jobs.RunAutoRenewals(c.Request.Context(), day)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// RunDaily triggers both jobs in order.
// @Summary     Run daily jobs
// @Description Renewal reminders followed by auto-renewals
// @Tags        jobs
// @Produce     json
// @Param       date query string false "Reference day (YYYY-MM-DD), defaults to today"
// @Success     200 {array}  services.JobReport "Job reports"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Invalid or missing API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/daily [post]
// @Security    JobKey
func (h *JobHandler) RunDaily(c *gin.Context) {
	day, err := jobDay(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reports, err := services.RunDaily(c.Request.Context(), h.jobs, day)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
