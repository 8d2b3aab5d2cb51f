package controllers

import (
	"context"
	"net/http"

	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubmissionController struct {
	submissions *services.SubmissionService
}

func NewSubmissionController(submissions *services.SubmissionService) *SubmissionController {
	return &SubmissionController{submissions: submissions}
}

// Submit handles POST /submissions
func (sc *SubmissionController) Submit(c echo.Context) error {
	var req models.SubmitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	taskID, err := utils.ParseObjectID(req.TaskID)
	if err != nil {
		return respondError(c, models.ErrTaskNotFound)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sub, err := sc.submissions.Submit(ctx, middleware.GetUser(c).Email, taskID, utils.SanitizeInput(req.SubmissionDetails))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Submission created successfully",
		Data:    sub,
	})
}

// MySubmissions handles GET /my-submissions
func (sc *SubmissionController) MySubmissions(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	subs, err := sc.submissions.ListMine(ctx, middleware.GetUser(c).Email)
	return sc.list(c, subs, err)
}

// PendingSubmissions handles GET /pending-submissions
func (sc *SubmissionController) PendingSubmissions(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	subs, err := sc.submissions.ListPendingForBuyer(ctx, middleware.GetUser(c).Email)
	return sc.list(c, subs, err)
}

// ApprovedSubmissions handles GET /approved-submissions
func (sc *SubmissionController) ApprovedSubmissions(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	subs, err := sc.submissions.ListApprovedForWorker(ctx, middleware.GetUser(c).Email)
	return sc.list(c, subs, err)
}

func (sc *SubmissionController) list(c echo.Context, subs []models.Submission, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Submissions retrieved successfully",
		Data:    subs,
	})
}

// ApproveSubmission handles PATCH /approve-submission/:id
func (sc *SubmissionController) ApproveSubmission(c echo.Context) error {
	return sc.review(c, sc.submissions.Approve, "Submission approved successfully")
}

// RejectSubmission handles PATCH /reject-submission/:id
func (sc *SubmissionController) RejectSubmission(c echo.Context) error {
	return sc.review(c, sc.submissions.Reject, "Submission rejected successfully")
}

type reviewFunc func(ctx context.Context, buyerEmail string, id primitive.ObjectID) (*models.Submission, bool, error)

func (sc *SubmissionController) review(c echo.Context, fn reviewFunc, message string) error {
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		return respondError(c, models.ErrSubmissionNotFound)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sub, changed, err := fn(ctx, middleware.GetUser(c).Email, id)
	if err != nil {
		return respondError(c, err)
	}
	if !changed {
		message = "Submission already " + string(sub.Status)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data: map[string]interface{}{
			"submission": sub,
			"modified":   changed,
		},
	})
}
