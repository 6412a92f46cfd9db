package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/api/metrics"
	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

// DraftHandler drives the submitter's in-progress form, including the
// expert proficiency confirmation.
type DraftHandler struct {
	drafts ports.DraftService
}

func NewDraftHandler(drafts ports.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// Get handles GET /v1/profile/draft.
//
// @Summary      Get form draft
// @Description  Returns the saved draft, or one prefilled from the stored profile.
// @Tags         draft
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  draftResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/profile/draft [get]
func (h *DraftHandler) Get(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	d, err := h.drafts.Get(c.Request().Context(), s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDraftResponse(d, false))
}

// UpdateDetails handles PATCH /v1/profile/draft.
//
// @Summary      Update name, institution and photo
// @Tags         draft
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      detailsRequest  true  "Form details"
// @Success      200   {object}  draftResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/profile/draft [patch]
func (h *DraftHandler) UpdateDetails(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req detailsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	d, err := h.drafts.UpdateDetails(c.Request().Context(), s, ports.DetailsInput{
		Name:        req.Name,
		Institution: req.Institution,
		Photo:       req.Photo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDraftResponse(d, false))
}

// AddSkill handles POST /v1/profile/draft/skills.
//
// @Summary      Add a language
// @Tags         draft
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addSkillRequest  true  "Language, starts at Beginner"
// @Success      201   {object}  draftResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/profile/draft/skills [post]
func (h *DraftHandler) AddSkill(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req addSkillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	d, err := h.drafts.AddSkill(c.Request().Context(), s, req.Language)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDraftResponse(d, false))
}

// EditSkill handles PATCH /v1/profile/draft/skills/:index. Raising a skill
// to Expert opens a confirmation; the response then carries the prompt.
//
// @Summary      Rename a language or change its proficiency
// @Tags         draft
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        index  path      int               true  "Skill index"
// @Param        body   body      editSkillRequest  true  "Fields to change"
// @Success      200    {object}  draftResponse
// @Failure      400    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /v1/profile/draft/skills/{index} [patch]
func (h *DraftHandler) EditSkill(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	index, err := skillIndex(c)
	if err != nil {
		return err
	}
	var req editSkillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	edit := ports.SkillEdit{Language: req.Language}
	if req.Proficiency != nil {
		p := domain.Proficiency(*req.Proficiency)
		edit.Proficiency = &p
	}

	res, err := h.drafts.EditSkill(c.Request().Context(), s, index, edit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDraftResponse(res.Draft, res.ConfirmationRequired))
}

// RemoveSkill handles DELETE /v1/profile/draft/skills/:index.
//
// @Summary      Remove a language
// @Tags         draft
// @Produce      json
// @Security     BearerAuth
// @Param        index  path      int  true  "Skill index"
// @Success      200    {object}  draftResponse
// @Failure      409    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /v1/profile/draft/skills/{index} [delete]
func (h *DraftHandler) RemoveSkill(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	index, err := skillIndex(c)
	if err != nil {
		return err
	}

	d, err := h.drafts.RemoveSkill(c.Request().Context(), s, index)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDraftResponse(d, false))
}

// AnswerConfirmation handles POST /v1/profile/draft/confirmation.
//
// @Summary      Answer the expert confirmation
// @Tags         draft
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      confirmationRequest  true  "Answer"
// @Success      200   {object}  draftResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/profile/draft/confirmation [post]
func (h *DraftHandler) AnswerConfirmation(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req confirmationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	d, err := h.drafts.AnswerConfirmation(c.Request().Context(), s, *req.Independent)
	if err != nil {
		return err
	}
	answer := "no"
	if *req.Independent {
		answer = "yes"
	}
	metrics.ConfirmationAnswersTotal.WithLabelValues(answer).Inc()

	return c.JSON(http.StatusOK, toDraftResponse(d, false))
}

// DismissConfirmation handles DELETE /v1/profile/draft/confirmation. The
// skill returns to the proficiency it had before the raise.
//
// @Summary      Dismiss the expert confirmation
// @Tags         draft
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  draftResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/profile/draft/confirmation [delete]
func (h *DraftHandler) DismissConfirmation(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	d, err := h.drafts.DismissConfirmation(c.Request().Context(), s)
	if err != nil {
		return err
	}
	metrics.ConfirmationAnswersTotal.WithLabelValues("dismissed").Inc()

	return c.JSON(http.StatusOK, toDraftResponse(d, false))
}

// Submit handles POST /v1/profile/draft/submit: upserts the draft as the
// caller's profile.
//
// @Summary      Submit the form
// @Tags         draft
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  profileResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/profile/draft/submit [post]
func (h *DraftHandler) Submit(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	p, err := h.drafts.Submit(c.Request().Context(), s)
	if err != nil {
		metrics.ProfileUpsertsTotal.WithLabelValues(upsertFailure(err)).Inc()
		return err
	}
	recordUpsert(p)

	return c.JSON(http.StatusOK, toProfileResponse(p))
}

func skillIndex(c echo.Context) (int, error) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "skill index must be an integer")
	}
	return i, nil
}
