// Recommendation and skill profile HTTP handlers.
//
// This file exposes:
//   - GET    /recommendations              (ranked mentors for the caller)
//   - GET    /skills                       (read-only catalog)
//   - GET    /me/skills                    (caller's HAVE and WANT lists)
//   - PUT    /me/skills/have               (set or replace a HAVE level)
//   - DELETE /me/skills/have/{skill_id}
//   - PUT    /me/skills/want               (add a WANT)
//   - DELETE /me/skills/want/{skill_id}
//   - GET    /users/{id}                   (another user's public profile)
package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/services"
)

const maxTopK = 50

//
// DTOs
//

// RecommendationsResponse wraps the ranked candidates.
type RecommendationsResponse struct {
	Candidates []services.Candidate `json:"candidates"`
}

// SkillsResponse wraps the skill catalog.
type SkillsResponse struct {
	Skills []domain.Skill `json:"skills"`
}

// SetHaveRequest asserts that the caller can teach a skill.
type SetHaveRequest struct {
	SkillID uint64 `json:"skill_id" binding:"required" example:"3"`
	Level   string `json:"level"    binding:"required" example:"advanced"`
}

// SetWantRequest records that the caller wants to learn a skill.
type SetWantRequest struct {
	SkillID uint64 `json:"skill_id" binding:"required" example:"7"`
}

//
// Handlers
//

// Recommendations godoc
// @ID          listRecommendations
// @Summary     Recommend mentors
// @Description Ranks every other user by cosine similarity between the caller's WANT vector
// @Description and the user's level-weighted HAVE vector. Users with no HAVE skills are excluded.
// @Tags        Matching
// @Produce     json
// @Security    BearerAuth
// @Param       top_k      query  int     false  "Maximum candidates"        minimum(1) maximum(50) default(5)
// @Param       min_score  query  number  false  "Minimum score in [0,1]"
// @Success     200  {object}  handlers.RecommendationsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /recommendations [get]
func (h *Handlers) Recommendations(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}

	topK := 0
	if raw := c.Query("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "top_k must be a positive integer")
			return
		}
		topK = min(n, maxTopK)
	}

	var minScore *float64
	if raw := c.Query("min_score"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "min_score must be a number in [0,1]")
			return
		}
		minScore = &f
	}

	out, err := h.recSvc.Recommend(c.Request.Context(), uid, topK, minScore)
	if err != nil {
		failService(c, err)
		return
	}
	if out == nil {
		out = []services.Candidate{}
	}
	ok(c, http.StatusOK, RecommendationsResponse{Candidates: out})
}

// ListSkills godoc
// @ID          listSkills
// @Summary     List the skill catalog
// @Tags        Skills
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.SkillsResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /skills [get]
func (h *Handlers) ListSkills(c *gin.Context) {
	skills, err := h.profSvc.Catalog(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	if skills == nil {
		skills = []domain.Skill{}
	}
	ok(c, http.StatusOK, SkillsResponse{Skills: skills})
}

// MySkills godoc
// @ID          getMySkills
// @Summary     Get the caller's profile and skills
// @Tags        Skills
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse  "User not provisioned"
// @Router      /me/skills [get]
func (h *Handlers) MySkills(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	h.writeProfile(c, uid)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user's public profile
// @Tags        Skills
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	if _, found := currentUser(c); !found {
		return
	}
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	h.writeProfile(c, id)
}

func (h *Handlers) writeProfile(c *gin.Context, uid uint64) {
	u, err := h.profSvc.Get(c.Request.Context(), uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// SetHave godoc
// @ID          setHaveSkill
// @Summary     Set a skill the caller can teach
// @Description Replaces the level when the skill is already asserted.
// @Tags        Skills
// @Accept      json
// @Security    BearerAuth
// @Param       body  body  handlers.SetHaveRequest  true  "Skill and level (beginner, intermediate, advanced)"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown skill"
// @Router      /me/skills/have [put]
func (h *Handlers) SetHave(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	var req SetHaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "skill_id and level required")
		return
	}
	if err := h.profSvc.SetHave(c.Request.Context(), uid, req.SkillID, req.Level); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// RemoveHave godoc
// @ID          removeHaveSkill
// @Summary     Remove a skill the caller can teach
// @Tags        Skills
// @Security    BearerAuth
// @Param       skill_id  path  int  true  "Skill ID"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /me/skills/have/{skill_id} [delete]
func (h *Handlers) RemoveHave(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	sid, valid := idParam(c, "skill_id")
	if !valid {
		return
	}
	if err := h.profSvc.RemoveHave(c.Request.Context(), uid, sid); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// SetWant godoc
// @ID          setWantSkill
// @Summary     Add a skill the caller wants to learn
// @Tags        Skills
// @Accept      json
// @Security    BearerAuth
// @Param       body  body  handlers.SetWantRequest  true  "Skill"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown skill"
// @Router      /me/skills/want [put]
func (h *Handlers) SetWant(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	var req SetWantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "skill_id required")
		return
	}
	if err := h.profSvc.SetWant(c.Request.Context(), uid, req.SkillID); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// RemoveWant godoc
// @ID          removeWantSkill
// @Summary     Remove a skill the caller wants to learn
// @Tags        Skills
// @Security    BearerAuth
// @Param       skill_id  path  int  true  "Skill ID"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /me/skills/want/{skill_id} [delete]
func (h *Handlers) RemoveWant(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	sid, valid := idParam(c, "skill_id")
	if !valid {
		return
	}
	if err := h.profSvc.RemoveWant(c.Request.Context(), uid, sid); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
