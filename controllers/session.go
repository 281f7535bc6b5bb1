package controllers

import (
	dinder_constants "Dinder/constants/dinder"
	"Dinder/middleware"
	session_models "Dinder/models/session"
	"Dinder/services/node"
	"Dinder/services/session"
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type hostRequest struct {
	Name string `json:"name" binding:"required"`
}

type joinRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type roundRequest struct {
	Location  string   `json:"location" binding:"required"`
	Radius    float64  `json:"radius"`
	Prices    []string `json:"prices"`
	MinRating *float64 `json:"min_rating"`
}

type candidateRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}

// statusFor maps a node or session error to the HTTP status shown to the UI
func statusFor(err error) int {
	switch {
	case errors.Is(err, node.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, node.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, node.ErrInvalidCode),
		errors.Is(err, session.ErrUnknownCandidate),
		errors.Is(err, session.ErrUnknownParticipant):
		return http.StatusBadRequest
	case errors.Is(err, node.ErrSessionActive),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrNotSwiping),
		errors.Is(err, session.ErrClosed):
		return http.StatusConflict
	case session.IsProviderError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		return
	}
	log.Printf("[SESSION-ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindParticipant(c *gin.Context, st node.State) {
	s := sessions.Default(c)
	s.Set(middleware.ParticipantKey, st.Self.ID)
	if err := s.Save(); err != nil {
		log.Printf("[SESSION-ERROR] Error saving cookie session: %v", err)
	}
}

// @Summary Hosts a new session
// @Description Creates a session with the caller as host and returns its state
// @Tags session
// @Accept json
// @Produce json
// @Param body body hostRequest true "Display name of the host"
// @Success 200 {object} node.State
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /session/host [post]
func HostSession(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req hostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
			return
		}

		st, err := n.Host(req.Name)
		if err != nil {
			fail(c, err)
			return
		}
		bindParticipant(c, st)
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Joins a session
// @Description Sends a join request for the given code. The returned state is pending until the host admits the guest.
// @Tags session
// @Accept json
// @Produce json
// @Param body body joinRequest true "Display name and session code"
// @Success 200 {object} node.State
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /session/join [post]
func JoinSession(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name and code are required"})
			return
		}

		st, err := n.Join(req.Name, req.Code)
		if err != nil {
			fail(c, err)
			return
		}
		bindParticipant(c, st)
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Current session state
// @Tags session
// @Produce json
// @Success 200 {object} node.State
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /session [get]
func GetSession(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := n.Current()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Leaves the session
// @Description Tears the local session down. Guests of a leaving host stop receiving updates.
// @Tags session
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /session [delete]
func LeaveSession(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := n.Leave(); err != nil {
			fail(c, err)
			return
		}
		s := sessions.Default(c)
		s.Clear()
		if err := s.Save(); err != nil {
			log.Printf("[SESSION-ERROR] Error clearing cookie session: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Left the session"})
	}
}

func transition(n *node.Node, apply func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := apply(); err != nil {
			fail(c, err)
			return
		}
		st, err := n.Current()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Moves the session to location setup
// @Tags session
// @Produce json
// @Success 200 {object} node.State
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /session/location [post]
func BeginLocationSetup(n *node.Node) gin.HandlerFunc {
	return transition(n, n.BeginLocationSetup)
}

// @Summary Goes back from location setup to the lobby
// @Tags session
// @Produce json
// @Success 200 {object} node.State
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /session/lobby [post]
func ReturnToLobby(n *node.Node) gin.HandlerFunc {
	return transition(n, n.ReturnToLobby)
}

// @Summary Keeps swiping after a match
// @Description Resumes swiping over the same candidates as a new round. Earlier approvals are forgotten.
// @Tags session
// @Produce json
// @Success 200 {object} node.State
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /session/keep-swiping [post]
func KeepSwiping(n *node.Node) gin.HandlerFunc {
	return transition(n, n.KeepSwiping)
}

// @Summary Starts a round
// @Description Fetches candidates for a location and starts swiping on them. On discovery failure the session does not change.
// @Tags session
// @Accept json
// @Produce json
// @Param body body roundRequest true "Location query and filters"
// @Success 200 {object} node.State
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Failure 502 {object} object{error=string}
// @Router /session/round [post]
func StartRound(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req roundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location is required"})
			return
		}
		for _, tier := range req.Prices {
			if !session_models.ValidPriceTier(tier) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price tier: " + tier})
				return
			}
		}
		if req.Radius <= 0 {
			req.Radius = dinder_constants.DefaultRadiusMiles
		}
		if req.Radius > dinder_constants.MaxRadiusMiles {
			req.Radius = dinder_constants.MaxRadiusMiles
		}

		query := session_models.Query{
			Location: req.Location,
			Radius:   req.Radius,
			Filters: session_models.Filters{
				PriceTiers: req.Prices,
				MinRating:  req.MinRating,
			},
		}
		transition(n, func() error { return n.StartRound(c.Request.Context(), query) })(c)
	}
}

// @Summary Approves a candidate
// @Description Swipe right. The host decides whether it completes a match.
// @Tags session
// @Accept json
// @Produce json
// @Param body body candidateRequest true "Candidate id"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /session/approve [post]
func Approve(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req candidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "candidate_id is required"})
			return
		}
		if err := n.Approve(req.CandidateID); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Approval sent"})
	}
}

// @Summary Rejects a candidate
// @Description Swipe left. Kept in this process only, never shared with the group.
// @Tags session
// @Accept json
// @Produce json
// @Param body body candidateRequest true "Candidate id"
// @Success 200 {object} node.State
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /session/reject [post]
func Reject(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req candidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "candidate_id is required"})
			return
		}
		st, err := n.Reject(req.CandidateID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
