package middleware

import (
	"Dinder/services/node"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ParticipantKey is the cookie session key holding the local participant id
const ParticipantKey = "participant_id"

// ParticipantRequired only lets through browsers bound to the participant
// currently occupying the node's slot.
func ParticipantRequired(n *node.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := sessions.Default(c).Get(ParticipantKey).(string)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not part of a session"})
			return
		}

		st, err := n.Current()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if st.Self.ID != id {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not part of this session"})
			return
		}

		c.Set(ParticipantKey, id)
		c.Next()
	}
}
