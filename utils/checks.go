package utils

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// CandidateIDFromArgs extracts the candidate id of an approve/reject event.
// Both a bare string and {"candidate_id": "..."} are accepted.
func CandidateIDFromArgs(client *socket.Socket, args []interface{}) (string, error) {
	if len(args) < 1 {
		client.Emit("error", gin.H{"error": "Missing candidate id"})
		return "", errors.New("missing candidate id")
	}

	switch v := args[0].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case map[string]interface{}:
		if id, ok := v["candidate_id"].(string); ok && id != "" {
			return id, nil
		}
	}

	log.Printf("[SOCKET-ERROR] Invalid candidate id argument: %v", args[0])
	client.Emit("error", gin.H{"error": "Invalid candidate id"})
	return "", errors.New("invalid candidate id")
}

// HandshakeName returns the optional display name sent in the handshake auth
func HandshakeName(client *socket.Socket) string {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := authData["name"].(string)
	return name
}
