package handlers

import (
	"Dinder/services/node"
	socketio_types "Dinder/services/socket_io/types"
	"Dinder/utils"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleGetState sends the local session state to the asking client only
func HandleGetState(client *socket.Socket, n *node.Node) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[STATE] get_state from socket %s", client.Id())

		st, err := n.Current()
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		client.Emit("session_state", st)
	}
}

// HandleApprove approves a candidate on behalf of the local participant.
// The resulting state reaches every client through the node listeners.
func HandleApprove(client *socket.Socket, n *node.Node) func(args ...interface{}) {
	return func(args ...interface{}) {
		candidateID, err := utils.CandidateIDFromArgs(client, args)
		if err != nil {
			return
		}
		log.Printf("[APPROVAL] approve %s from socket %s", candidateID, client.Id())

		if err := n.Approve(candidateID); err != nil {
			log.Printf("[APPROVAL-ERROR] %v", err)
			client.Emit("error", gin.H{"error": err.Error()})
		}
	}
}

func HandleReject(client *socket.Socket, n *node.Node) func(args ...interface{}) {
	return func(args ...interface{}) {
		candidateID, err := utils.CandidateIDFromArgs(client, args)
		if err != nil {
			return
		}

		if _, err := n.Reject(candidateID); err != nil {
			log.Printf("[REJECT-ERROR] %v", err)
			client.Emit("error", gin.H{"error": err.Error()})
		}
	}
}

// HandleDisconnecting forgets the connection. The session itself outlives
// any UI connection.
func HandleDisconnecting(client *socket.Socket, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] Socket %s disconnecting", client.Id())
		sio.RemoveConnection(client.Id())
	}
}

