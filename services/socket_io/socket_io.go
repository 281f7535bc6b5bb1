package socket_io

import (
	dinder_constants "Dinder/constants/dinder"
	session_models "Dinder/models/session"
	"Dinder/services/node"
	"Dinder/services/socket_io/handlers"
	socketio_types "Dinder/services/socket_io/types"
	"Dinder/utils"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	eio_log "github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start mounts socket.io on the router and pushes every change of the local
// session to all connected UIs
func (sio *MySocketServer) Start(router *gin.Engine, n *node.Node, debug bool) {
	eio_log.DEBUG = debug
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	// KEY: initialize the map, otherwise it panics
	sio.Connections = make(map[socket.SocketId]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		(*socketio_types.SocketServer)(sio).AddConnection(client)
		client.Join(socket.Room(dinder_constants.SocketRoom))
		log.Printf("[CONNECT] Socket %s (%s) connected, %d connections",
			client.Id(), utils.HandshakeName(client), (*socketio_types.SocketServer)(sio).ConnectionCount())

		// Current state of the local session
		client.On("get_state", handlers.HandleGetState(client, n))

		// Swipe right: goes to the host
		client.On("approve", handlers.HandleApprove(client, n))

		// Swipe left: stays in this process
		client.On("reject", handlers.HandleReject(client, n))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", handlers.HandleDisconnecting(client, (*socketio_types.SocketServer)(sio)))

		if st, err := n.Current(); err == nil {
			client.Emit("session_state", st)
		}
	})

	n.OnChange(func(st node.State) {
		sio.Sio_server.To(socket.Room(dinder_constants.SocketRoom)).Emit("session_state", st)
	})
	n.OnMatch(func(candidate session_models.Candidate) {
		log.Printf("[MATCH] Pushing match %s to the UI", candidate.ID)
		sio.Sio_server.To(socket.Room(dinder_constants.SocketRoom)).Emit("match_found", gin.H{"candidate": candidate})
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	log.Println("Socket server started")
}

func (sio *MySocketServer) Close() {
	if sio.Sio_server != nil {
		sio.Sio_server.Close(nil)
	}
}
