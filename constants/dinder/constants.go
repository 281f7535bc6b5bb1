package dinder_constants

// Bus
const DefaultBusName = "dinder_session_channel"
const SessionTopic = "session"

// Session codes look like "DIN-4821"
const SessionCodePrefix = "DIN-"
const SessionCodeMin = 1000
const SessionCodeMax = 9999

// Discovery
const MaxCandidates = 20 // NOTE: same deck size the UI was designed around
const DefaultRadiusMiles = 5
const MaxRadiusMiles = 50

// Host inbox, inbound messages beyond this wait on the bus delivery goroutine
const HostInboxSize = 128

// Socket.io room every local UI client joins
const SocketRoom = "session"
