package module

import dom "gatekeeper/internal/services/moderation/domain"

// Ports holds the ports exposed by the moderation module
type Ports struct {
	Handler dom.HandlerPort
	Waiter  dom.WaiterPort
}
