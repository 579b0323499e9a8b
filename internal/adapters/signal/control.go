package signal

import (
	"encoding/json"

	"github.com/dkeye/djroom/internal/core"
)

// handlePing answers an application-level ping without touching the
// router, echoing the client's payload.
func (ctl *SignalWSController) handlePing(conn *WsSignalConn, in core.Inbound) {
	var data any
	if len(in.Data) > 0 {
		data = json.RawMessage(in.Data)
	}
	ctl.sendJSON(conn, core.Outbound{Event: core.EventPong, Data: data, Ack: in.Ack})
}
