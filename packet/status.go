package packet

// @gen:r,w
type StatusReqPacket struct{}

func (p StatusReqPacket) Kind() Kind {
	return KindStatusRequest
}

// @gen:r,w
type PingReqPacket struct {
	Timestamp int64 `field:"Long"`
}

func (p PingReqPacket) Kind() Kind {
	return KindPingRequest
}

// @gen:r,w
type StatusRespPacket struct {
	Response string `field:"String"` // JSON
}

func (p StatusRespPacket) Kind() Kind {
	return KindStatusResponse
}

// @gen:r,w
type PongRespPacket struct {
	Timestamp int64 `field:"Long"`
}

func (p PongRespPacket) Kind() Kind {
	return KindPongResponse
}
