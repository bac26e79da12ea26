package iso8583

// Message types understood by the gateway.
const (
	TypeSignInRequest          = "0800"
	TypeSignInResponse         = "0810"
	TypeSignOffRequest         = "0820"
	TypeSignOffResponse        = "0830"
	TypeFileUpdateRequest      = "0840"
	TypeFileUpdateResponse     = "0850"
	TypeParamUpdateRequest     = "0860"
	TypeParamUpdateResponse    = "0870"
	TypeHeartbeatRequest       = "0880"
	TypeHeartbeatResponse      = "0890"
	TypeDataTransferRequest    = "0300"
	TypeDataTransferResponse   = "0310"
	TypeRealTimeTradeRequest   = "0320"
	TypeRealTimeTradeResponse  = "0330"
	TypeLoadRequest            = "0340"
	TypeLoadResponse           = "0350"
	TypeTerminalKeysRequest    = "0400"
	TypeTerminalKeysResponse   = "0410"
	TypeMessageRequest         = "0500"
	TypeMessageResponse        = "0510"
	TypeMessageConfirmRequest  = "0520"
	TypeMessageConfirmResponse = "0530"
	TypeIncrementRequest       = "0540"
	TypeIncrementResponse      = "0550"
)

var typeNames = map[string]string{
	TypeSignInRequest:          "sign-in request",
	TypeSignInResponse:         "sign-in response",
	TypeSignOffRequest:         "sign-off request",
	TypeSignOffResponse:        "sign-off response",
	TypeFileUpdateRequest:      "file update request",
	TypeFileUpdateResponse:     "file update response",
	TypeParamUpdateRequest:     "parameter update request",
	TypeParamUpdateResponse:    "parameter update response",
	TypeHeartbeatRequest:       "heartbeat request",
	TypeHeartbeatResponse:      "heartbeat response",
	TypeDataTransferRequest:    "data transfer request",
	TypeDataTransferResponse:   "data transfer response",
	TypeRealTimeTradeRequest:   "real-time trade request",
	TypeRealTimeTradeResponse:  "real-time trade response",
	TypeLoadRequest:            "load request",
	TypeLoadResponse:           "load response",
	TypeTerminalKeysRequest:    "terminal keys request",
	TypeTerminalKeysResponse:   "terminal keys response",
	TypeMessageRequest:         "message fetch request",
	TypeMessageResponse:        "message fetch response",
	TypeMessageConfirmRequest:  "message confirm request",
	TypeMessageConfirmResponse: "message confirm response",
	TypeIncrementRequest:       "incremental list request",
	TypeIncrementResponse:      "incremental list response",
}

// MessageTypeName returns a description of a 4-digit message type.
func MessageTypeName(mt string) string {
	return typeNames[mt]
}
