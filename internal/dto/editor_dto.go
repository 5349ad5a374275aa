package dto

// InboundEnvelope is decoded first to pick the message type; the raw payload
// is then decoded into the concrete shape.
type InboundEnvelope struct {
	Type string `json:"type"`
}

// FilePayload carries an uploaded resource. Content travels base64-encoded.
type FilePayload struct {
	Name    string `json:"name" validate:"required"`
	Content []byte `json:"content" validate:"required"`
}

// EditRequest is the client's editing instruction plus any attached
// resources and the current document tree.
type EditRequest struct {
	Type              string        `json:"type"`
	Text              string        `json:"text" validate:"required"`
	Images            []FilePayload `json:"images,omitempty" validate:"omitempty,dive"`
	Documents         []FilePayload `json:"documents,omitempty" validate:"omitempty,dive"`
	DocumentStructure string        `json:"document_structure"`
}

// ToolResponse answers an outstanding tool_call.
type ToolResponse struct {
	Type          string      `json:"type"`
	CorrelationID string      `json:"correlation_id" validate:"required"`
	Result        interface{} `json:"result"`
}

// StatusMessage is a progress notification ("analyzing", "generating", ...).
type StatusMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolCallMessage asks the client to run a tool and answer with a
// ToolResponse carrying the same correlation id.
type ToolCallMessage struct {
	Type          string                 `json:"type"`
	ToolName      string                 `json:"tool_name"`
	Parameters    map[string]interface{} `json:"parameters"`
	CorrelationID string                 `json:"correlation_id"`
}

// ResultMessage terminates one request. Kind is set on errors so clients can
// branch without parsing Message.
type ResultMessage struct {
	Type             string `json:"type"`
	Status           string `json:"status"`
	UpdatedStructure string `json:"updated_structure,omitempty"`
	Message          string `json:"message,omitempty"`
	Kind             string `json:"kind,omitempty"`
}
