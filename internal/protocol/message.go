package protocol

// Kind discriminates the two envelope shapes
type Kind string

const (
	KindRequest Kind = "request"
	KindReply   Kind = "reply"
)

// Request is sent by a client. Params are positional.
type Request struct {
	ID     string `json:"id"`
	Token  string `json:"token,omitempty"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// Reply is produced by the bridge, exactly once per executed request.
type Reply struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   Code   `json:"code,omitempty"`
}

// Envelope is the payload carried by every transport
type Envelope struct {
	Kind Kind `json:"kind"`

	ID     string `json:"id"`
	Token  string `json:"token,omitempty"`
	Method string `json:"method,omitempty"`
	Params []any  `json:"params,omitempty"`

	OK     bool   `json:"ok,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   Code   `json:"code,omitempty"`
}

// Request extracts the request view of an envelope
func (e Envelope) Request() (Request, bool) {
	if e.Kind != KindRequest || e.ID == "" || e.Method == "" {
		return Request{}, false
	}
	return Request{ID: e.ID, Token: e.Token, Method: e.Method, Params: e.Params}, true
}

// Reply extracts the reply view of an envelope
func (e Envelope) Reply() (Reply, bool) {
	if e.Kind != KindReply || e.ID == "" {
		return Reply{}, false
	}
	return Reply{ID: e.ID, OK: e.OK, Result: e.Result, Error: e.Error, Code: e.Code}, true
}

// Envelope wraps a request for transport
func (r Request) Envelope() Envelope {
	params := r.Params
	if params == nil {
		params = []any{}
	}
	return Envelope{Kind: KindRequest, ID: r.ID, Token: r.Token, Method: r.Method, Params: params}
}

// Envelope wraps a reply for transport
func (r Reply) Envelope() Envelope {
	return Envelope{Kind: KindReply, ID: r.ID, OK: r.OK, Result: r.Result, Error: r.Error, Code: r.Code}
}

// Success builds an ok reply
func Success(id string, result any) Reply {
	return Reply{ID: id, OK: true, Result: result}
}

// Failure builds a failed reply from an error, classifying it into a Code
func Failure(id string, err error) Reply {
	return Reply{ID: id, OK: false, Error: err.Error(), Code: CodeOf(err)}
}

// HandshakeResult is returned by core.handshake
type HandshakeResult struct {
	Token           string       `json:"token"`
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
}

// Capabilities is the advisory nested boolean map reported at handshake
type Capabilities map[string]map[string]bool

// Has reports whether group.name is advertised
func (c Capabilities) Has(group, name string) bool {
	return c[group][name]
}
