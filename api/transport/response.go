package transport

// Envelope wraps every JSON body the API returns, successful or not.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Meta   *Meta       `json:"meta,omitempty"`
}

// Meta holds request-scoped extras. Details carries the field violations of a
// rejected payload or the row errors of a rejected import.
type Meta struct {
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func NewSuccess(data interface{}) Envelope {
	return Envelope{Status: "success", Data: data}
}

// NewError builds an error envelope. Meta is only set when details are given.
func NewError(code, message string, details interface{}) Envelope {
	env := Envelope{Status: "error", Code: code, Error: message}
	if details != nil {
		env.Meta = &Meta{Details: details}
	}
	return env
}

// WithRequestID stamps the request id into meta so clients can quote it.
func (e Envelope) WithRequestID(id string) Envelope {
	if id == "" {
		return e
	}
	if e.Meta == nil {
		e.Meta = &Meta{}
	} else {
		meta := *e.Meta
		e.Meta = &meta
	}
	e.Meta.RequestID = id
	return e
}
