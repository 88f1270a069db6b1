package target

import "encoding/json"

// SetTargetRequest is the PATCH body. TargetLevel must be present; JSON
// null clears the target.
type SetTargetRequest struct {
	TargetLevel OptionalLevel `json:"targetLevel"`
}

// OptionalLevel tells an absent field apart from an explicit null.
type OptionalLevel struct {
	Present bool
	Value   *string
}

func (o *OptionalLevel) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Level returns the requested level, nil for a reset.
func (o OptionalLevel) Level() *Level {
	if o.Value == nil {
		return nil
	}
	l := Level(*o.Value)
	return &l
}
