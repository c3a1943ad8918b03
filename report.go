package pm

import "encoding/json"

// Report is the serializable result of a measurement phase. Absent
// sections are omitted entirely rather than emitted empty: Children is
// present only if children were appended, Metrics only if the phase
// composed at least one meter, Data only if auxiliary data was stored.
type Report struct {
	Name     string         `json:"name"`
	Children []Report       `json:"children,omitempty"`
	Metrics  map[string]any `json:"metrics,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// MarshalIndent renders the report as indented JSON.
func (r Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "    ")
}

// String renders the report as compact JSON. Marshal errors cannot occur
// for reports built from JSON-marshalable data; if one does, the error
// text is returned instead.
func (r Report) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
