package domain

// Option maps one menu label to the literal token the external tool expects.
type Option struct {
	Label       string `json:"label"`
	Token       string `json:"token"`
	Description string `json:"description,omitempty"`
}

// OptionSet is a fixed menu bound to one command-line flag.
type OptionSet struct {
	Name    string   `json:"name"`
	Flag    string   `json:"flag"`
	Default string   `json:"default"`
	Options []Option `json:"options"`
}

// Token returns the tool token for a menu label.
func (s OptionSet) Token(label string) (string, bool) {
	for _, opt := range s.Options {
		if opt.Label == label {
			return opt.Token, true
		}
	}
	return "", false
}

// Labels returns menu labels in display order.
func (s OptionSet) Labels() []string {
	labels := make([]string, 0, len(s.Options))
	for _, opt := range s.Options {
		labels = append(labels, opt.Label)
	}
	return labels
}

// OptionCatalog groups every menu shown on the run form.
type OptionCatalog struct {
	Languages OptionSet `json:"languages"`
	Models    OptionSet `json:"models"`
	Formats   OptionSet `json:"formats"`
	Tasks     OptionSet `json:"tasks"`
}

// TranscriptProfile describes a script filter offered for transcript copy.
type TranscriptProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default,omitempty"`
}
