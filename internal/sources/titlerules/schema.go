package titlerules

// File is the top-level structure of the title rules file.
//
//	includeDefaults: true
//	rules:
//	  - label: Pinterest Pin
//	    patterns: [pinterest.com, pin.it]
type File struct {
	// IncludeDefaults appends the built-in table after the file's rules.
	// Absent means true.
	IncludeDefaults *bool  `yaml:"includeDefaults,omitempty"`
	Rules           []Rule `yaml:"rules"`
}

// Rule is one entry of the file.
type Rule struct {
	Label    string   `yaml:"label"`
	Patterns []string `yaml:"patterns"`
}
