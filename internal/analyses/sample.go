package analyses

import _ "embed"

// SampleJSON is a complete model answer. It backs the dev stub provider and
// the render demo.
//
//go:embed sample/skill_gap_v1.json
var SampleJSON string
