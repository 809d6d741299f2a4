package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// unitSchema lists the top-level blocks of a unit file.
var unitSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "part", LabelNames: []string{"name"}},
		{Type: "page"},
		{Type: "eval"},
		{Type: "include", LabelNames: []string{"ref"}},
		{Type: "module", LabelNames: []string{"name"}},
		{Type: "alias", LabelNames: []string{"new"}},
	},
}

// templateBlock is the body of a `part` or `page` block. Exactly one of Src
// and File is set.
type templateBlock struct {
	Src  hcl.Expression `hcl:"src,optional"`
	File string         `hcl:"file,optional"`
}

// evalBlock is the body of an `eval` block.
type evalBlock struct {
	Src hcl.Expression `hcl:"src"`
}

// includeBlock is the body of an `include` block.
type includeBlock struct {
	As string `hcl:"as,optional"`
}

// moduleBlock is the body of a `module` block.
type moduleBlock struct {
	As string `hcl:"as,optional"`
}

// aliasBlock is the body of an `alias` block.
type aliasBlock struct {
	To string `hcl:"to"`
}
