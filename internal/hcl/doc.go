// Package hcl provides the concrete HCL implementation for the unit loading
// and data conversion interfaces defined in the `config` package.
//
// A unit file is a sequence of blocks processed in source order:
//
//	include "forms" { as = "f" }
//	module "html" {}
//	eval { src = "@title = \"Docs\"" }
//	part "card" {
//	  src = <<-EOT
//	    <div class="card"><%= args[0] %></div>
//	  EOT
//	}
//	alias "panel" { to = "card" }
//	page { file = "index.erb" }
//
// Template sources are HCL strings, so a literal `${` must be written `$${`.
// A plain `.erb` file is a unit whose whole content is the page.
package hcl
