package app

import (
	"github.com/vk/tagforge/internal/registry"
	"github.com/vk/tagforge/modules/debug"
	"github.com/vk/tagforge/modules/env_vars"
	"github.com/vk/tagforge/modules/html"
	"github.com/vk/tagforge/modules/markdown"
	"github.com/vk/tagforge/modules/text"
)

// coreModules is the definitive list of all modules that are compiled into
// the tagforge binary.
var coreModules = []registry.Module{
	&text.Module{},
	&html.Module{},
	&markdown.Module{},
	&debug.Module{},
	&env_vars.Module{},
}
