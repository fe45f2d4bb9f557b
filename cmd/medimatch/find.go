package main

import (
	"github.com/fwojciec/medimatch/match"
)

// Run executes the find command.
func (c *FindCmd) Run(deps *Dependencies) error {
	assistant := &match.Assistant{Parser: deps.Parser, Finder: deps.Finder, Now: deps.Now}
	reply := assistant.Reply(deps.Ctx, c.Request)
	return deps.renderer().Turn(reply)
}
