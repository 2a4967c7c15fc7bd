package main

import (
	"fmt"

	"github.com/cliforge/cmdcore/pkg/handler"
	"github.com/cliforge/cmdcore/pkg/response"
)

func registerHandlers(registry *handler.Registry) {
	registry.MustRegister("greet", func() handler.Handler { return greetHandler{} })
	registry.MustRegister("whoami", func() handler.Handler { return whoamiHandler{} })
	registry.MustRegister("pipeline.fetch", func() handler.Handler { return fetchTokenHandler{} })
	registry.MustRegister("pipeline.use", func() handler.Handler { return useTokenHandler{} })
}

type greetHandler struct{}

func (greetHandler) Process(p handler.Params) error {
	name, _ := p.Arguments.Get("name")
	p.Response.Logf(response.Stdout, "hello %s\n", name)
	p.Response.SetData(map[string]any{"greeted": name})
	return nil
}

type whoamiHandler struct{}

func (whoamiHandler) Process(p handler.Params) error {
	prof, ok := p.Profiles.Get("main")
	if !ok {
		return handler.Reject("no main profile is active")
	}
	p.Response.Logf(response.Stdout, "%s (%s)\n", prof.Name, prof.Type)
	p.Response.SetData(map[string]any{"profile": prof.Name})
	return nil
}

type fetchTokenHandler struct{}

func (fetchTokenHandler) Process(p handler.Params) error {
	p.Response.Log(response.Stdout, []byte("fetched token\n"))
	p.Response.SetData(map[string]any{"token": "demo-token"})
	return nil
}

type useTokenHandler struct{}

func (useTokenHandler) Process(p handler.Params) error {
	auth, ok := p.Arguments.Get("auth")
	if !ok {
		return fmt.Errorf("pipeline.use: no auth token was bound by the prior step")
	}
	p.Response.Logf(response.Stdout, "used token %v\n", auth)
	p.Response.SetData(map[string]any{"used": auth})
	return nil
}
