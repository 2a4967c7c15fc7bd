package main

import "github.com/cliforge/cmdcore/pkg/command"

// buildTree constructs the demonstration command tree: a plain command
// (greet), a command requiring a profile (whoami), and a two-step
// chained command (pipeline) exercising every pipeline stage the
// processor implements.
func buildTree() (*command.Node, error) {
	root := &command.Node{
		Name: "cliforge",
		Kind: command.KindGroup,
		Children: []*command.Node{
			{
				Name:        "greet",
				Kind:        command.KindCommand,
				Description: "Print a greeting",
				Options: []command.OptionSpec{
					{Name: "name", Type: command.TypeString, Required: true},
				},
				HandlerRef: "greet",
			},
			{
				Name:        "whoami",
				Kind:        command.KindCommand,
				Description: "Show the active main profile",
				Profile:     &command.ProfileRequirement{Required: []string{"main"}},
				HandlerRef:  "whoami",
			},
			{
				Name:        "pipeline",
				Kind:        command.KindCommand,
				Description: "Fetch a token, then use it in a second step",
				ChainedHandlers: []command.ChainedStep{
					{HandlerRef: "pipeline.fetch"},
					{
						HandlerRef: "pipeline.use",
						ArgMapping: []command.ArgMapping{
							{FromPriorStepIndex: 0, JSONPath: "token", ToArg: "auth"},
						},
					},
				},
			},
		},
	}

	if _, err := command.Prepare(root); err != nil {
		return nil, err
	}
	return root, nil
}
