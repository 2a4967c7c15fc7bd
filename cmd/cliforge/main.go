// Package main is a runnable demonstration of the command processor
// pipeline: a small cobra-based front end that resolves a command node,
// builds a Processor for it, and renders the returned snapshot.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cliforge/cmdcore/pkg/command"
	"github.com/cliforge/cmdcore/pkg/credential"
	"github.com/cliforge/cmdcore/pkg/handler"
	"github.com/cliforge/cmdcore/pkg/processor"
	"github.com/cliforge/cmdcore/pkg/profile"
	"github.com/cliforge/cmdcore/pkg/response"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const rootName = "cliforge"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cfg := loadAppConfig()

	registry := handler.NewRegistry()
	registerHandlers(registry)

	tree, err := buildTree()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cliforge: %v\n", err)
		return 1
	}

	cred := newCredentialManager(cfg)
	store := profile.NewStore(rootName, cfg.RemoteProfileBase)

	root := newRootCmd(tree, registry, store, cred)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if code, ok := err.(errExitCode); ok {
			return int(code)
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// appConfig is the CLI's own settings, read through viper from
// CLIFORGE_-prefixed environment variables, with "memory" as the
// default credential backend. No config file or command-line flag is
// consulted for these settings.
type appConfig struct {
	CredentialBackend string // "memory" (default), "keyring", or "vault"
	RemoteProfileBase string
	VaultBaseURL      string
	VaultClientID     string
	VaultClientSecret string
}

func loadAppConfig() appConfig {
	v := viper.New()
	v.SetEnvPrefix("CLIFORGE")
	v.AutomaticEnv()
	v.SetDefault("credential_backend", "memory")

	return appConfig{
		CredentialBackend: v.GetString("credential_backend"),
		RemoteProfileBase: v.GetString("remote_profile_base"),
		VaultBaseURL:      v.GetString("vault_base_url"),
		VaultClientID:     v.GetString("vault_client_id"),
		VaultClientSecret: v.GetString("vault_client_secret"),
	}
}

func newCredentialManager(cfg appConfig) credential.Manager {
	switch cfg.CredentialBackend {
	case "keyring":
		return credential.NewKeyringManager(rootName)
	case "vault":
		return credential.NewVaultManager(credential.VaultConfig{
			BaseURL:      cfg.VaultBaseURL,
			ClientID:     cfg.VaultClientID,
			ClientSecret: cfg.VaultClientSecret,
		})
	default:
		return credential.NewMemoryManager()
	}
}

// newRootCmd wires cobra command nodes onto command.Node/Processor
// pairs. Argv tokenization and option binding are cobra/pflag's job
// (out of scope, §1); only the resulting Arguments crossing into
// invoke() is this repo's concern.
func newRootCmd(tree *command.Node, registry *handler.Registry, store *profile.Store, cred credential.Manager) *cobra.Command {
	root := &cobra.Command{
		Use:           rootName,
		Short:         "Demonstration front end for the command processor pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "emit a JSON response document instead of default rendering")
	root.PersistentFlags().Bool("silent", false, "suppress console output, keep only the returned snapshot")

	for _, child := range tree.Children {
		root.AddCommand(newCobraCommand(child, tree, registry, store, cred))
	}
	return root
}

func newCobraCommand(node, root *command.Node, registry *handler.Registry, store *profile.Store, cred credential.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   node.Name,
		Short: node.Description,
		Aliases: aliasSlice(node.Aliases),
		RunE: func(cc *cobra.Command, args []string) error {
			return runNode(cc, node, root, registry, store, cred, args)
		},
	}
	for _, opt := range node.Options {
		bindOption(cmd, opt)
	}
	for _, child := range node.Children {
		cmd.AddCommand(newCobraCommand(child, root, registry, store, cred))
	}
	return cmd
}

func bindOption(cmd *cobra.Command, opt command.OptionSpec) {
	switch opt.Type {
	case command.TypeBoolean:
		cmd.Flags().Bool(opt.Name, false, "")
	case command.TypeNumber:
		cmd.Flags().Float64(opt.Name, 0, "")
	case command.TypeArray:
		cmd.Flags().StringSlice(opt.Name, nil, "")
	default:
		cmd.Flags().String(opt.Name, "", "")
	}
}

func aliasSlice(aliases map[string]struct{}) []string {
	out := make([]string, 0, len(aliases))
	for a := range aliases {
		out = append(out, a)
	}
	return out
}

func runNode(cc *cobra.Command, node, root *command.Node, registry *handler.Registry, store *profile.Store, cred credential.Manager, positionals []string) error {
	args := command.NewArguments()
	for _, opt := range node.Options {
		if !cc.Flags().Changed(opt.Name) {
			continue
		}
		switch opt.Type {
		case command.TypeBoolean:
			v, _ := cc.Flags().GetBool(opt.Name)
			args.Set(opt.Name, v)
		case command.TypeNumber:
			v, _ := cc.Flags().GetFloat64(opt.Name)
			args.Set(opt.Name, v)
		case command.TypeArray:
			v, _ := cc.Flags().GetStringSlice(opt.Name)
			arr := make([]any, len(v))
			for i, s := range v {
				arr[i] = s
			}
			args.Set(opt.Name, arr)
		default:
			v, _ := cc.Flags().GetString(opt.Name)
			args.Set(opt.Name, v)
		}
	}
	for _, p := range positionals {
		args.PositionalList = append(args.PositionalList, p)
	}

	format := response.FormatDefault
	if asJSON, _ := cc.Flags().GetBool("json"); asJSON {
		format = response.FormatJSON
	}
	silent, _ := cc.Flags().GetBool("silent")

	cfg := processor.Config{
		Node:     node,
		Root:     root,
		RootName: rootName,
		Handlers: registry,
		Profiles: func() *profile.Manager { return profile.NewManager(store, cred, nil) },
		Stdin:    cc.InOrStdin(),
	}
	// Live re-emission only makes sense for default-format, non-JSON
	// output: a JSON response is a single document written once at
	// Finalize, so streaming handler output early would interleave with
	// it (§5: "JSON output ... appears strictly after all buffered
	// stream content is rendered or discarded, not interleaved").
	if format == response.FormatDefault {
		cfg.StdoutLive = cc.OutOrStdout()
		cfg.StderrLive = cc.ErrOrStderr()
	}
	proc := processor.NewProcessor(cfg)

	snap := proc.Invoke(processor.InvokeParams{
		Arguments: args,
		Silent:    silent,
		Format:    format,
	})

	switch {
	case format == response.FormatJSON && !silent:
		if err := writeJSON(cc, snap); err != nil {
			return err
		}
	case format == response.FormatDefault && !snap.Success && !silent:
		// Stdout/stderr were already streamed live during execution;
		// only the error summary still needs rendering.
		renderErrorSummary(cc, snap)
	}

	if !snap.Success {
		return errExitCode(snap.ExitCode)
	}
	return nil
}

type errExitCode int

func (e errExitCode) Error() string { return "" }
