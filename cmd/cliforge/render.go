package main

import (
	"encoding/json"
	"fmt"

	"github.com/cliforge/cmdcore/pkg/response"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func writeJSON(cc *cobra.Command, snap *response.Snapshot) error {
	enc := json.NewEncoder(cc.OutOrStdout())
	return enc.Encode(snap)
}

// renderErrorSummary prints the error header/message/details a failed
// invocation carries; stdout/stderr content itself was already streamed
// live during execution.
func renderErrorSummary(cc *cobra.Command, snap *response.Snapshot) {
	header, msg, details := "Command failed", snap.Message, ""
	if snap.Error != nil {
		header = string(snap.Error.Kind)
		if snap.Error.Subkind != "" {
			header += "/" + string(snap.Error.Subkind)
		}
		if msg == "" {
			msg = snap.Error.Message
		}
		details = snap.Error.AdditionalDetails
	}
	pterm.Error.Printfln("%s: %s", header, msg)
	if details != "" {
		fmt.Fprintln(cc.ErrOrStderr(), pterm.Gray(details))
	}
}
