// Command registry runs the intern skill registry API and its admin tooling.
//
// @title                       Intern Registry API
// @version                     1.0
// @description                 Skill profiles of interns: submitter self-service and admin dashboard.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "registry",
		Short:         "Intern skill profile registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newExportCmd())
	return root
}
