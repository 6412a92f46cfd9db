package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marzelet/intern-registry/internal/api/metrics"
	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
	"github.com/marzelet/intern-registry/internal/core/service"
)

func newExportCmd() *cobra.Command {
	var (
		out        string
		passphrase string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every profile to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passphrase == "" {
				passphrase = os.Getenv("REGISTRY_ADMIN_PASSPHRASE")
			}
			return export(cmd.Context(), out, passphrase)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", service.ExportFileName, "output file, - for stdout")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "admin passphrase (default $REGISTRY_ADMIN_PASSPHRASE)")
	return cmd
}

func export(ctx context.Context, out, passphrase string) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	res, err := a.sessions.SignIn(ctx, domain.RoleAdmin, ports.Credentials{Passphrase: passphrase})
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	defer func() {
		if err := a.sessions.SignOut(context.Background(), res.Session); err != nil {
			log.Warn().Err(err).Msg("sign out")
		}
	}()

	w := os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	n, err := a.exporter.Export(ctx, res.Session, bw)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	metrics.ExportsTotal.WithLabelValues("cli").Inc()

	log.Info().Str("file", out).Int("count", n).Msg("export written")
	return nil
}
