package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByLCY/factzy/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flashcard web form and API",
		RunE: func(cmd *cobra.Command, args []string) error {
			g.bind(cmd, "addr", "server.addr")
			g.bind(cmd, "out", "output.dir")
			a, err := openApp(cmd, g, needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			opts := server.Options{
				Generator: a.pipeline,
				OutputDir: a.pipeline.OutputDir(),
				Logger:    a.log,
			}
			if a.store != nil {
				opts.History = a.store
			}
			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           server.New(opts).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			printInfo(cmd.OutOrStdout(), "Listening on %s", StyleLink.Render(a.cfg.Server.Addr))
			return serveUntilDone(cmd.Context(), srv)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().String("out", "", "output directory (overrides output.dir)")
	return cmd
}

// serveUntilDone runs srv until it fails or ctx is cancelled, then shuts it down gracefully.
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
