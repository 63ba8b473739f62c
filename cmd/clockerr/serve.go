package main

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourname/bgp-clock-offset/server"
	"github.com/yourname/bgp-clock-offset/store"
)

type serveFlags struct {
	Addr  string
	Store string
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	sf := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve archived runs and clock profiles over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			s, err := store.Open(sf.Store)
			if err != nil {
				return err
			}
			defer s.Close()

			srv := &http.Server{
				Addr:              sf.Addr,
				Handler:           server.NewRouter(server.NewHandler(s, cfg.MinSamples)),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				srv.Close()
			}()
			log.Infof("clock profile API listening on %s", sf.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sf.Addr, "addr", getenv("CLOCKERR_HTTP", ":8080"), "Listen address.")
	cmd.Flags().StringVar(&sf.Store, "store", getenv("CLOCKERR_STORE", "sqlite3:clockerr.db"),
		"Archive to serve, <engine>:<params>.")
	return cmd
}
