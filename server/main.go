// Copyright 2017 Dmitry Frank <mail@dmitryfrank.com>
// Licensed under the BSD, see LICENSE file for details.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devcamper.io/devcamper/server/config"
	dcserver "devcamper.io/devcamper/server/server"
	storagecommon "devcamper.io/devcamper/server/storage/common"

	"github.com/dimonomid/interrors"
	"github.com/golang/glog"
	"github.com/juju/errors"
)

var (
	configFile = flag.String("config", "",
		"Path to the YAML config file; values given there override flags.")
	listenAddr = flag.String("devcamper.listen", ":5000",
		"Address to listen at.")
	checkIntegrity = flag.Bool("check-integrity", false,
		"Check that bootcamp averages match their courses and reviews, and exit.")
)

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	defer glog.Flush()

	if err := run(); err != nil {
		glog.Fatalf("%s\n", interrors.ErrorStack(err))
	}
}

func run() error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return errors.Trace(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	si, err := storagecommon.CreateStorage(
		cfg.StorageOptions(storagecommon.OptionsFromFlags()),
	)
	if err != nil {
		return errors.Trace(err)
	}
	defer si.Close()

	if err := si.Connect(ctx); err != nil {
		return errors.Trace(err)
	}

	if err := si.ApplyMigrations(ctx); err != nil {
		return errors.Trace(err)
	}

	if *checkIntegrity {
		if err := si.CheckIntegrity(ctx); err != nil {
			return errors.Annotatef(err, "integrity check failed")
		}
		glog.Infof("Integrity check passed")
		return nil
	}

	if err := cfg.ApplySeed(ctx, si); err != nil {
		return errors.Trace(err)
	}

	dc, err := dcserver.New(si, &dcserver.Options{
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer dc.Close()

	handler, err := dc.CreateHandler()
	if err != nil {
		return errors.Trace(err)
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr(*listenAddr),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		glog.Infof("Listening at %s..", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Trace(err)
	case <-ctx.Done():
	}

	glog.Infof("Shutting down..")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	return errors.Trace(srv.Shutdown(shutdownCtx))
}
