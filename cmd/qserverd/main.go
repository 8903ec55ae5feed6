// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaydb/qcore/config"
	"github.com/relaydb/qcore/dispatch"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/internal/logctx"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/session"
)

// release is this build's protocol release string, negotiated by
// Handshake against whatever a client advertises.
var release = "1.0"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		// flag.ContinueOnError already printed usage/the error.
		os.Exit(2)
	}

	logger := logctx.StdLogger{L: log.New(os.Stderr, "qserverd: ", log.LstdFlags)}

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	opts := expr.DefaultOptions()
	opts.DefaultNumericDivScale = cfg.DefaultDivScale
	opts.CompatMySQL = cfg.Compat == config.CompatMySQL
	opts.OracleStyleEmptyString = cfg.OracleStyleEmptyString
	opts.HostVarLateBinding = cfg.HostvarLateBinding

	storage := newMemStorage(logger)

	server := &Server{
		Identity: dispatch.ServerIdentity{
			Release:      release,
			Capabilities: dispatch.InterruptEnabled | dispatch.ForwardCompatible | dispatch.BackwardCompatible,
			BitPlatform:  64,
			Host:         host,
		},
		Cache:  plancache.New(),
		Logger: logger,

		Parser:   noParser{},
		Planner:  noPlanner{},
		Runner:   noRunner{},
		Executor: noExecutor{},

		BlobStore:  noBlobStore{},
		DumpSource: storage,
		Storage:    storage,

		SessionConfig: session.Config{
			Hint:            expr.NoHint,
			Options:         opts,
			PlanCacheSize:   cfg.PlanCacheSize,
			HostVarLateBind: cfg.HostvarLateBinding,
		},
		MembufPages:     64,
		BackupChunkSize: 1 << 16,
	}

	l, err := net.Listen("tcp", cfg.Endpoint)
	if err != nil {
		logger.Printf("listen on %s: %s", cfg.Endpoint, err)
		os.Exit(1)
	}
	logger.Printf("listening on %s", cfg.Endpoint)

	go func() {
		if err := server.Serve(l); err != nil {
			logger.Printf("accept loop exited: %s", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Printf("shutting down")
	l.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %s", err)
	}
}
