/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zjucst/food-gateway/pkg/config"
	"github.com/zjucst/food-gateway/pkg/ledger"
	gwlogging "github.com/zjucst/food-gateway/pkg/logging"
	"github.com/zjucst/food-gateway/pkg/metrics"
	"github.com/zjucst/food-gateway/pkg/rest"
)

const (
	cfgPathEnv      = "FOODGW_CFG_PATH"
	shutdownTimeout = 10 * time.Second
)

var logger = logging.NewLogger("foodgw/cmd")

func startCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Starts the REST gateway.",
		Long:  `Starts the REST gateway and serves requests until SIGINT or SIGTERM is received.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv(cfgPathEnv)
			}
			opts, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return serve(opts)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "gateway config file (env "+cfgPathEnv+")")
	return cmd
}

func serve(opts *config.Options) error {
	provider, err := gwlogging.NewProvider(opts.Logging)
	if err != nil {
		return err
	}
	provider.Install()
	defer provider.Sync() // nolint: errcheck

	client, err := ledger.NewFabricClient(opts)
	if err != nil {
		return errors.WithMessage(err, "failed to create ledger client")
	}
	defer client.Close()

	logger.Infof("Gateway for chaincode %s on channel %s, peer %s, orderer %s",
		opts.Network.ChaincodeID, opts.Network.ChannelID, opts.Network.Peer.URL, opts.Network.Orderer.URL)

	server := rest.NewServer(opts.Server, rest.NewRouter(opts, client, metrics.New()))

	served := make(chan error, 1)
	go func() {
		served <- server.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-served:
		return err
	case sig := <-signals:
		logger.Infof("Received %s, exiting...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return <-served
}
