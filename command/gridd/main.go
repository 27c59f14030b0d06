// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/background"
	"github.com/bitmark-inc/gridd/cache"
	"github.com/bitmark-inc/gridd/discovery"
	"github.com/bitmark-inc/gridd/mode"
	"github.com/bitmark-inc/gridd/transaction"
	"github.com/bitmark-inc/gridd/tree"
	"github.com/bitmark-inc/gridd/zmqtransport"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// set the initial system mode - before any background tasks are started
	err = mode.Initialise(theConfiguration.Cluster)
	if nil != err {
		log.Criticalf("mode initialise error: %s", err)
		exitwithstatus.Message("mode initialise error: %s", err)
	}
	defer mode.Finalise()

	// start a profiling http server
	// this uses the default builtin HTTP handler
	if "" != theConfiguration.ProfileHTTP {
		go func() {
			log.Warnf("profile listener on: %s", theConfiguration.ProfileHTTP)
			err := http.ListenAndServe(theConfiguration.ProfileHTTP, nil)
			exitwithstatus.Message("profile error: %s", err)
		}()
	}

	registry := newRegistry()
	if "" != theConfiguration.MetricsHTTP {
		go serveMetrics(logger.New("metrics"), theConfiguration.MetricsHTTP, registry)
	}

	log.Infof("cluster: %s  test mode: %v", mode.ClusterName(), mode.IsTesting())

	// network identity
	network := theConfiguration.Network
	privateKey, publicKey, err := readKeys(network.PrivateKey, network.PublicKey)
	if nil != err {
		log.Criticalf("read keys error: %s", err)
		exitwithstatus.Message("read keys error: %s", err)
	}
	timeout, _ := time.ParseDuration(network.Timeout)

	transport, err := zmqtransport.New(logger.New("zmq"), zmqtransport.Configuration{
		Address:    network.Announce,
		Listen:     network.Listen,
		Publish:    network.Publish,
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		Timeout:    timeout,
	})
	if nil != err {
		log.Criticalf("transport error: %s", err)
		exitwithstatus.Message("transport error: %s", err)
	}

	static, err := staticPeers(network.Peers)
	if nil != err {
		log.Criticalf("peers error: %s", err)
		exitwithstatus.Message("peers error: %s", err)
	}
	transport.SetPeers(static)

	manager := cache.NewManager(
		logger.New("manager"),
		transport,
		transaction.NewDummyManager(logger.New("transaction")),
		cache.NewMarshaller(tree.RegisterExternalizers),
		cache.Options{
			SyncReplTimeout:    timeout,
			MaximumRequestRate: network.MaximumRequestRate,
			Registerer:         registry,
		},
	)
	if err := manager.Start(); nil != err {
		log.Criticalf("manager start error: %s", err)
		exitwithstatus.Message("manager start error: %s", err)
	}
	defer manager.Stop()

	processes := background.Processes{}

	// cluster members from DNS
	receiver := &members{
		log:       logger.New("members"),
		static:    static,
		transport: transport,
		manager:   manager,
	}
	if "none" != network.Nodes && "" != network.Nodes {
		d, err := discovery.New(
			logger.New("discovery"),
			network.Nodes,
			receiver,
			discovery.NewLookuper(logger.New("lookup"), net.LookupTXT),
			theConfiguration.PeerFile,
		)
		if nil != err {
			log.Criticalf("discovery error: %s", err)
			exitwithstatus.Message("discovery error: %s", err)
		}
		processes = append(processes, d)
	}

	for _, name := range theConfiguration.cacheNames() {
		config, _ := theConfiguration.cacheConfiguration(name)
		if _, err := manager.DefineCache(name, config); nil != err {
			log.Criticalf("cache: %s  error: %s", name, err)
			exitwithstatus.Message("cache: %s  error: %s", name, err)
		}
		log.Infof("cache: %s  mode: %s  transactional: %v", name, config.Mode, config.Transactional)
	}

	watcher, err := newConfigWatcher(logger.New("config"), configurationFile, manager)
	if nil != err {
		log.Errorf("configuration watcher error: %s", err)
	} else {
		processes = append(processes, watcher)
	}

	running := background.Start(processes, nil)
	defer running.Stop()

	mode.Set(mode.Running)

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
	mode.Set(mode.Leaving)
}

// the CURVE key pair, the public key is derived when its file is
// missing
func readKeys(privateKeyFile string, publicKeyFile string) ([]byte, []byte, error) {
	data, err := ioutil.ReadFile(privateKeyFile)
	if nil != err {
		return nil, nil, err
	}
	privateKey, err := zmqtransport.ReadPrivateKey(string(data))
	if nil != err {
		return nil, nil, err
	}

	data, err = ioutil.ReadFile(publicKeyFile)
	if os.IsNotExist(err) {
		publicKey, err := zmqtransport.PublicKeyFromPrivate(privateKey)
		return privateKey, publicKey, err
	}
	if nil != err {
		return nil, nil, err
	}
	publicKey, err := zmqtransport.ReadPublicKey(string(data))
	if nil != err {
		return nil, nil, err
	}
	return privateKey, publicKey, nil
}
