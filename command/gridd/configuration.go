// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/cache"
	"github.com/bitmark-inc/gridd/configuration"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultPublicKeyFile  = "gridd.public"
	defaultPrivateKeyFile = "gridd.private"
	defaultPeerFile       = "peers.json"
	defaultStoreDirectory = "data"

	defaultLogDirectory = "log"
	defaultLogFile      = "gridd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultCluster = "local"
	defaultTimeout = "15s"
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// PeerType - a member given in the configuration instead of DNS
type PeerType struct {
	Address   string `gluamapper:"address" json:"address"`
	Broadcast string `gluamapper:"broadcast" json:"broadcast"`
	PublicKey string `gluamapper:"public_key" json:"public_key"`
}

// NetworkType - the sockets and keys of this member
type NetworkType struct {
	Announce           string     `gluamapper:"announce" json:"announce"`
	Broadcast          string     `gluamapper:"broadcast" json:"broadcast"`
	Listen             []string   `gluamapper:"listen" json:"listen"`
	Publish            []string   `gluamapper:"publish" json:"publish"`
	PrivateKey         string     `gluamapper:"private_key" json:"private_key"`
	PublicKey          string     `gluamapper:"public_key" json:"public_key"`
	Nodes              string     `gluamapper:"nodes" json:"nodes"`
	Peers              []PeerType `gluamapper:"peers" json:"peers"`
	Timeout            string     `gluamapper:"timeout" json:"timeout"`
	MaximumRequestRate float64    `gluamapper:"maximum_request_rate" json:"maximum_request_rate"`
}

// CacheType - one cache, durations are Go duration strings
type CacheType struct {
	Mode                     string `gluamapper:"mode" json:"mode"`
	Transactional            bool   `gluamapper:"transactional" json:"transactional"`
	SyncReplTimeout          string `gluamapper:"sync_repl_timeout" json:"sync_repl_timeout"`
	UseReplQueue             bool   `gluamapper:"use_repl_queue" json:"use_repl_queue"`
	ReplQueueInterval        string `gluamapper:"repl_queue_interval" json:"repl_queue_interval"`
	ReplQueueMaxElements     int    `gluamapper:"repl_queue_max_elements" json:"repl_queue_max_elements"`
	NumOwners                int    `gluamapper:"num_owners" json:"num_owners"`
	ExpirationWakeUpInterval string `gluamapper:"expiration_wake_up_interval" json:"expiration_wake_up_interval"`
	Store                    bool   `gluamapper:"store" json:"store"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory  string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile        string               `gluamapper:"pidfile" json:"pidfile"`
	Cluster        string               `gluamapper:"cluster" json:"cluster"`
	PeerFile       string               `gluamapper:"peer_file" json:"peer_file"`
	StoreDirectory string               `gluamapper:"store_directory" json:"store_directory"`
	MetricsHTTP    string               `gluamapper:"metrics_http" json:"metrics_http"`
	ProfileHTTP    string               `gluamapper:"profile_http" json:"profile_http"`
	Network        NetworkType          `gluamapper:"network" json:"network"`
	Caches         map[string]CacheType `gluamapper:"caches" json:"caches"`
	Logging        logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory:  defaultDataDirectory,
		PidFile:        "", // no PidFile by default
		Cluster:        defaultCluster,
		PeerFile:       defaultPeerFile,
		StoreDirectory: defaultStoreDirectory,

		Network: NetworkType{
			PrivateKey: defaultPrivateKeyFile,
			PublicKey:  defaultPublicKeyFile,
			Nodes:      "none",
			Timeout:    defaultTimeout,
		},

		Caches: map[string]CacheType{},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fault.ErrConfigDirPath
	}

	// every cache must decode before anything is started
	for name := range options.Caches {
		if _, err := options.cacheConfiguration(name); nil != err {
			return nil, fmt.Errorf("cache: %q  error: %w", name, err)
		}
	}
	if _, err := time.ParseDuration(options.Network.Timeout); nil != err {
		return nil, fmt.Errorf("network timeout: %q  error: %w", options.Network.Timeout, err)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.PeerFile,
		&options.Network.PrivateKey,
		&options.Network.PublicKey,
		&options.Logging.Directory,
		&options.StoreDirectory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if the log file is not a plain name
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, fmt.Errorf("file: %q is not plain name", options.Logging.File)
	}

	// create directories if they do not already exist
	for _, d := range []string{
		options.Logging.Directory,
		options.StoreDirectory,
	} {
		if err := os.MkdirAll(d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// sorted names of the configured caches
func (c *Configuration) cacheNames() []string {
	names := make([]string, 0, len(c.Caches))
	for name := range c.Caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// the cache settings of one cache, unset values take the defaults
func (c *Configuration) cacheConfiguration(name string) (cache.Configuration, error) {
	t, ok := c.Caches[name]
	if !ok {
		return cache.Configuration{}, fault.ErrCacheNotFound
	}

	config := cache.DefaultConfiguration()
	if "" != t.Mode {
		mode, err := cache.ParseMode(t.Mode)
		if nil != err {
			return config, err
		}
		config.Mode = mode
	}
	config.Transactional = t.Transactional
	config.UseReplQueue = t.UseReplQueue
	if 0 != t.ReplQueueMaxElements {
		config.ReplQueueMaxElements = t.ReplQueueMaxElements
	}
	if 0 != t.NumOwners {
		config.NumOwners = t.NumOwners
	}

	durations := []struct {
		text  string
		value *time.Duration
	}{
		{t.SyncReplTimeout, &config.SyncReplTimeout},
		{t.ReplQueueInterval, &config.ReplQueueInterval},
		{t.ExpirationWakeUpInterval, &config.ExpirationWakeUpInterval},
	}
	for _, d := range durations {
		if "" == d.text {
			continue
		}
		v, err := time.ParseDuration(d.text)
		if nil != err {
			return config, err
		}
		*d.value = v
	}

	if t.Store {
		config.StoreFile = filepath.Join(c.StoreDirectory, name+".leveldb")
	}
	err := config.Validate()
	return config, err
}
