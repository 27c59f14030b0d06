// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/logger"
)

const (
	// editors write a file in several steps
	settleDelay = 500 * time.Millisecond
)

// Reconfigurer - takes new replication queue tuning for a cache
type Reconfigurer interface {
	Reconfigure(name string, interval time.Duration, maxElements int) error
}

// watches the configuration file and applies the queue tuning of
// every cache after it changes
//
// the directory is watched, not the file, so a file replaced by
// rename is still seen
type configWatcher struct {
	log      *logger.L
	fileName string
	watcher  *fsnotify.Watcher
	target   Reconfigurer
	read     func(string) (*Configuration, error)
	settle   time.Duration
}

func newConfigWatcher(log *logger.L, fileName string, target Reconfigurer) (*configWatcher, error) {
	fileName, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(fileName)); nil != err {
		_ = watcher.Close()
		return nil, err
	}

	return &configWatcher{
		log:      log,
		fileName: fileName,
		watcher:  watcher,
		target:   target,
		read:     getConfiguration,
		settle:   settleDelay,
	}, nil
}

// Run - background processing interface
func (w *configWatcher) Run(_ interface{}, shutdown <-chan struct{}) {
	log := w.log
	log.Infof("watching: %q", w.fileName)

	var settled <-chan time.Time

loop:
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if !w.isChange(event) {
				continue loop
			}
			log.Debugf("file event: %s", event)
			settled = time.After(w.settle)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watch error: %s", err)

		case <-settled:
			settled = nil
			w.apply()

		case <-shutdown:
			break loop
		}
	}

	_ = w.watcher.Close()
	log.Info("stopped")
}

func (w *configWatcher) isChange(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.fileName {
		return false
	}
	return 0 != event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename)
}

// reread the file, caches that fail keep their current tuning
func (w *configWatcher) apply() {
	options, err := w.read(w.fileName)
	if nil != err {
		w.log.Errorf("reread: %q  error: %s", w.fileName, err)
		return
	}

	for _, name := range options.cacheNames() {
		config, err := options.cacheConfiguration(name)
		if nil != err {
			w.log.Errorf("cache: %s  error: %s", name, err)
			continue
		}
		err = w.target.Reconfigure(name, config.ReplQueueInterval, config.ReplQueueMaxElements)
		if nil != err {
			w.log.Warnf("cache: %s  reconfigure error: %s", name, err)
			continue
		}
		w.log.Infof("cache: %s  queue interval: %s  max elements: %d", name, config.ReplQueueInterval, config.ReplQueueMaxElements)
	}
}
