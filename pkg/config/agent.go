/*
Copyright 2017 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"sync"
)

// Agent holds the current config and lets it be replaced while requests are being served.
type Agent struct {
	mut  sync.RWMutex // do not export Lock, etc methods
	c    *Config
	path string
}

// Config returns the latest config. Do not modify the config.
func (ca *Agent) Config() *Config {
	ca.mut.RLock()
	defer ca.mut.RUnlock()
	return ca.c
}

// Set sets the config. Useful for testing.
func (ca *Agent) Set(c *Config) {
	ca.mut.Lock()
	defer ca.mut.Unlock()
	ca.c = c
}

// Load loads the config file and remembers its path for Reload.
//
// An empty path sets the default config.
func (ca *Agent) Load(path string) error {
	c := NewDefaultConfig()
	if path != "" {
		var err error
		c, err = Load(path)
		if err != nil {
			return err
		}
	}
	ca.mut.Lock()
	defer ca.mut.Unlock()
	ca.c = c
	ca.path = path
	return nil
}

// Reload loads the config file again. The current config is kept if the file is invalid.
func (ca *Agent) Reload() error {
	ca.mut.RLock()
	path := ca.path
	ca.mut.RUnlock()
	return ca.Load(path)
}
