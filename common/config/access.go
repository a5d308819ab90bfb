package config

import (
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var Path = "media-converter.yaml"

var instance *MainRepoConfig
var singletonLock = &sync.Once{}
var instanceLock = &sync.RWMutex{}

func reloadConfig() (*MainRepoConfig, error) {
	c := NewDefaultMainConfig()

	// Write a default config if the one given doesn't exist
	_, err := os.Stat(Path)
	exists := err == nil || !os.IsNotExist(err)
	if !exists {
		fmt.Println("Generating new configuration...")
		configBytes, err := yaml.Marshal(c)
		if err != nil {
			return nil, err
		}
		if err = os.WriteFile(Path, configBytes, 0644); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(Path)
	if err != nil {
		return nil, err
	}

	pathsOrdered := make([]string, 0)
	if info.IsDir() {
		logrus.Info("Config is a directory - loading all files over top of each other")

		files, err := os.ReadDir(Path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			pathsOrdered = append(pathsOrdered, path.Join(Path, f.Name()))
		}
		sort.Strings(pathsOrdered)
	} else {
		pathsOrdered = append(pathsOrdered, Path)
	}

	for _, p := range pathsOrdered {
		logrus.Info("Loading config file: ", p)
		buffer, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(buffer, &c); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	return &c, nil
}

// Get returns the active configuration, loading it from Path on first use.
func Get() *MainRepoConfig {
	singletonLock.Do(func() {
		c, err := reloadConfig()
		if err != nil {
			logrus.Fatal(err)
		}
		set(c)
	})
	instanceLock.RLock()
	defer instanceLock.RUnlock()
	return instance
}

func set(c *MainRepoConfig) {
	instanceLock.Lock()
	defer instanceLock.Unlock()
	instance = c
}
