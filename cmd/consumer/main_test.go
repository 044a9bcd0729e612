package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-portfolio-sync/cfg"
)

func TestLoadConfig_LoaderError(t *testing.T) {
	var loader *cfg.ViperLoader
	config, err := loadConfig(func() (cfg.Loader, error) { return loader, errors.New("no config dir") })
	assert.Nil(t, config)
	assert.ErrorContains(t, err, "create config loader")
}

func TestLoadConfig(t *testing.T) {
	config, err := loadConfig(func() (cfg.Loader, error) { return &cfg.MockLoader{Username: "octo"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "octo", config.GithubApi.Username)
}
