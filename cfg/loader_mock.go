package cfg

type MockLoader struct {
	Username string
	ApiUrl   string
}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{Username: "pro-grammer-SD"}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	config := &Config{
		// App
		App: App{
			Name:    "github-portfolio-sync",
			Version: "0.0.1",
		},

		// Log
		Log: Log{
			Driver: "console",
			Level:  "debug",
		},

		// GithubApi
		GithubApi: GithubApi{
			Username: ml.Username,
			ApiUrl:   ml.ApiUrl,
		},

		// Cache
		Cache: Cache{
			Driver: "memory",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "github_portfolio",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},
	}
	config.Defaults()
	return config, nil
}
